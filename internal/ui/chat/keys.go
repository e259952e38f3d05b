// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the key bindings and the context-sensitive help
// registry. The help overlay filters items by the active context so
// users only see shortcuts that currently do something.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines all key bindings for the chat view.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Input
	Submit     key.Binding
	InsertMode key.Binding
	Cancel     key.Binding
	Complete   key.Binding

	// Actions
	Copy    key.Binding
	Clear   key.Binding
	Dismiss key.Binding
	Search  key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup/ctrl+u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn/ctrl+d", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "go to bottom"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send message"),
		),
		InsertMode: key.NewBinding(
			key.WithKeys("i", "a"),
			key.WithHelp("i", "insert mode"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete command"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy last response"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear conversation"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss notification"),
		),
		Search: key.NewBinding(
			key.WithKeys("ctrl+f", "/"),
			key.WithHelp("ctrl+f or /", "search conversation"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "q"),
			key.WithHelp("q/ctrl+q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the compact help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.InsertMode, k.Search, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Submit, k.InsertMode, k.Cancel, k.Complete},
		{k.Copy, k.Clear, k.Dismiss, k.Search},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// HELP CONTEXTS
// =============================================================================

// HelpContext identifies which part of the UI currently has focus.
// The help overlay shows only items whose contexts include the active
// one.
type HelpContext int

const (
	// ContextNormal is scroll/navigation mode with the input blurred.
	ContextNormal HelpContext = iota
	// ContextInput is insert mode with the text input focused.
	ContextInput
	// ContextStreaming covers an active request (waiting or receiving).
	ContextStreaming
	// ContextDraining is the window where the network is done but the
	// typewriter is still pacing out its backlog.
	ContextDraining
	// ContextSearch is in-conversation search mode.
	ContextSearch
	// ContextError is shown while an error overlay is visible.
	ContextError
)

// String returns the display name of the context.
func (c HelpContext) String() string {
	switch c {
	case ContextNormal:
		return "Normal"
	case ContextInput:
		return "Insert"
	case ContextStreaming:
		return "Streaming"
	case ContextDraining:
		return "Draining"
	case ContextSearch:
		return "Search"
	case ContextError:
		return "Error"
	default:
		return "Unknown"
	}
}

// =============================================================================
// HELP CATEGORIES
// =============================================================================

// HelpCategory groups help items in the overlay.
type HelpCategory int

const (
	CategoryNavigation HelpCategory = iota
	CategoryInput
	CategoryStreaming
	CategorySession
	CategoryGeneral
)

// String returns the display name of the category.
func (c HelpCategory) String() string {
	switch c {
	case CategoryNavigation:
		return "Navigation"
	case CategoryInput:
		return "Input"
	case CategoryStreaming:
		return "Streaming"
	case CategorySession:
		return "Session"
	case CategoryGeneral:
		return "General"
	default:
		return "Other"
	}
}

// GetCategoryOrder returns categories in display order.
func GetCategoryOrder() []HelpCategory {
	return []HelpCategory{
		CategoryNavigation,
		CategoryInput,
		CategoryStreaming,
		CategorySession,
		CategoryGeneral,
	}
}

// =============================================================================
// HELP ITEMS
// =============================================================================

// HelpItem is one row in the help overlay.
type HelpItem struct {
	Key      string
	Desc     string
	Contexts []HelpContext
	Category HelpCategory
}

// helpItems is the full help registry. Order within a category is
// display order.
var helpItems = []HelpItem{
	// Navigation
	{Key: "↑/k ↓/j", Desc: "scroll messages", Contexts: []HelpContext{ContextNormal, ContextStreaming, ContextDraining}, Category: CategoryNavigation},
	{Key: "pgup/pgdn", Desc: "page up / down", Contexts: []HelpContext{ContextNormal, ContextInput}, Category: CategoryNavigation},
	{Key: "ctrl+u/d", Desc: "half-page up / down", Contexts: []HelpContext{ContextNormal}, Category: CategoryNavigation},
	{Key: "g / G", Desc: "jump to top / bottom", Contexts: []HelpContext{ContextNormal}, Category: CategoryNavigation},

	// Input
	{Key: "i", Desc: "enter insert mode", Contexts: []HelpContext{ContextNormal}, Category: CategoryInput},
	{Key: "esc", Desc: "back to normal mode", Contexts: []HelpContext{ContextInput}, Category: CategoryInput},
	{Key: "enter", Desc: "send message", Contexts: []HelpContext{ContextInput}, Category: CategoryInput},
	{Key: "tab", Desc: "complete / cycle slash command", Contexts: []HelpContext{ContextInput}, Category: CategoryInput},
	{Key: "/help", Desc: "list slash commands", Contexts: []HelpContext{ContextNormal, ContextInput}, Category: CategoryInput},

	// Streaming
	{Key: "enter", Desc: "skip typewriter, show full reply", Contexts: []HelpContext{ContextDraining}, Category: CategoryStreaming},
	{Key: "ctrl+c", Desc: "cancel the response", Contexts: []HelpContext{ContextStreaming, ContextDraining}, Category: CategoryStreaming},

	// Session
	{Key: "y", Desc: "copy last response", Contexts: []HelpContext{ContextNormal}, Category: CategorySession},
	{Key: "ctrl+l", Desc: "clear conversation", Contexts: []HelpContext{ContextNormal, ContextInput}, Category: CategorySession},
	{Key: "x", Desc: "dismiss newest notification", Contexts: []HelpContext{ContextNormal}, Category: CategorySession},

	// Search
	{Key: "ctrl+f or /", Desc: "search conversation", Contexts: []HelpContext{ContextNormal}, Category: CategoryNavigation},
	{Key: "enter / ↓", Desc: "next match", Contexts: []HelpContext{ContextSearch}, Category: CategoryNavigation},
	{Key: "↑", Desc: "previous match", Contexts: []HelpContext{ContextSearch}, Category: CategoryNavigation},
	{Key: "esc", Desc: "close search", Contexts: []HelpContext{ContextSearch}, Category: CategoryNavigation},
	{Key: "n / N", Desc: "next / previous match", Contexts: []HelpContext{ContextNormal}, Category: CategoryNavigation},

	// Error
	{Key: "esc", Desc: "dismiss error", Contexts: []HelpContext{ContextError}, Category: CategoryGeneral},

	// General
	{Key: "?", Desc: "toggle this help", Contexts: []HelpContext{ContextNormal, ContextStreaming, ContextDraining, ContextError}, Category: CategoryGeneral},
	{Key: "q or ctrl+q", Desc: "quit", Contexts: []HelpContext{ContextNormal}, Category: CategoryGeneral},
}

// GetHelpItems returns every registered help item.
func GetHelpItems() []HelpItem {
	return helpItems
}

// GetHelpItemsForContext returns the items visible in the given context.
func GetHelpItemsForContext(ctx HelpContext) []HelpItem {
	var items []HelpItem
	for _, item := range helpItems {
		for _, c := range item.Contexts {
			if c == ctx {
				items = append(items, item)
				break
			}
		}
	}
	return items
}

// GetHelpItemsByCategory returns the context's items grouped by category.
func GetHelpItemsByCategory(ctx HelpContext) map[HelpCategory][]HelpItem {
	grouped := make(map[HelpCategory][]HelpItem)
	for _, item := range GetHelpItemsForContext(ctx) {
		grouped[item.Category] = append(grouped[item.Category], item)
	}
	return grouped
}
