// cadence - terminal chat with typewriter-paced streaming.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cadence/internal/api"
	"github.com/jeranaias/cadence/internal/cli"
	"github.com/jeranaias/cadence/internal/config"
	"github.com/jeranaias/cadence/internal/storage"
	"github.com/jeranaias/cadence/internal/ui/chat"
	"github.com/jeranaias/cadence/internal/ui/components"
	"github.com/jeranaias/cadence/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async streaming. Stream goroutines send
// messages through it; guarded because runTUI assigns it after the
// goroutine machinery already exists.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func currentProgram() *tea.Program {
	programMu.Lock()
	defer programMu.Unlock()
	return programRef
}

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleErrorAndExit(cli.HandleAsk(args))
	case cli.CmdChat:
		cli.HandleErrorAndExit(cli.HandleChat(args))
	case cli.CmdModels:
		cli.HandleErrorAndExit(cli.HandleModels(args))
	case cli.CmdConfig:
		cli.HandleErrorAndExit(cli.HandleConfig(args))
	case cli.CmdHistory:
		cli.HandleErrorAndExit(cli.HandleHistory(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		runTUI(args)
	}
}

// runTUI starts the full-screen interface.
func runTUI(args cli.Args) {
	cfg := config.Global()

	client := cli.NewClientFromConfig(cfg, args)

	store, err := storage.NewConversationStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open conversation store: %v\n", err)
		os.Exit(1)
	}

	m := chat.New(cfg, client, store)

	welcome := components.NewWelcome(styles.NewTheme())
	welcome.SetVersion(Version)
	welcome.SetModelName(client.GetModel())
	welcome.SetTypingEnabled(cfg.Typing.Enabled)
	if client.IsConfigured() {
		welcome.SetKeyStatus(client.MaskedKey())
	}

	p := tea.NewProgram(
		rootModel{state: stateWelcome, welcome: welcome, chat: m, client: client},
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	_, runErr := p.Run()

	// Stops the history watcher and closes the index database.
	if err := m.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: closing history index: %v\n", err)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running cadence: %v\n", runErr)
		os.Exit(1)
	}
}

// =============================================================================
// ROOT MODEL
// =============================================================================

// appState tracks which top-level screen is showing.
type appState int

const (
	stateWelcome appState = iota
	stateChat
)

// rootModel wraps the welcome screen and chat model, and owns the
// network side of streaming. The chat model emits StreamRequestMsg when
// the user submits input; the root intercepts it, wires a cancellable
// context into the chat model, and hands the request to a StreamRunner
// goroutine. Everything else passes straight through.
type rootModel struct {
	state   appState
	welcome components.Welcome
	chat    chat.Model
	client  *api.Client
}

func (r rootModel) Init() tea.Cmd {
	return r.welcome.Init()
}

func (r rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chat.StreamRequestMsg:
		return r, r.startStream(msg)

	case tea.WindowSizeMsg:
		// Both screens track the terminal size
		r.welcome.SetSize(msg.Width, msg.Height)
		updated, cmd := r.chat.Update(msg)
		if cm, ok := updated.(chat.Model); ok {
			r.chat = cm
		}
		return r, cmd

	case tea.KeyMsg:
		if r.state == stateWelcome {
			switch msg.String() {
			case "ctrl+c", "q", "esc":
				return r, tea.Quit
			default:
				// Any other key dismisses the welcome screen
				r.state = stateChat
				return r, r.chat.Init()
			}
		}
	}

	if r.state == stateWelcome {
		var cmd tea.Cmd
		r.welcome, cmd = r.welcome.Update(msg)
		return r, cmd
	}

	updated, cmd := r.chat.Update(msg)
	if cm, ok := updated.(chat.Model); ok {
		r.chat = cm
	}
	return r, cmd
}

func (r rootModel) View() string {
	if r.state == stateWelcome {
		return r.welcome.View()
	}
	return r.chat.View()
}

// startStream launches the streaming request goroutine for one
// completion.
func (r rootModel) startStream(req chat.StreamRequestMsg) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	r.chat.SetCancelFunc(cancel)

	if req.Model != "" {
		r.client.SetModel(req.Model)
	}

	p := currentProgram()
	if p == nil {
		cancel()
		return nil
	}

	runner := chat.NewStreamRunner(p, r.client)
	go runner.Run(ctx, req.Messages, req.MessageID)
	return nil
}
