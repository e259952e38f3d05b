// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the cadence CLI.
//
// Handles "cadence chat", a plain-terminal REPL for environments where
// the full TUI is unwanted (SSH sessions, simple terminals, scripts run
// through expect). Responses stream through the typewriter at the
// configured cadence.
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear conversation history
//   /model [name]       Show or switch model
//   /status, /s         Show session statistics
//   /history            Show conversation history
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current generation
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/cadence/internal/api"
	"github.com/jeranaias/cadence/internal/config"
	"github.com/jeranaias/cadence/internal/typewriter"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()

	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	Messages []api.Message

	Config *config.Config
	Client *api.Client
	Quiet  bool

	StartTime   time.Time
	TotalTokens int
	QueryCount  int

	// Cancel function for the current stream; guarded by cancelMu
	// because the signal handler goroutine reads it.
	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc

	InputCLI *ChatCLI
}

// NewChatSession creates a new chat session.
func NewChatSession(args Args) *ChatSession {
	cfg := config.Global()
	client := NewClientFromConfig(cfg, args)

	return &ChatSession{
		Messages:  make([]api.Message, 0),
		Config:    cfg,
		Client:    client,
		Quiet:     args.Quiet,
		StartTime: time.Now(),
		InputCLI:  NewChatCLI(),
	}
}

func (s *ChatSession) setCancel(cancel context.CancelFunc) {
	s.cancelMu.Lock()
	s.cancelFunc = cancel
	s.cancelMu.Unlock()
}

// cancelStream cancels the in-flight stream, if any.
// Returns true when something was cancelled.
func (s *ChatSession) cancelStream() bool {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
		return true
	}
	return false
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat handles the "chat" command with full interactive support.
func HandleChat(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	session := NewChatSession(args)

	if err := RequireConfigured(session.Client); err != nil {
		return err
	}

	if !session.Quiet {
		printWelcome(session)
	}

	defer session.InputCLI.Close()

	// Ctrl+C cancels the current generation instead of killing the
	// process; liner raises ErrPromptAborted at the prompt itself.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			if session.cancelStream() {
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := session.InputCLI.ReadInput(PromptStyle.Render("cadence> "))
		if err != nil {
			// ErrPromptAborted (Ctrl+C) and EOF (Ctrl+D) both exit
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !shouldContinue {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends a message and streams the response through the
// typewriter.
func processMessage(session *ChatSession, input string) error {
	ctx, cancel := context.WithCancel(context.Background())
	session.setCancel(cancel)
	defer func() {
		session.setCancel(nil)
		cancel()
	}()

	messages := buildMessages(session.Config, session.Messages, input)

	startTime := time.Now()
	fmt.Println()

	var response strings.Builder

	tw := typewriter.New(session.Config.TypewriterConfig(), func(chunk string) {
		fmt.Print(chunk)
	})
	tw.Start()
	defer tw.Stop()

	stats, err := session.Client.ChatStreamWithStats(ctx, messages,
		func(chunk string) {
			response.WriteString(chunk)
			tw.Push(chunk)
		},
		func() {},
	)

	if err != nil {
		tw.Flush()
		fmt.Println()
		if ctx.Err() == context.Canceled {
			// Cancelled mid-stream; keep what arrived
			if response.Len() > 0 {
				session.Messages = append(session.Messages,
					api.NewUserMessage(input),
					api.NewAssistantMessage(response.String()))
			}
			return nil
		}
		return WrapError(err, "streaming failed")
	}

	// Drain the animation before the next prompt
	for tw.Backlog() > 0 {
		select {
		case <-ctx.Done():
			tw.Flush()
		case <-time.After(10 * time.Millisecond):
		}
		if ctx.Err() != nil {
			break
		}
	}
	fmt.Println()
	fmt.Println()

	session.Messages = append(session.Messages,
		api.NewUserMessage(input),
		api.NewAssistantMessage(response.String()))
	session.QueryCount++

	// Rough accounting; streamed responses carry no usage object
	session.TotalTokens += (len(input) + response.Len()) / 4

	if !session.Quiet && stats != nil {
		fmt.Fprintf(os.Stderr, "%s first token %s | total %s\n",
			DimStyle.Render("[stats]"),
			stats.TTFT.Round(time.Millisecond),
			time.Since(startTime).Round(time.Millisecond))
	}

	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	cmdArgs := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printChatHelp()
		return true, nil

	case "/clear", "/c":
		session.Messages = session.Messages[:0]
		fmt.Println(HighlightStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/model", "/m":
		return handleModelSwitch(session, cmdArgs)

	case "/status", "/s":
		printStatus(session)
		return true, nil

	case "/history":
		printChatHistory(session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleModelSwitch handles the /model command.
func handleModelSwitch(session *ChatSession, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Printf("%s Current model: %s\n",
			InfoStyle.Render("[Model]"),
			HighlightStyle.Render(session.Client.GetModel()))
		return true, nil
	}

	newModel := args[0]
	session.Client.SetModel(newModel)
	fmt.Printf("%s Switched to model: %s\n",
		SuccessStyle.Render("[OK]"),
		newModel)

	return true, nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(session *ChatSession) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("cadence interactive chat"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		DimStyle.Render("Model:"),
		HighlightStyle.Render(session.Client.GetModel()))
	fmt.Printf("%s %s\n",
		DimStyle.Render("Key:"),
		ValueStyle.Render(session.Client.MaskedKey()))
	fmt.Println()
	fmt.Println(DimStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available commands.
func printChatHelp() {
	fmt.Println()
	fmt.Println(SectionStyle.Render("Available Commands"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear conversation history"},
		{"/model [name]", "Show or switch model"},
		{"/status, /s", "Show session statistics"},
		{"/history", "Show conversation history"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			HighlightStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			DimStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(DimStyle.Render("Tip: Ctrl+C cancels current generation, Ctrl+D exits"))
	fmt.Println()
}

// printStatus prints session statistics.
func printStatus(session *ChatSession) {
	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(SectionStyle.Render("Session Status"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	fmt.Printf("  %s %s\n",
		DimStyle.Render("Model:"),
		HighlightStyle.Render(session.Client.GetModel()))
	fmt.Printf("  %s %s\n",
		DimStyle.Render("Duration:"),
		elapsed.String())
	fmt.Printf("  %s %d messages\n",
		DimStyle.Render("History:"),
		len(session.Messages))
	fmt.Printf("  %s %d\n",
		DimStyle.Render("Queries:"),
		session.QueryCount)
	fmt.Printf("  %s ~%s (estimated)\n",
		DimStyle.Render("Tokens:"),
		formatNumber(session.TotalTokens))

	fmt.Println()
}

// printChatHistory prints the conversation so far, one line per
// message.
func printChatHistory(session *ChatSession) {
	if len(session.Messages) == 0 {
		fmt.Println(DimStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render("Conversation History"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, msg := range session.Messages {
		role := msg.Role
		switch role {
		case "user":
			role = InfoStyle.Render("You")
		case "assistant":
			role = HighlightStyle.Render("AI")
		case "system":
			role = WarningStyle.Render("System")
		}

		// Rune-based truncation for Unicode safety
		content := msg.Content
		runes := []rune(content)
		if len(runes) > 100 {
			content = string(runes[:100]) + "..."
		}
		content = strings.ReplaceAll(content, "\n", " ")

		fmt.Printf("  %d. %s: %s\n", i+1, role, content)
	}

	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(session *ChatSession) {
	if session.QueryCount == 0 {
		fmt.Println(DimStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(SectionStyle.Render("Session Summary"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 15)))

	fmt.Printf("  %s %d\n",
		DimStyle.Render("Queries:"),
		session.QueryCount)
	fmt.Printf("  %s ~%s (estimated)\n",
		DimStyle.Render("Tokens:"),
		formatNumber(session.TotalTokens))
	fmt.Printf("  %s %s\n",
		DimStyle.Render("Duration:"),
		elapsed.String())

	fmt.Println()
	fmt.Println(DimStyle.Render("Goodbye!"))
}
