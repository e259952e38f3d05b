// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - argument parsing and command dispatch for cadence.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdModels
	CmdConfig
	CmdHistory
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string // --model override
	NoColor bool
	Stream  bool // --stream: typewriter output for ask

	// Command-specific
	Query      string
	File       string
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args remaining after global flag parsing
	Raw []string
}

const usageText = `cadence - terminal chat with typewriter-paced streaming

Cadence is a terminal client for OpenAI-compatible chat completion
endpoints (OpenRouter by default). Streamed replies are paced through a
typewriter buffer that types at a natural rhythm and speeds up when the
network runs ahead of the animation.

Usage:
  cadence                    Start the TUI (default)
  cadence ask "question"     Ask a single question
  cadence chat               Plain-terminal interactive chat
  cadence models             List available models
  cadence config <action>    Configuration management
  cadence history <query>    Search saved conversations
  cadence version            Print version information
  cadence help               Show this help

Ask:
  cadence ask "What is a goroutine?"
  cadence ask "Review this:" --file main.go
  cadence ask --stream "Tell me a story"   Typewriter-paced output
  cadence ask "question" | less            Piped output is plain text

Config:
  cadence config list                      Show all settings
  cadence config get api.model             Show one value
  cadence config set api.model anthropic/claude-3.5-sonnet
  cadence config set typing.base_delay_ms 50
  cadence config path                      Print the config file path

History:
  cadence history "rust lifetimes"         Full-text search
  cadence history --limit 5 "sorting"      Cap the result count
  cadence history --role user "deploy"     Restrict to a role

Global Flags:
  -m, --model NAME   Override the configured model
  -q, --quiet        Minimal output
  -v, --verbose      Debug output to stderr
  --no-color         Disable colored output

Environment:
  CADENCE_API_KEY    API key (overrides config file)
  CADENCE_MODEL      Default model (overrides config file)
  CADENCE_BASE_URL   Endpoint base URL (overrides config file)
  NO_COLOR           Disable colored output

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("cadence version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseFrom(os.Args[1:])
}

// ParseFrom parses the given arguments. Split from Parse for testing.
func ParseFrom(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "ask":
		parseAskArgs(&args, remaining)
		return CmdAsk, args

	case "chat":
		return CmdChat, args

	case "models", "model":
		if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
			args.Subcommand = remaining[0]
		}
		return CmdModels, args

	case "config", "cfg":
		parseConfigArgs(&args, remaining)
		return CmdConfig, args

	case "history", "search":
		args.Query = strings.Join(NewArgParser(remaining).PositionalFrom(0), " ")
		return CmdHistory, args

	case "version", "--version", "-V":
		return CmdVersion, args

	case "help", "--help", "-h":
		return CmdHelp, args

	default:
		// Unknown word: treat it as an implicit ask query, matching
		// the "just type your question" habit.
		parseAskArgs(&args, append([]string{cmd}, remaining...))
		return CmdAsk, args
	}
}

// parseGlobalFlags extracts global flags, returning the remaining args.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	var remaining []string

	i := 0
	for i < len(argv) {
		switch arg := argv[i]; arg {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--no-color":
			args.NoColor = true
		case "-m", "--model":
			if i+1 < len(argv) {
				args.Model = argv[i+1]
				i++
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, args
}

// parseAskArgs parses ask-specific flags and joins the rest into the
// query.
func parseAskArgs(args *Args, remaining []string) {
	var queryParts []string

	i := 0
	for i < len(remaining) {
		switch arg := remaining[i]; arg {
		case "--stream", "-s":
			args.Stream = true
		case "--file", "-f":
			if i+1 < len(remaining) {
				args.File = remaining[i+1]
				i++
			}
		default:
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else if !strings.HasPrefix(arg, "-") {
				queryParts = append(queryParts, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(queryParts, " ")
}

// parseConfigArgs maps "config get|set|list|path" onto the args struct.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "list"
		return
	}

	args.Subcommand = strings.ToLower(remaining[0])
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}
