// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for gemstudio.
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
	CmdHistory
	CmdSearch
	CmdShow
	CmdExport
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Server  string // backend base URL override

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Format     string // export format
	ID         string // conversation id

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `gemstudio - terminal client for the gemstudio image backend

Gemstudio is a TUI and CLI for a generative-image chat backend.

It provides:
  - Streaming chat with live reasoning and image frames
  - Generate, search-grounded, and edit modes
  - Backend-synced conversations with a local archive mirror
  - Markdown, JSON, and HTML conversation export

Usage:
  gemstudio                       Start TUI (default)
  gemstudio ask "prompt"          One-shot generation to stdout
  gemstudio ask                   Interactive prompt loop
  gemstudio history               List archived conversations
  gemstudio search "text"         Search the local archive
  gemstudio show <id>             Print an archived conversation
  gemstudio export <id> [format]  Export a conversation (markdown|json|html)
  gemstudio config [show|get|set|path]  Configuration
  gemstudio version               Show version
  gemstudio help                  Show this help

Global flags:
  --server URL   Backend address (default from config)
  -q, --quiet    Minimal output
  -v, --verbose  Verbose output

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("gemstudio version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// parseGlobalFlags strips global flags from args, returning the remainder.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	var remaining []string

	i := 0
	for i < len(args) {
		switch arg := args[i]; {
		case arg == "-q" || arg == "--quiet":
			parsed.Quiet = true
		case arg == "-v" || arg == "--verbose":
			parsed.Verbose = true
		case arg == "--server" && i+1 < len(args):
			i++
			parsed.Server = args[i]
		case strings.HasPrefix(arg, "--server="):
			parsed.Server = strings.TrimPrefix(arg, "--server=")
		default:
			remaining = append(remaining, arg)
		}
		i++
	}
	return remaining, parsed
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

func parseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI.
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	// -V is case-sensitive (-v is the verbose flag), so match it on the
	// raw argument before lowercasing.
	raw := remaining[0]
	cmd := strings.ToLower(raw)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	if raw == "-V" {
		return CmdVersion, parsedArgs
	}

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask", "generate":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdAsk, parsedArgs

	case "history", "ls":
		return CmdHistory, parsedArgs

	case "search":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdSearch, parsedArgs

	case "show":
		if len(remaining) > 0 {
			parsedArgs.ID = remaining[0]
		}
		return CmdShow, parsedArgs

	case "export":
		if len(remaining) > 0 {
			parsedArgs.ID = remaining[0]
		}
		if len(remaining) > 1 {
			parsedArgs.Format = remaining[1]
		}
		return CmdExport, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "--help", "-h":
		return CmdHelp, parsedArgs
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
	return CmdHelp, parsedArgs
}

// parseConfigArgs parses the config subcommand and key/value.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
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
