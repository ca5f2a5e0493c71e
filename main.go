// gemstudio TUI - a terminal client for the gemstudio image backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemstudio-tui/internal/api"
	"github.com/jeranaias/gemstudio-tui/internal/archive"
	"github.com/jeranaias/gemstudio-tui/internal/cli"
	"github.com/jeranaias/gemstudio-tui/internal/config"
	"github.com/jeranaias/gemstudio-tui/internal/model"
	"github.com/jeranaias/gemstudio-tui/internal/store"
	"github.com/jeranaias/gemstudio-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(cfg, args)
	case cli.CmdAsk:
		exitOnError(cli.HandleAsk(args))
	case cli.CmdHistory:
		exitOnError(cli.HandleHistory(args))
	case cli.CmdSearch:
		exitOnError(cli.HandleSearch(args))
	case cli.CmdShow:
		exitOnError(cli.HandleShow(args))
	case cli.CmdExport:
		exitOnError(cli.HandleExport(args))
	case cli.CmdConfig:
		exitOnError(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		runTUI(cfg, args)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the chat interface.
func runTUI(cfg *config.Config, args cli.Args) {
	// Stray log output would corrupt the alternate screen, so route it
	// to a file in the config directory.
	if err := config.EnsureConfigDir(); err == nil {
		if dir, err := config.ConfigDir(); err == nil {
			f, err := os.OpenFile(filepath.Join(dir, "gemstudio.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
			if err == nil {
				log.SetOutput(f)
				defer f.Close()
			}
		}
	}

	baseURL := cfg.Server.BaseURL
	if args.Server != "" {
		baseURL = args.Server
	}
	client := api.NewClient(baseURL)
	st := store.New(client)

	// Write-through archive mirror. The TUI works fine without it, so
	// open failures only cost offline history.
	var arc *archive.Archive
	if cfg.Archive.Enabled {
		path, err := cfg.ArchivePath()
		if err == nil {
			arc, err = archive.Open(path)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: archive unavailable: %v\n", err)
			arc = nil
		}
	}
	if arc != nil {
		defer arc.Close()
		st.SetCommitHook(func(conv *model.Conversation) {
			_ = arc.Mirror(conv)
		})
		st.SetDeleteHook(func(id string) {
			_ = arc.Forget(id)
		})
	}

	m := chat.New(cfg, client, st)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Hot reload: config file edits are pushed into the running program.
	configPath, err := config.ConfigPath()
	if err == nil {
		watcher, werr := config.Watch(configPath, func(next *config.Config) {
			config.SetGlobal(next)
			p.Send(chat.ConfigReloadedMsg{Config: next})
		})
		if werr == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running gemstudio: %v\n", err)
		os.Exit(1)
	}
}
