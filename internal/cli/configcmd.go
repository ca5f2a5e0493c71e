// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// configcmd.go - Configuration inspection and editing for the CLI.
//
// Handles "config [show|get|set|path]". "set" writes the TOML file, so
// a running TUI picks the change up through its config watcher.
//
// Examples:
//   gemstudio config                       Show all settings
//   gemstudio config get generation.aspect_ratio
//   gemstudio config set ui.theme light
//   gemstudio config path
package cli

import (
	"fmt"

	"github.com/jeranaias/gemstudio-tui/internal/config"
)

// HandleConfig handles the "config" command and its subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show", "list":
		return configShow()

	case "get":
		if args.ConfigKey == "" {
			return fmt.Errorf("no key provided. Usage: gemstudio config get <key>")
		}
		cfg := config.Global()
		value, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return fmt.Errorf("usage: gemstudio config set <key> <value>")
		}
		return configSet(args)

	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	return fmt.Errorf("unknown config subcommand %q (want show, get, set, or path)", args.Subcommand)
}

// configShow prints every config key and its current value.
func configShow() error {
	cfg := config.Global()
	for _, key := range config.AllKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("%s = %s\n", labelStyle.Render(key), value)
	}
	return nil
}

// configSet updates one key and persists the file. The value is
// validated before anything is written.
func configSet(args Args) error {
	// Re-read from disk so a stale in-memory config never clobbers
	// edits made since startup.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("rejected: %w", err)
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if !args.Quiet {
		fmt.Printf("%s %s = %s\n", infoStyle.Render("Set"), args.ConfigKey, args.ConfigVal)
	}
	return nil
}
