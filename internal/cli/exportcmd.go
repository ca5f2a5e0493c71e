// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// exportcmd.go - Conversation export for the gemstudio CLI.
//
// Handles "export <id> [format]". The conversation is read from the
// local archive; format defaults to markdown.
//
// Examples:
//   gemstudio export conv-42
//   gemstudio export conv-42 html
//   gemstudio export conv-42 json -v
package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/gemstudio-tui/internal/archive"
	"github.com/jeranaias/gemstudio-tui/internal/config"
	"github.com/jeranaias/gemstudio-tui/internal/export"
)

// HandleExport exports one archived conversation to a file in the
// current directory.
func HandleExport(args Args) error {
	if args.ID == "" {
		return fmt.Errorf("no conversation id provided. Usage: gemstudio export <id> [markdown|json|html]")
	}

	format := args.Format
	if format == "" {
		format = "markdown"
	}

	cfg := config.Global()
	opts := export.DefaultOptions()
	opts.BaseURL = cfg.Server.BaseURL
	opts.IncludeThinking = args.Verbose || cfg.UI.ShowThinking
	opts.Theme = cfg.UI.Theme

	exporter := export.ByFormat(format, opts)
	if exporter == nil {
		return fmt.Errorf("unknown export format %q (want markdown, json, or html)", format)
	}

	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer arc.Close()

	conv, err := arc.Get(args.ID)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return fmt.Errorf("conversation %q is not in the archive", args.ID)
		}
		return err
	}

	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return err
	}

	if !args.Quiet {
		fmt.Printf("%s %s\n", infoStyle.Render("Exported to"), path)
	}
	return nil
}
