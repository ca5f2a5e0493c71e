// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Archive browsing commands for the gemstudio CLI.
//
// Handles "history", "search", and "show". All three read the local
// SQLite mirror, so they work offline and never touch the backend.
//
// Examples:
//   gemstudio history
//   gemstudio search "lighthouse"
//   gemstudio show conv-42
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/gemstudio-tui/internal/archive"
	"github.com/jeranaias/gemstudio-tui/internal/config"
	"github.com/jeranaias/gemstudio-tui/internal/model"
	"github.com/jeranaias/gemstudio-tui/internal/util"
)

// openArchive opens the local mirror from the configured path.
func openArchive() (*archive.Archive, error) {
	cfg := config.Global()
	path, err := cfg.ArchivePath()
	if err != nil {
		return nil, fmt.Errorf("cannot resolve archive path: %w", err)
	}
	return archive.Open(path)
}

// HandleHistory lists archived conversations, most recent first.
func HandleHistory(args Args) error {
	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer arc.Close()

	summaries, err := arc.List()
	if err != nil {
		return fmt.Errorf("failed to list archive: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println(infoStyle.Render("Archive is empty. Conversations are mirrored after each exchange."))
		return nil
	}

	for _, s := range summaries {
		title := s.Title
		if title == "" {
			title = model.DefaultTitle
		}
		fmt.Printf("%s  %s  %s\n",
			labelStyle.Render(s.UpdatedAt.Format("2006-01-02 15:04")),
			util.PadWidth(title, 26),
			infoStyle.Render(fmt.Sprintf("%d messages  %s", s.MessageCount, s.ID)))
	}
	return nil
}

// HandleSearch finds archived messages matching the query.
func HandleSearch(args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return fmt.Errorf("no query provided. Usage: gemstudio search \"text\"")
	}

	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer arc.Close()

	hits, err := arc.Search(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println(infoStyle.Render("No matches."))
		return nil
	}

	for _, h := range hits {
		fmt.Printf("%s %s\n  %s\n",
			promptStyle.Render(h.Title),
			labelStyle.Render(fmt.Sprintf("(%s, message %d, %s)", h.ConversationID, h.MessageIndex, h.Role)),
			h.Snippet)
	}
	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "\n%s\n",
			infoStyle.Render(fmt.Sprintf("%d match(es). View with: gemstudio show <id>", len(hits))))
	}
	return nil
}

// HandleShow prints one archived conversation.
func HandleShow(args Args) error {
	if args.ID == "" {
		return fmt.Errorf("no conversation id provided. Usage: gemstudio show <id>")
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

	fmt.Println(promptStyle.Render(conv.Title))
	fmt.Println(separatorStyle.Render(strings.Repeat("─", 45)))

	for i, msg := range conv.Messages {
		printArchivedMessage(i, msg, args)
	}
	return nil
}

// printArchivedMessage writes one message in transcript form.
func printArchivedMessage(index int, msg model.Message, args Args) {
	if msg.IsUser() {
		fmt.Printf("%s %s\n", promptStyle.Render(fmt.Sprintf("[%d] you:", index)), msg.Text)
		for _, f := range msg.Files {
			name := f.OriginalName
			if name == "" {
				name = f.Filename
			}
			fmt.Printf("    %s %s\n", labelStyle.Render("attached:"), name)
		}
		return
	}

	fmt.Println(infoStyle.Render(fmt.Sprintf("[%d] gemstudio:", index)))
	if msg.Failed() {
		fmt.Printf("    %s %s\n", errorStyle.Render("[failed]"), msg.Error)
	}
	if args.Verbose && msg.Thinking != "" {
		fmt.Println(thinkingStyle.Render(msg.Thinking))
	}
	if msg.Text != "" {
		displayResponse(msg.Text)
		fmt.Println()
	}
	if msg.Image != "" {
		fmt.Printf("    %s %s\n", labelStyle.Render("image:"), msg.Image)
	}
	if msg.Grounding != nil && !msg.Grounding.IsEmpty() {
		printGrounding(msg.Grounding)
	}
}
