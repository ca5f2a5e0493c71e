// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot and interactive generation for the gemstudio CLI.
//
// Handles the "gemstudio ask" command. With a prompt argument (or piped
// stdin) it runs a single generation and prints the result to stdout.
// Without one, on a terminal, it drops into an interactive prompt loop
// with line editing and persistent history.
//
// Examples:
//   gemstudio ask "a lighthouse at dusk, oil painting"
//   cat prompt.txt | gemstudio ask
//   gemstudio ask
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemstudio-tui/internal/api"
	"github.com/jeranaias/gemstudio-tui/internal/config"
	"github.com/jeranaias/gemstudio-tui/internal/model"
	"github.com/jeranaias/gemstudio-tui/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(DefaultTerminalWidth),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display. Returns
// the original content if rendering fails or the renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse writes response text with markdown rendering when
// stdout is a TTY. Piped output gets the raw text untouched.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	labelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	thinkingStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	separatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAsk handles the "ask" command. A prompt argument or piped stdin
// runs a one-shot generation; neither, on a terminal, starts the
// interactive loop.
func HandleAsk(args Args) error {
	cfg := config.Global()
	client := newClient(cfg, args)

	prompt := strings.TrimSpace(args.Query)

	// Piped stdin becomes the prompt when no argument was given.
	if prompt == "" && !IsTTY() {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			data, err := io.ReadAll(bufio.NewReader(os.Stdin))
			if err == nil && len(data) > 0 {
				prompt = strings.TrimSpace(string(data))
			}
		}
	}

	if prompt == "" {
		if !IsTTY() {
			return fmt.Errorf("no prompt provided. Usage: gemstudio ask \"your prompt\"")
		}
		return runAskLoop(client, cfg, args)
	}

	return runGeneration(context.Background(), client, cfg, prompt, args)
}

// newClient builds an API client, honoring the --server override.
func newClient(cfg *config.Config, args Args) *api.Client {
	baseURL := cfg.Server.BaseURL
	if args.Server != "" {
		baseURL = args.Server
	}
	return api.NewClient(baseURL)
}

// runGeneration streams one generation to the terminal.
func runGeneration(ctx context.Context, client *api.Client, cfg *config.Config, prompt string, args Args) error {
	req := api.GenerateRequest{
		Prompt:      prompt,
		AspectRatio: cfg.Generation.AspectRatio,
		ImageSize:   cfg.Generation.ImageSize,
		IncludeText: cfg.Generation.IncludeText,
	}

	// Markdown needs the whole response before rendering, so on a TTY
	// we collect and render at the end. Piped output streams as-is.
	useMarkdown := IsStdoutTTY()

	var text strings.Builder
	var imagePath string
	var grounding *model.Grounding
	var frameErr error

	mode, _ := model.ModeByID(model.ModeStandard)
	err := client.Generate(ctx, mode, req, func(f api.Frame) {
		switch f.Type {
		case api.FrameThinking:
			if args.Verbose {
				fmt.Fprint(os.Stderr, thinkingStyle.Render(f.Text))
			}
		case api.FrameText:
			text.WriteString(f.Text)
			if !useMarkdown {
				fmt.Print(f.Text)
			}
		case api.FrameImage:
			imagePath = f.Path
		case api.FrameGrounding:
			grounding = f.Data
		case api.FrameError:
			frameErr = fmt.Errorf("%s", f.Message)
		case api.FrameDone:
			if text.Len() == 0 && f.FullText != "" {
				text.WriteString(f.FullText)
				if !useMarkdown {
					fmt.Print(f.FullText)
				}
			}
			if grounding == nil {
				grounding = f.Grounding
			}
		}
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	if frameErr != nil {
		return fmt.Errorf("generation failed: %w", frameErr)
	}

	if args.Verbose {
		fmt.Fprintln(os.Stderr)
	}

	if useMarkdown {
		displayResponse(text.String())
	}
	if text.Len() > 0 && !useMarkdown {
		fmt.Println()
	}

	if imagePath != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n",
			labelStyle.Render("Image:"),
			client.ResolvePath(imagePath))
	}
	if grounding != nil && !grounding.IsEmpty() && !args.Quiet {
		printGrounding(grounding)
	}
	return nil
}

// printGrounding writes search queries and sources to stderr.
func printGrounding(g *model.Grounding) {
	if len(g.SearchQueries) > 0 {
		fmt.Fprintf(os.Stderr, "%s %s\n",
			labelStyle.Render("Searched:"),
			strings.Join(g.SearchQueries, ", "))
	}
	for _, src := range g.Sources {
		fmt.Fprintf(os.Stderr, "  %s %s\n",
			infoStyle.Render(src.Title),
			labelStyle.Render(src.URI))
	}
}

// =============================================================================
// INTERACTIVE LOOP
// =============================================================================

// runAskLoop reads prompts interactively until EOF or /quit. Each prompt
// is an independent generation; history persists across sessions.
func runAskLoop(client *api.Client, cfg *config.Config, args Args) error {
	if !args.Quiet {
		fmt.Println(promptStyle.Render("gemstudio") + infoStyle.Render("  interactive mode. /quit or Ctrl+D to exit."))
		fmt.Println()
	}

	input := NewAskCLI()
	defer input.Close()

	for {
		line, err := input.ReadInput("> ")
		if err != nil {
			// Ctrl+C clears the current line, Ctrl+D ends the session.
			if errors.Is(err, ErrInputAborted) {
				fmt.Println()
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Println()
			}
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/q" || line == "/exit" {
			break
		}

		if err := runGeneration(context.Background(), client, cfg, line, args); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
		fmt.Println(separatorStyle.Render(strings.Repeat("─", 45)))
	}

	input.SaveHistory()
	return nil
}
