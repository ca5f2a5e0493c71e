// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemstudio-tui/internal/model"
	"github.com/jeranaias/gemstudio-tui/internal/ui/styles"
	"github.com/jeranaias/gemstudio-tui/internal/util"
)

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// MessageOptions controls per-message rendering.
type MessageOptions struct {
	Width        int
	ShowThinking bool
	// RenderMarkdown converts assistant text through the markdown
	// renderer when set; nil leaves text plain.
	RenderMarkdown func(string) string
}

// RenderMessage renders a committed conversation message.
func RenderMessage(theme *styles.Theme, msg *model.Message, opts MessageOptions) string {
	if msg.IsUser() {
		return renderUserMessage(theme, msg, opts)
	}
	return renderAssistantMessage(theme, msg, opts)
}

func renderUserMessage(theme *styles.Theme, msg *model.Message, opts MessageOptions) string {
	var parts []string

	if len(msg.Files) > 0 {
		chips := make([]string, 0, len(msg.Files))
		for _, f := range msg.Files {
			chips = append(chips, theme.AttachmentChip.Render(fileDisplayName(f)))
		}
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, chips...))
	}

	if msg.Text != "" {
		parts = append(parts, msg.Text)
	}

	bubble := theme.UserBubble
	if opts.Width > 0 {
		bubble = bubble.MaxWidth(opts.Width - 4)
	}
	label := theme.HeaderTitle.Render(msg.Role.DisplayName())
	return label + "\n" + bubble.Render(strings.Join(parts, "\n"))
}

func renderAssistantMessage(theme *styles.Theme, msg *model.Message, opts MessageOptions) string {
	var parts []string

	if opts.ShowThinking && msg.Thinking != "" {
		parts = append(parts, RenderThinking(theme, msg.Thinking, len(msg.ThinkingImages)))
	}

	if msg.Text != "" {
		text := msg.Text
		if opts.RenderMarkdown != nil {
			text = opts.RenderMarkdown(text)
		}
		parts = append(parts, strings.TrimRight(text, "\n"))
	}

	if msg.Image != "" {
		parts = append(parts, RenderImage(theme, msg.Image))
	}

	if !msg.Grounding.IsEmpty() {
		parts = append(parts, RenderGrounding(theme, msg.Grounding))
	}

	if msg.Error != "" {
		parts = append(parts, theme.ErrorTitle.Render("Generation failed: ")+theme.ErrorMessage.Render(msg.Error))
	}

	if len(parts) == 0 {
		parts = append(parts, theme.ThinkingText.Render("(no content)"))
	}

	bubble := theme.AssistantBubble
	if opts.Width > 0 {
		bubble = bubble.MaxWidth(opts.Width - 4)
	}
	label := theme.HeaderBrand.Render(msg.Role.DisplayName())
	return label + "\n" + bubble.Render(strings.Join(parts, "\n\n"))
}

// fileDisplayName prefers the user's original filename over the stored one.
func fileDisplayName(f model.FileRef) string {
	if f.OriginalName != "" {
		return f.OriginalName
	}
	return f.Filename
}

// =============================================================================
// SUB-BLOCKS
// =============================================================================

// RenderThinking renders a model reasoning panel.
func RenderThinking(theme *styles.Theme, thinking string, imageCount int) string {
	header := theme.ThinkingHeader.Render("Reasoning")
	if imageCount > 0 {
		header += theme.ThinkingText.Render(fmt.Sprintf(" (%d draft images)", imageCount))
	}
	body := theme.ThinkingText.Render(strings.TrimSpace(thinking))
	return theme.ThinkingPanel.Render(header + "\n" + body)
}

// RenderImage renders a terminal placeholder for a generated image path.
func RenderImage(theme *styles.Theme, path string) string {
	frame := theme.ImageFrame.Render("[image] " + filepath.Base(path))
	caption := theme.ImageCaption.Render(path)
	return frame + "\n" + caption
}

// RenderGrounding renders the web-search grounding block with sources.
func RenderGrounding(theme *styles.Theme, g *model.Grounding) string {
	var sb strings.Builder
	sb.WriteString(theme.GroundingLabel.Render("Grounded via web search"))

	if len(g.SearchQueries) > 0 {
		sb.WriteString("\n")
		sb.WriteString(theme.GroundingQuery.Render("Searched: " + strings.Join(g.SearchQueries, ", ")))
	}

	for _, src := range g.Sources {
		title := src.Title
		if title == "" {
			title = src.URI
		}
		sb.WriteString("\n  ")
		sb.WriteString(theme.SourceLink.Render(title))
		if src.Title != "" {
			sb.WriteString(theme.GroundingQuery.Render(" " + src.URI))
		}
	}

	return theme.GroundingBlock.Render(sb.String())
}

// =============================================================================
// ATTACHMENT STRIP
// =============================================================================

// RenderAttachmentStrip renders the pending upload draft above the input.
func RenderAttachmentStrip(theme *styles.Theme, files []model.FileRef, width int) string {
	if len(files) == 0 {
		return ""
	}

	chips := make([]string, 0, len(files))
	for i, f := range files {
		name := util.TruncateWidth(fileDisplayName(f), 24)
		chips = append(chips, theme.AttachmentChip.Render(fmt.Sprintf("[%d] %s", i+1, name)))
	}

	strip := lipgloss.JoinHorizontal(lipgloss.Top, chips...)
	hint := theme.ShortcutDesc.Render("  /detach n removes attachment n")
	if width > 0 {
		return lipgloss.NewStyle().MaxWidth(width).Render(strip + hint)
	}
	return strip + hint
}
