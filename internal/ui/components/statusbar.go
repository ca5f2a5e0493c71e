// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/gemstudio-tui/internal/model"
	"github.com/jeranaias/gemstudio-tui/internal/ui/styles"
)

// StatusInfo carries the state shown in the status bar.
type StatusInfo struct {
	Mode          model.Mode
	EditType      string
	AspectRatio   string
	ImageSize     string
	ContextMemory bool
	Generating    bool
	StreamStatus  string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(theme *styles.Theme, info StatusInfo, width int) string {
	var left []string

	modeStyle := theme.ModeStandard
	switch info.Mode.ID {
	case model.ModeSearch:
		modeStyle = theme.ModeSearch
	case model.ModeEdit:
		modeStyle = theme.ModeEdit
	}
	modeLabel := info.Mode.Icon + " " + info.Mode.Label
	if info.Mode.ID == model.ModeEdit && info.EditType != "" {
		modeLabel += ":" + info.EditType
	}
	left = append(left, modeStyle.Render(modeLabel))

	left = append(left, theme.ShortcutDesc.Render(info.AspectRatio+" "+info.ImageSize))

	if info.ContextMemory {
		left = append(left, theme.ShortcutKey.Render("ctx"))
	}

	if info.Generating {
		status := info.StreamStatus
		if status == "" {
			status = "Generating..."
		}
		left = append(left, theme.StreamStatus.Render(status))
	}

	leftStr := strings.Join(left, "  ")

	right := theme.ShortcutKey.Render("^G") + theme.ShortcutDesc.Render(" mode ") +
		theme.ShortcutKey.Render("^O") + theme.ShortcutDesc.Render(" attach ") +
		theme.ShortcutKey.Render("^N") + theme.ShortcutDesc.Render(" new ")

	gap := width - runewidth.StringWidth(stripANSI(leftStr)) - runewidth.StringWidth(stripANSI(right)) - 2
	if gap < 1 {
		gap = 1
	}

	bar := leftStr + strings.Repeat(" ", gap) + right
	return theme.StatusBar.Width(width).Render(bar)
}

// stripANSI removes escape sequences for width measurement.
func stripANSI(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// RenderWelcome renders the empty-state welcome box.
func RenderWelcome(theme *styles.Theme, width, height int) string {
	logo := theme.WelcomeLogo.Render("gemstudio")
	info := theme.WelcomeInfo.Render("Generative image studio for your terminal")
	keys := theme.WelcomeInfo.Render("Type a prompt and press ") +
		theme.WelcomeKey.Render("enter") +
		theme.WelcomeInfo.Render(" to begin")

	box := theme.WelcomeBox.Render(logo + "\n\n" + info + "\n" + keys)
	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
