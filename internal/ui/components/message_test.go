// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/gemstudio-tui/internal/model"
	"github.com/jeranaias/gemstudio-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	th := styles.NewTheme()
	th.SetSize(100, 40)
	return th
}

func TestRenderUserMessage(t *testing.T) {
	msg := model.NewUserMessage("draw a lighthouse", "standard", nil)
	out := RenderMessage(testTheme(), &msg, MessageOptions{Width: 80})
	if !strings.Contains(out, "draw a lighthouse") {
		t.Error("User text missing from rendered message")
	}
}

func TestRenderUserMessageAttachments(t *testing.T) {
	msg := model.NewUserMessage("edit this", "edit", []model.FileRef{
		{Filename: "photo.jpg", MimeType: "image/jpeg"},
	})
	out := RenderMessage(testTheme(), &msg, MessageOptions{Width: 80})
	if !strings.Contains(out, "photo.jpg") {
		t.Error("Attachment filename missing from rendered message")
	}
}

func TestRenderAssistantThinkingToggle(t *testing.T) {
	msg := model.Message{
		Role:     model.RoleAssistant,
		Text:     "result",
		Thinking: "secret reasoning",
	}

	shown := RenderMessage(testTheme(), &msg, MessageOptions{Width: 80, ShowThinking: true})
	if !strings.Contains(shown, "secret reasoning") {
		t.Error("Thinking should render when enabled")
	}

	hidden := RenderMessage(testTheme(), &msg, MessageOptions{Width: 80, ShowThinking: false})
	if strings.Contains(hidden, "secret reasoning") {
		t.Error("Thinking should be hidden when disabled")
	}
}

func TestRenderAssistantImageAndGrounding(t *testing.T) {
	msg := model.Message{
		Role:  model.RoleAssistant,
		Text:  "here",
		Image: "/generated/pic.png",
		Grounding: &model.Grounding{
			SearchQueries: []string{"weather sf"},
			Sources:       []model.Source{{Title: "NOAA", URI: "https://noaa.gov"}},
		},
	}
	out := RenderMessage(testTheme(), &msg, MessageOptions{Width: 80})
	if !strings.Contains(out, "pic.png") {
		t.Error("Image reference missing")
	}
	if !strings.Contains(out, "weather sf") {
		t.Error("Grounding query missing")
	}
	if !strings.Contains(out, "NOAA") {
		t.Error("Grounding source missing")
	}
}

func TestRenderAssistantError(t *testing.T) {
	msg := model.Message{
		Role:  model.RoleAssistant,
		Text:  "partial",
		Error: "quota exceeded",
	}
	out := RenderMessage(testTheme(), &msg, MessageOptions{Width: 80})
	if !strings.Contains(out, "quota exceeded") {
		t.Error("Error text missing")
	}
	if !strings.Contains(out, "partial") {
		t.Error("Partial content should still render alongside the error")
	}
}

func TestRenderAssistantEmptyFallback(t *testing.T) {
	msg := model.Message{Role: model.RoleAssistant}
	out := RenderMessage(testTheme(), &msg, MessageOptions{Width: 80})
	if !strings.Contains(out, "(no content)") {
		t.Error("Empty assistant message should show a placeholder")
	}
}

func TestRenderMarkdownHookApplied(t *testing.T) {
	msg := model.Message{Role: model.RoleAssistant, Text: "plain"}
	out := RenderMessage(testTheme(), &msg, MessageOptions{
		Width:          80,
		RenderMarkdown: func(s string) string { return "MD:" + s },
	})
	if !strings.Contains(out, "MD:plain") {
		t.Error("Markdown hook was not applied to assistant text")
	}
}

func TestRenderAttachmentStrip(t *testing.T) {
	files := []model.FileRef{
		{Filename: "a.png"},
		{Filename: "b.png"},
	}
	out := RenderAttachmentStrip(testTheme(), files, 80)
	if !strings.Contains(out, "a.png") || !strings.Contains(out, "b.png") {
		t.Error("Attachment strip missing filenames")
	}
}

func TestRenderStatusBarModes(t *testing.T) {
	th := testTheme()
	for _, mode := range model.Modes {
		info := StatusInfo{
			Mode:        mode,
			EditType:    "general",
			AspectRatio: "1:1",
			ImageSize:   "1K",
		}
		out := RenderStatusBar(th, info, 100)
		if !strings.Contains(out, mode.Label) {
			t.Errorf("Status bar missing mode label %q", mode.Label)
		}
	}
}

func TestRenderStatusBarGenerating(t *testing.T) {
	info := StatusInfo{
		Mode:         model.Modes[0],
		AspectRatio:  "1:1",
		ImageSize:    "1K",
		Generating:   true,
		StreamStatus: "Reasoning...",
	}
	out := RenderStatusBar(testTheme(), info, 100)
	if !strings.Contains(out, "Reasoning...") {
		t.Error("Status bar missing stream status while generating")
	}
}
