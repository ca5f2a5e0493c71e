// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// MODE TESTS
// =============================================================================

func TestModeByID(t *testing.T) {
	for _, id := range []ModeID{ModeStandard, ModeSearch, ModeEdit} {
		m, ok := ModeByID(id)
		if !ok {
			t.Errorf("ModeByID(%q) should succeed", id)
		}
		if m.ID != id {
			t.Errorf("ModeByID(%q) returned %q", id, m.ID)
		}
		if m.Endpoint == "" || m.Placeholder == "" {
			t.Errorf("Mode %q missing endpoint or placeholder", id)
		}
	}

	if _, ok := ModeByID("imaginary"); ok {
		t.Error("ModeByID should fail for unknown ids")
	}
}

func TestModeFileSemantics(t *testing.T) {
	edit, _ := ModeByID(ModeEdit)
	if !edit.RequiresFiles || !edit.SendsFiles {
		t.Error("edit mode must require and send files")
	}

	search, _ := ModeByID(ModeSearch)
	if search.RequiresFiles || search.SendsFiles {
		t.Error("search mode must neither require nor send files")
	}

	standard, _ := ModeByID(ModeStandard)
	if standard.RequiresFiles {
		t.Error("standard mode must not require files")
	}
	if !standard.SendsFiles {
		t.Error("standard mode should pass attachments through")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessageNormalizesFiles(t *testing.T) {
	m := NewUserMessage("hi", "standard", nil)
	if m.Files == nil {
		t.Error("Files should be an empty slice, not nil, for stable JSON")
	}
	if !m.IsUser() {
		t.Error("NewUserMessage should produce a user message")
	}
}

func TestMessageFailed(t *testing.T) {
	ok := Message{Role: RoleAssistant, Text: "fine"}
	if ok.Failed() {
		t.Error("message without error should not be failed")
	}
	bad := Message{Role: RoleAssistant, Error: "quota exceeded"}
	if !bad.Failed() {
		t.Error("message with error should be failed")
	}
}

func TestGroundingIsEmpty(t *testing.T) {
	var g *Grounding
	if !g.IsEmpty() {
		t.Error("nil grounding should be empty")
	}
	if !(&Grounding{}).IsEmpty() {
		t.Error("zero grounding should be empty")
	}
	if (&Grounding{SearchQueries: []string{"q"}}).IsEmpty() {
		t.Error("grounding with queries should not be empty")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestUntitled(t *testing.T) {
	c := Conversation{Title: DefaultTitle}
	if !c.Untitled() {
		t.Error("default title should count as untitled")
	}
	c.Title = ""
	if !c.Untitled() {
		t.Error("empty title should count as untitled")
	}
	c.Title = "Moodboard"
	if c.Untitled() {
		t.Error("user title should not count as untitled")
	}
}

func TestPreviewSkipsAssistantMessages(t *testing.T) {
	c := Conversation{Messages: []Message{
		{Role: RoleAssistant, Text: "welcome"},
		NewUserMessage("draw a fox", "standard", nil),
	}}
	if got := c.Preview(40); got != "draw a fox" {
		t.Errorf("Preview = %q, want first user prompt", got)
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		check  func(string) bool
	}{
		{"empty falls back", "", func(s string) bool { return s == "Image generation" }},
		{"whitespace falls back", "  \n  ", func(s string) bool { return s == "Image generation" }},
		{"short kept verbatim", "a fox", func(s string) bool { return s == "a fox" }},
		{"newlines flattened", "a fox\nin snow", func(s string) bool { return s == "a fox in snow" }},
		{"long truncated", strings.Repeat("wide ", 20), func(s string) bool {
			return strings.HasSuffix(s, "...") && len([]rune(s)) <= TitleWidth
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.prompt); !tt.check(got) {
				t.Errorf("DeriveTitle(%q) = %q", tt.prompt, got)
			}
		})
	}
}
