// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/jeranaias/gemstudio-tui/internal/util"
)

// DefaultTitle is the title the backend assigns to a fresh conversation and
// the placeholder a blank rename falls back to.
const DefaultTitle = "New chat"

// TitleWidth is the maximum display width of an auto-derived title.
const TitleWidth = 24

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an ordered message history with identity and metadata.
// The backend owns the canonical copy; this is the client-side mirror.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Untitled reports whether the conversation still carries a default title,
// meaning the next prompt may auto-derive one.
func (c *Conversation) Untitled() bool {
	return c.Title == "" || c.Title == DefaultTitle
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// Preview returns the first user prompt, truncated for list display.
func (c *Conversation) Preview(width int) string {
	for _, m := range c.Messages {
		if m.IsUser() && m.Text != "" {
			return util.TruncateWidth(util.CollapseLine(m.Text), width)
		}
	}
	return ""
}

// DeriveTitle builds a conversation title from a prompt: normalized,
// flattened to one line, truncated to TitleWidth display cells with an
// ellipsis. Empty prompts fall back to a generic label.
func DeriveTitle(prompt string) string {
	prompt = util.CollapseLine(prompt)
	if prompt == "" {
		return "Image generation"
	}
	return util.TruncateWidth(prompt, TitleWidth)
}
