// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Studio"
	default:
		return string(r)
	}
}

// =============================================================================
// FILE AND IMAGE REFERENCES
// =============================================================================

// FileRef identifies a file the backend has stored. Path is the
// server-resolved address and is immutable once assigned.
type FileRef struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	Path         string `json:"path,omitempty"`
}

// IsImage reports whether the file is an image by MIME type.
func (f FileRef) IsImage() bool {
	return len(f.MimeType) > 6 && f.MimeType[:6] == "image/"
}

// ImageRef identifies a generated image on the server.
type ImageRef struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// =============================================================================
// GROUNDING
// =============================================================================

// Source is one search-derived citation.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Grounding holds search citations attached to a generated response.
// The backend always sends it complete, never incrementally.
type Grounding struct {
	SearchQueries []string `json:"search_queries"`
	Sources       []Source `json:"sources"`
}

// IsEmpty reports whether the grounding carries no data.
func (g *Grounding) IsEmpty() bool {
	return g == nil || (len(g.SearchQueries) == 0 && len(g.Sources) == 0)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one entry in a conversation. The role discriminates which
// fields are meaningful: user messages carry Text/Mode/Files, assistant
// messages carry Text/Thinking/ThinkingImages/Image/Grounding/Error.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text,omitempty"`

	// User fields
	Mode  string    `json:"mode,omitempty"`
	Files []FileRef `json:"files,omitempty"`

	// Assistant fields
	Thinking       string     `json:"thinking,omitempty"`
	ThinkingImages []ImageRef `json:"thinking_images,omitempty"`
	Image          string     `json:"image,omitempty"`
	Grounding      *Grounding `json:"grounding,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// NewUserMessage creates a user message for the given prompt, mode and
// attachments.
func NewUserMessage(text, mode string, files []FileRef) Message {
	if files == nil {
		files = []FileRef{}
	}
	return Message{
		Role:  RoleUser,
		Text:  text,
		Mode:  mode,
		Files: files,
	}
}

// IsUser reports whether the message was sent by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// Failed reports whether an assistant message carries an error.
func (m Message) Failed() bool {
	return m.Error != ""
}
