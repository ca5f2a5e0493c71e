// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"github.com/jeranaias/gemstudio-tui/internal/model"
)

// =============================================================================
// STREAM FRAMES
// =============================================================================

// FrameType discriminates the event frames the generation endpoints emit.
type FrameType string

const (
	FrameStart         FrameType = "start"
	FrameThinking      FrameType = "thinking"
	FrameThinkingImage FrameType = "thinking_image"
	FrameText          FrameType = "text"
	FrameGrounding     FrameType = "grounding"
	FrameImage         FrameType = "image"
	FrameDone          FrameType = "done"
	FrameError         FrameType = "error"
)

// Frame is one decoded server-sent event from a generation stream. Which
// fields are populated depends on Type; unknown types are dropped by the
// decoder before a Frame is ever built.
type Frame struct {
	Type FrameType `json:"type"`

	// start/done/error status text
	Message string `json:"message,omitempty"`

	// thinking/text delta
	Text string `json:"text,omitempty"`

	// thinking_image/image payload
	Filename string `json:"filename,omitempty"`
	Path     string `json:"path,omitempty"`

	// grounding payload
	Data *model.Grounding `json:"data,omitempty"`

	// done snapshot, used to backfill fields dropped frames left empty
	FullText       string           `json:"full_text,omitempty"`
	Thinking       string           `json:"thinking,omitempty"`
	ThinkingImages []model.ImageRef `json:"thinking_images,omitempty"`
	Grounding      *model.Grounding `json:"grounding,omitempty"`
}

// IsTerminal reports whether the frame ends the stream.
func (f Frame) IsTerminal() bool {
	return f.Type == FrameDone || f.Type == FrameError
}

// FrameCallback is called for each decoded frame, in stream order.
type FrameCallback func(Frame)

// =============================================================================
// REQUEST / RESPONSE PAYLOADS
// =============================================================================

// HistoryEntry is one prior exchange attached to a generation request when
// context memory is enabled.
type HistoryEntry struct {
	Role  string `json:"role"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// HistoryFileRef is the trimmed file reference generation requests carry.
type HistoryFileRef struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// GenerateRequest is the body for all three generation endpoints. Files and
// EditType are only meaningful for the modes that send them.
type GenerateRequest struct {
	Prompt      string           `json:"prompt"`
	AspectRatio string           `json:"aspect_ratio"`
	ImageSize   string           `json:"image_size"`
	IncludeText bool             `json:"include_text"`
	Files       []HistoryFileRef `json:"files,omitempty"`
	EditType    string           `json:"edit_type,omitempty"`
	History     []HistoryEntry   `json:"history,omitempty"`
}

// ConversationPatch is a partial update to a conversation. Nil fields are
// omitted from the request body and left untouched by the backend.
type ConversationPatch struct {
	Title    *string          `json:"title,omitempty"`
	Messages *[]model.Message `json:"messages,omitempty"`
}

// DeleteMessageResult is the backend's response to a message delete. On
// success Messages holds the corrected post-delete list.
type DeleteMessageResult struct {
	Success  bool            `json:"success"`
	Messages []model.Message `json:"messages,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Options lists the generation options the backend accepts.
type Options struct {
	AspectRatios []string `json:"aspect_ratios"`
	ImageSizes   []string `json:"image_sizes"`
	Modes        []string `json:"modes"`
}

// errorBody is the shape of non-2xx JSON error responses.
type errorBody struct {
	Error string `json:"error"`
}
