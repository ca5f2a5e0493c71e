// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the gemstudio TUI.
//
// This file defines all Bubble Tea message types used by the chat
// interface. Messages are organized into the following categories:
//   - Bootstrap: initial load of conversations and server options
//   - Streaming: frame delivery, stream close, render ticks
//   - Conversation: create, select, rename, delete, message deletion
//   - Upload: file attachment results
//   - Commit: persistence of finished exchanges
//   - Config: hot reload
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"time"

	"github.com/jeranaias/gemstudio-tui/internal/api"
	"github.com/jeranaias/gemstudio-tui/internal/config"
	"github.com/jeranaias/gemstudio-tui/internal/model"
)

// =============================================================================
// BOOTSTRAP MESSAGES
// =============================================================================

// BootstrapMsg delivers the initial backend state: the conversation list
// and the server's generation options.
type BootstrapMsg struct {
	Conversations []model.Conversation
	Options       *api.Options
	Err           error
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// FrameMsg delivers one decoded stream frame. Seq identifies the
// generation it belongs to; frames from a stale generation are dropped.
type FrameMsg struct {
	Seq   int
	Frame api.Frame
}

// StreamClosedMsg signals that the stream goroutine has finished, cleanly
// or with a transport error.
type StreamClosedMsg struct {
	Seq int
	Err error
}

// StreamTickMsg is sent at 30fps during streaming to batch frame updates
// into renders. This prevents excessive re-rendering which causes flicker
// and high CPU.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// ConversationsRefreshedMsg reports a sidebar refresh from the backend.
type ConversationsRefreshedMsg struct {
	Err error
}

// ConversationCreatedMsg reports a new conversation, created and selected.
type ConversationCreatedMsg struct {
	ID  string
	Err error
}

// ConversationDeletedMsg reports a conversation deletion.
type ConversationDeletedMsg struct {
	Err error
}

// ConversationRenamedMsg reports a rename round trip.
type ConversationRenamedMsg struct {
	Err error
}

// MessageDeletedMsg reports a message (and reply) deletion round trip.
type MessageDeletedMsg struct {
	Err error
}

// RetryReadyMsg carries the user message removed by a retry, ready to be
// re-sent with its original prompt, files and mode.
type RetryReadyMsg struct {
	Message model.Message
	Err     error
}

// =============================================================================
// UPLOAD MESSAGES
// =============================================================================

// UploadCompleteMsg delivers an uploaded file reference, ready to attach.
type UploadCompleteMsg struct {
	Ref model.FileRef
	Err error
}

// =============================================================================
// COMMIT MESSAGES
// =============================================================================

// CommitDoneMsg reports the persistence of a finished exchange.
type CommitDoneMsg struct {
	Err error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a hot-reloaded configuration.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// ExportDoneMsg reports the result of an export command.
type ExportDoneMsg struct {
	Path string
	Err  error
}
