// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the gemstudio TUI.
//
// This file holds the tea.Cmd constructors that talk to the backend.
// Every command returns exactly one message; the update loop decides
// what happens next.
package chat

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemstudio-tui/internal/api"
	"github.com/jeranaias/gemstudio-tui/internal/assembler"
	"github.com/jeranaias/gemstudio-tui/internal/export"
	"github.com/jeranaias/gemstudio-tui/internal/model"
)

// requestTimeout returns the configured timeout for plain API calls.
func (m *Model) requestTimeout() time.Duration {
	return time.Duration(m.cfg.Server.RequestTimeoutSecs) * time.Second
}

// uploadTimeout returns the configured timeout for file uploads.
func (m *Model) uploadTimeout() time.Duration {
	return time.Duration(m.cfg.Server.UploadTimeoutSecs) * time.Second
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

// bootstrapCmd loads the conversation list and the server's generation
// options in one round trip pair. Options failing is not fatal; the
// session falls back to the configured defaults.
func (m *Model) bootstrapCmd() tea.Cmd {
	st, client, timeout := m.store, m.client, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := st.Refresh(ctx); err != nil {
			return BootstrapMsg{Err: err}
		}
		opts, _ := client.FetchOptions(ctx)
		return BootstrapMsg{Conversations: st.Conversations(), Options: opts}
	}
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

func (m *Model) refreshCmd() tea.Cmd {
	st, timeout := m.store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ConversationsRefreshedMsg{Err: st.Refresh(ctx)}
	}
}

func (m *Model) createConversationCmd() tea.Cmd {
	st, timeout := m.store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		conv, err := st.Create(ctx)
		if err != nil {
			return ConversationCreatedMsg{Err: err}
		}
		return ConversationCreatedMsg{ID: conv.ID}
	}
}

func (m *Model) renameConversationCmd(id, title string) tea.Cmd {
	st, timeout := m.store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ConversationRenamedMsg{Err: st.Rename(ctx, id, title)}
	}
}

func (m *Model) deleteConversationCmd(id string) tea.Cmd {
	st, timeout := m.store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ConversationDeletedMsg{Err: st.Delete(ctx, id)}
	}
}

func (m *Model) deleteMessageCmd(convID string, index int) tea.Cmd {
	st, timeout := m.store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return MessageDeletedMsg{Err: st.DeleteMessageAndReply(ctx, convID, index)}
	}
}

// retryCmd removes an exchange from the backend and reports the original
// user message back so the update loop can re-send it.
func (m *Model) retryCmd(convID string, index int) tea.Cmd {
	st, timeout := m.store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		msg, err := st.Retry(ctx, convID, index)
		return RetryReadyMsg{Message: msg, Err: err}
	}
}

// =============================================================================
// UPLOAD
// =============================================================================

func (m *Model) uploadCmd(localPath string) tea.Cmd {
	client, timeout := m.client, m.uploadTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ref, err := client.Upload(ctx, localPath)
		return UploadCompleteMsg{Ref: ref, Err: err}
	}
}

// =============================================================================
// GENERATION
// =============================================================================

// buildRequest assembles the generation request from the prompt, the
// composer's draft and the session settings.
func (m *Model) buildRequest(prompt string, files []model.FileRef) api.GenerateRequest {
	mode := m.composer.Mode()

	req := api.GenerateRequest{
		Prompt:      prompt,
		AspectRatio: m.aspectRatio,
		ImageSize:   m.imageSize,
		IncludeText: m.includeText,
	}
	if mode.ID == model.ModeEdit {
		req.EditType = m.composer.EditType()
	}
	if mode.SendsFiles {
		for _, f := range files {
			req.Files = append(req.Files, api.HistoryFileRef{
				Filename: f.Filename,
				MimeType: f.MimeType,
			})
		}
	}
	if m.contextMemory {
		if conv := m.store.Active(); conv != nil {
			req.History = api.BuildHistory(conv.Messages)
		}
	}
	return req
}

// startStream launches a generation on a goroutine and installs the
// in-flight stream on the model. Frames arrive through the stream's
// channel; the returned command set starts listening and ticking.
func (m *Model) startStream(req api.GenerateRequest) tea.Cmd {
	m.nextSeq++
	ctx, cancel := context.WithCancel(context.Background())
	s := &stream{
		seq:    m.nextSeq,
		events: make(chan streamEvent, frameChanSize),
		cancel: cancel,
	}
	m.current = s
	m.generating = true
	// Assemblers are single-use; each generation gets a fresh one.
	m.asm = assembler.New()
	m.asm.Begin()
	m.gate.Reset()

	mode := m.composer.Mode()
	client := m.client
	go func() {
		err := client.Generate(ctx, mode, req, func(f api.Frame) {
			s.events <- streamEvent{frame: &f}
		})
		s.events <- streamEvent{closed: true, err: err}
		close(s.events)
	}()

	return tea.Batch(s.listen(), streamTickCmd(), m.spinner.Tick)
}

// =============================================================================
// COMMIT
// =============================================================================

// commitCmd persists a finished exchange to the backend. The commit hook
// on the store mirrors to the archive as a side effect.
func (m *Model) commitCmd(convID string, msgs []model.Message, titleHint string) tea.Cmd {
	st, timeout := m.store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return CommitDoneMsg{Err: st.AppendAndPersist(ctx, convID, msgs, titleHint)}
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func (m *Model) exportCmd(format string) tea.Cmd {
	conv := m.store.Active()
	opts := export.DefaultOptions()
	opts.BaseURL = m.client.BaseURL()
	opts.IncludeThinking = m.showThinking
	opts.Theme = m.cfg.UI.Theme
	return func() tea.Msg {
		exporter := export.ByFormat(format, opts)
		if exporter == nil {
			return ExportDoneMsg{Err: fmt.Errorf("unknown export format %q", format)}
		}
		path, err := export.ExportToFile(conv, exporter, opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}
