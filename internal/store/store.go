// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store keeps the in-memory conversation list and active selection
// synchronized with the backend. The backend owns identity and message
// indices; every mutation here reconciles against what it confirms.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jeranaias/gemstudio-tui/internal/api"
	"github.com/jeranaias/gemstudio-tui/internal/model"
)

// Backend is the slice of the API client the store depends on.
type Backend interface {
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	CreateConversation(ctx context.Context) (*model.Conversation, error)
	UpdateConversation(ctx context.Context, id string, patch api.ConversationPatch) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	DeleteMessage(ctx context.Context, id string, index int) (*api.DeleteMessageResult, error)
}

// ErrNoActiveConversation is returned by operations that need a selection
// when none exists.
var ErrNoActiveConversation = errors.New("no active conversation")

// ErrNotUserMessage is returned by Retry when the index points at an
// assistant message.
var ErrNotUserMessage = errors.New("only user messages can be retried")

// CommitHook observes conversations after a successful persist. Used for
// the local write-through archive; failures there never affect the store.
type CommitHook func(conv *model.Conversation)

// DeleteHook observes conversation ids after a successful backend delete,
// so mirrors can drop their copy too.
type DeleteHook func(id string)

// =============================================================================
// STORE
// =============================================================================

// Store is the client-side conversation list plus active selection.
type Store struct {
	backend Backend

	conversations []model.Conversation
	activeID      string

	onCommit CommitHook
	onDelete DeleteHook
}

// New creates a store over the given backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// SetCommitHook registers a hook run after each successful persist.
func (s *Store) SetCommitHook(h CommitHook) {
	s.onCommit = h
}

// SetDeleteHook registers a hook run after each successful delete.
func (s *Store) SetDeleteHook(h DeleteHook) {
	s.onDelete = h
}

// =============================================================================
// READ SIDE
// =============================================================================

// Conversations returns the in-memory list, most recent first.
func (s *Store) Conversations() []model.Conversation {
	return s.conversations
}

// ActiveID returns the selected conversation id, or "" in the welcome state.
func (s *Store) ActiveID() string {
	return s.activeID
}

// Active returns the selected conversation, or nil in the welcome state.
func (s *Store) Active() *model.Conversation {
	return s.byID(s.activeID)
}

// byID finds a conversation in the in-memory list.
func (s *Store) byID(id string) *model.Conversation {
	if id == "" {
		return nil
	}
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return &s.conversations[i]
		}
	}
	return nil
}

// =============================================================================
// SYNCHRONIZATION
// =============================================================================

// Refresh replaces the in-memory list with the backend's. The selection is
// kept when it survives, otherwise falls back to the first conversation.
func (s *Store) Refresh(ctx context.Context) error {
	convs, err := s.backend.ListConversations(ctx)
	if err != nil {
		return err
	}
	s.conversations = convs
	if s.byID(s.activeID) == nil {
		s.activeID = ""
		if len(convs) > 0 {
			s.activeID = convs[0].ID
		}
	}
	return nil
}

// Create asks the backend for a fresh conversation, inserts it at the top
// and selects it.
func (s *Store) Create(ctx context.Context) (*model.Conversation, error) {
	conv, err := s.backend.CreateConversation(ctx)
	if err != nil {
		return nil, err
	}
	s.conversations = append([]model.Conversation{*conv}, s.conversations...)
	s.activeID = conv.ID
	return s.byID(conv.ID), nil
}

// Select makes id the active conversation. Unknown ids are a no-op; the
// return reports whether the selection changed, so the caller can clear
// unsent attachments on a real switch.
func (s *Store) Select(id string) bool {
	if s.byID(id) == nil || id == s.activeID {
		return false
	}
	s.activeID = id
	return true
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Rename changes a conversation's title. Blank titles fall back to the
// default placeholder; renaming to the current title is a no-op with zero
// backend calls. On backend failure the local title is left untouched.
func (s *Store) Rename(ctx context.Context, id, title string) error {
	conv := s.byID(id)
	if conv == nil {
		return api.ErrConversationNotFound
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultTitle
	}
	if title == conv.Title {
		return nil
	}

	updated, err := s.backend.UpdateConversation(ctx, id, api.ConversationPatch{Title: &title})
	if err != nil {
		return err
	}
	conv.Title = updated.Title
	conv.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete removes a conversation. Deleting the active one falls back to the
// first remaining conversation, or the welcome state if none remain.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteConversation(ctx, id); err != nil {
		return err
	}

	kept := s.conversations[:0]
	for _, c := range s.conversations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.conversations = kept

	if s.activeID == id {
		s.activeID = ""
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		}
	}

	if s.onDelete != nil {
		s.onDelete(id)
	}
	return nil
}

// DeleteMessage removes one message by index and adopts the backend's
// corrected message list.
func (s *Store) DeleteMessage(ctx context.Context, convID string, index int) error {
	conv := s.byID(convID)
	if conv == nil {
		return api.ErrConversationNotFound
	}

	result, err := s.backend.DeleteMessage(ctx, convID, index)
	if err != nil {
		return err
	}
	if result.Messages != nil {
		conv.Messages = result.Messages
	}
	return nil
}

// DeleteMessageAndReply removes the user message at index together with the
// assistant reply that follows it. The reply is deleted first so the target
// index stays valid, then the conversation is re-fetched: deletion shifts
// indices and their semantics are owned by the backend, never guessed here.
func (s *Store) DeleteMessageAndReply(ctx context.Context, convID string, index int) error {
	conv := s.byID(convID)
	if conv == nil {
		return api.ErrConversationNotFound
	}
	if index < 0 || index >= len(conv.Messages) {
		return api.ErrIndexOutOfRange
	}

	hasReply := index+1 < len(conv.Messages) && !conv.Messages[index+1].IsUser()
	if hasReply {
		if _, err := s.backend.DeleteMessage(ctx, convID, index+1); err != nil {
			return err
		}
	}
	if _, err := s.backend.DeleteMessage(ctx, convID, index); err != nil {
		return err
	}

	fresh, err := s.backend.GetConversation(ctx, convID)
	if err != nil {
		return err
	}
	conv.Messages = fresh.Messages
	conv.UpdatedAt = fresh.UpdatedAt
	return nil
}

// Retry removes the user message at index together with the assistant
// reply that follows it, then returns a copy of the removed message so the
// caller can re-issue the same prompt, files and mode. The deletion and
// re-fetch follow DeleteMessageAndReply.
func (s *Store) Retry(ctx context.Context, convID string, index int) (model.Message, error) {
	conv := s.byID(convID)
	if conv == nil {
		return model.Message{}, api.ErrConversationNotFound
	}
	if index < 0 || index >= len(conv.Messages) {
		return model.Message{}, api.ErrIndexOutOfRange
	}
	msg := conv.Messages[index]
	if !msg.IsUser() {
		return model.Message{}, ErrNotUserMessage
	}

	if err := s.DeleteMessageAndReply(ctx, convID, index); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// AppendAndPersist appends messages to a conversation and persists the full
// list. In an untitled conversation titleHint derives the new title; a
// user-assigned title is never overwritten. The local append is provisional:
// on backend failure it is rolled back and the error returned.
func (s *Store) AppendAndPersist(ctx context.Context, convID string, msgs []model.Message, titleHint string) error {
	conv := s.byID(convID)
	if conv == nil {
		return api.ErrConversationNotFound
	}

	prevLen := len(conv.Messages)
	conv.Messages = append(conv.Messages, msgs...)

	patch := api.ConversationPatch{Messages: &conv.Messages}
	var derived string
	if titleHint != "" && conv.Untitled() {
		derived = model.DeriveTitle(titleHint)
		patch.Title = &derived
	}

	updated, err := s.backend.UpdateConversation(ctx, convID, patch)
	if err != nil {
		conv.Messages = conv.Messages[:prevLen]
		return err
	}

	conv.Messages = updated.Messages
	conv.Title = updated.Title
	conv.UpdatedAt = updated.UpdatedAt

	if s.onCommit != nil {
		s.onCommit(conv)
	}
	return nil
}
