// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"testing"

	"github.com/jeranaias/gemstudio-tui/internal/api"
	"github.com/jeranaias/gemstudio-tui/internal/composer"
	"github.com/jeranaias/gemstudio-tui/internal/config"
	"github.com/jeranaias/gemstudio-tui/internal/model"
	"github.com/jeranaias/gemstudio-tui/internal/store"
	"github.com/jeranaias/gemstudio-tui/internal/ui/components"
)

// stubBackend is a minimal in-memory store.Backend for update-loop tests.
type stubBackend struct {
	convs       map[string]*model.Conversation
	order       []string
	deleteCalls []int
}

func newStubBackend() *stubBackend {
	return &stubBackend{convs: map[string]*model.Conversation{}}
}

func (f *stubBackend) seed(id, title string, msgs ...model.Message) {
	f.convs[id] = &model.Conversation{ID: id, Title: title, Messages: msgs}
	f.order = append(f.order, id)
}

func (f *stubBackend) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, id := range f.order {
		out = append(out, *f.convs[id])
	}
	return out, nil
}

func (f *stubBackend) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	conv, ok := f.convs[id]
	if !ok {
		return nil, api.ErrConversationNotFound
	}
	cp := *conv
	return &cp, nil
}

func (f *stubBackend) CreateConversation(ctx context.Context) (*model.Conversation, error) {
	return nil, api.ErrConversationNotFound
}

func (f *stubBackend) UpdateConversation(ctx context.Context, id string, patch api.ConversationPatch) (*model.Conversation, error) {
	return f.GetConversation(ctx, id)
}

func (f *stubBackend) DeleteConversation(ctx context.Context, id string) error {
	delete(f.convs, id)
	return nil
}

func (f *stubBackend) DeleteMessage(ctx context.Context, id string, index int) (*api.DeleteMessageResult, error) {
	f.deleteCalls = append(f.deleteCalls, index)
	conv, ok := f.convs[id]
	if !ok {
		return nil, api.ErrConversationNotFound
	}
	if index < 0 || index >= len(conv.Messages) {
		return nil, api.ErrIndexOutOfRange
	}
	conv.Messages = append(conv.Messages[:index], conv.Messages[index+1:]...)
	return &api.DeleteMessageResult{Success: true, Messages: append([]model.Message{}, conv.Messages...)}, nil
}

// testModel builds a chat model over the stub backend without starting the
// program loop. The viewport stays unready so renders are skipped.
func testModel(t *testing.T, fb *stubBackend) Model {
	t.Helper()
	st := store.New(fb)
	if err := st.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return Model{
		cfg:      config.Default(),
		store:    st,
		composer: composer.New(),
		toasts:   components.NewToastManager(),
		gate:     NewRenderGate(),
	}
}

func TestSwitchingConversationsDiscardsDraft(t *testing.T) {
	fb := newStubBackend()
	fb.seed("a", "First")
	fb.seed("b", "Second")
	m := testModel(t, fb)

	m.composer.Attach(model.FileRef{Filename: "u1.png", OriginalName: "ref.png"})
	m.selectAdjacent(1)

	if got := m.store.ActiveID(); got != "b" {
		t.Fatalf("active = %q, want b", got)
	}
	if files := m.composer.Files(); len(files) != 0 {
		t.Errorf("draft survived the switch: %d file(s) still staged", len(files))
	}
}

func TestSelectSameConversationKeepsDraft(t *testing.T) {
	fb := newStubBackend()
	fb.seed("only", "Solo")
	m := testModel(t, fb)

	m.composer.Attach(model.FileRef{Filename: "u1.png"})
	// One conversation: adjacent selection wraps back onto itself.
	m.selectAdjacent(1)

	if files := m.composer.Files(); len(files) != 1 {
		t.Errorf("draft dropped without a real switch: %d file(s)", len(files))
	}
}

func TestRetryCommandResendsLastUserMessage(t *testing.T) {
	fb := newStubBackend()
	fb.seed("a", "Chat",
		model.NewUserMessage("first", "standard", nil),
		model.Message{Role: model.RoleAssistant, Text: "ok"},
		model.NewUserMessage("redo this", "standard", nil),
		model.Message{Role: model.RoleAssistant, Text: "bad"},
	)
	m := testModel(t, fb)

	_, cmd := m.handleCommand("/retry")
	if cmd == nil {
		t.Fatal("/retry produced no command")
	}

	raw := cmd()
	msg, ok := raw.(RetryReadyMsg)
	if !ok {
		t.Fatalf("expected RetryReadyMsg, got %T", raw)
	}
	if msg.Err != nil {
		t.Fatalf("retry: %v", msg.Err)
	}
	if msg.Message.Text != "redo this" {
		t.Errorf("retried %q, want the last user message", msg.Message.Text)
	}
	// Reply removed before its user message.
	if len(fb.deleteCalls) != 2 || fb.deleteCalls[0] != 3 || fb.deleteCalls[1] != 2 {
		t.Errorf("delete order = %v, want [3 2]", fb.deleteCalls)
	}
}

func TestRetryWithoutUserMessages(t *testing.T) {
	fb := newStubBackend()
	fb.seed("a", "Chat")
	m := testModel(t, fb)

	_, cmd := m.handleCommand("/retry")
	if cmd != nil {
		t.Error("empty conversation should not start a retry")
	}
}

func TestEditLastAttachesGeneratedImage(t *testing.T) {
	fb := newStubBackend()
	fb.seed("a", "Chat",
		model.NewUserMessage("a sunset", "standard", nil),
		model.Message{Role: model.RoleAssistant, Image: "/generated/old.png"},
		model.NewUserMessage("brighter", "standard", nil),
		model.Message{Role: model.RoleAssistant, Image: "/generated/new.png"},
	)
	m := testModel(t, fb)

	m.handleCommand("/edit-last")

	if got := m.composer.Mode().ID; got != model.ModeEdit {
		t.Errorf("mode = %q, want edit", got)
	}
	files := m.composer.Files()
	if len(files) != 1 {
		t.Fatalf("attached %d file(s), want 1", len(files))
	}
	if files[0].Path != "/generated/new.png" || files[0].Filename != "new.png" {
		t.Errorf("attached %+v, want the most recent generated image", files[0])
	}
}

func TestEditLastWithoutImage(t *testing.T) {
	fb := newStubBackend()
	fb.seed("a", "Chat", model.NewUserMessage("hello", "standard", nil))
	m := testModel(t, fb)

	m.handleCommand("/edit-last")

	if len(m.composer.Files()) != 0 {
		t.Error("nothing should be attached when no image exists")
	}
	if m.composer.Mode().ID == model.ModeEdit {
		t.Error("mode should not switch when no image exists")
	}
}
