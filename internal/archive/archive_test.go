// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/gemstudio-tui/internal/model"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func sampleConversation(id string) *model.Conversation {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Conversation{
		ID:        id,
		Title:     "Sunset studies",
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now,
		Messages: []model.Message{
			{Role: model.RoleUser, Text: "paint a sunset over the harbor"},
			{
				Role:     model.RoleAssistant,
				Text:     "Here is your harbor sunset.",
				Thinking: "warm palette, low horizon",
				Image:    "/generated/out.png",
			},
		},
	}
}

func TestMirrorAndGet(t *testing.T) {
	a := openTestArchive(t)

	conv := sampleConversation("c1")
	if err := a.Mirror(conv); err != nil {
		t.Fatalf("mirror: %v", err)
	}

	got, err := a.Get("c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != conv.Title {
		t.Errorf("title = %q, want %q", got.Title, conv.Title)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(got.Messages))
	}
	reply := got.Messages[1]
	if reply.Thinking != "warm palette, low horizon" {
		t.Errorf("thinking lost: %q", reply.Thinking)
	}
	if reply.Image != "/generated/out.png" {
		t.Errorf("image path lost: %q", reply.Image)
	}
}

func TestMirrorReplacesMessages(t *testing.T) {
	a := openTestArchive(t)

	conv := sampleConversation("c1")
	if err := a.Mirror(conv); err != nil {
		t.Fatal(err)
	}

	// Simulate a delete-and-reply: the conversation shrinks.
	conv.Messages = conv.Messages[:0]
	if err := a.Mirror(conv); err != nil {
		t.Fatal(err)
	}

	got, err := a.Get("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 0 {
		t.Errorf("stale messages survived re-mirror: %d", len(got.Messages))
	}
}

func TestMirrorNilAndEmptyIDNoOp(t *testing.T) {
	a := openTestArchive(t)
	if err := a.Mirror(nil); err != nil {
		t.Errorf("nil conversation: %v", err)
	}
	if err := a.Mirror(&model.Conversation{}); err != nil {
		t.Errorf("empty id: %v", err)
	}
	list, err := a.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("no-op mirrors created %d rows", len(list))
	}
}

func TestGetMissing(t *testing.T) {
	a := openTestArchive(t)
	if _, err := a.Get("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListOrder(t *testing.T) {
	a := openTestArchive(t)

	older := sampleConversation("old")
	older.UpdatedAt = time.Now().Add(-2 * time.Hour)
	newer := sampleConversation("new")

	if err := a.Mirror(older); err != nil {
		t.Fatal(err)
	}
	if err := a.Mirror(newer); err != nil {
		t.Fatal(err)
	}

	list, err := a.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].ID != "new" {
		t.Errorf("list[0] = %q, want most recently updated first", list[0].ID)
	}
	if list[0].MessageCount != 2 {
		t.Errorf("message count = %d, want 2", list[0].MessageCount)
	}
}

func TestForget(t *testing.T) {
	a := openTestArchive(t)
	if err := a.Mirror(sampleConversation("c1")); err != nil {
		t.Fatal(err)
	}
	if err := a.Forget("c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Get("c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("conversation survived forget: %v", err)
	}
	// Forgetting twice is fine.
	if err := a.Forget("c1"); err != nil {
		t.Errorf("second forget: %v", err)
	}
}

func TestSearch(t *testing.T) {
	a := openTestArchive(t)
	if err := a.Mirror(sampleConversation("c1")); err != nil {
		t.Fatal(err)
	}

	hits, err := a.Search("HARBOR")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2 (case-insensitive)", len(hits))
	}
	if hits[0].ConversationID != "c1" {
		t.Errorf("hit conversation = %q", hits[0].ConversationID)
	}

	hits, err = a.Search("")
	if err != nil {
		t.Fatal(err)
	}
	if hits != nil {
		t.Error("blank query should return nothing")
	}

	// LIKE metacharacters are literals in queries.
	hits, err = a.Search("100%")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("wildcard leak: %d hits", len(hits))
	}
}
