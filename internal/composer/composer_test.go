// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"testing"

	"github.com/jeranaias/gemstudio-tui/internal/model"
)

func TestNewDefaultsToStandard(t *testing.T) {
	c := New()
	if c.Mode().ID != model.ModeStandard {
		t.Errorf("default mode = %q, want %q", c.Mode().ID, model.ModeStandard)
	}
	if c.NeedsFileNudge() {
		t.Error("standard mode should not nudge for files")
	}
}

func TestSetModeUnknownIsNoOp(t *testing.T) {
	c := New()
	if c.SetMode("remix") {
		t.Error("unknown mode switch should return false")
	}
	if c.Mode().ID != model.ModeStandard {
		t.Errorf("mode changed to %q after unknown switch", c.Mode().ID)
	}
}

func TestSetModeUpdatesPlaceholder(t *testing.T) {
	c := New()
	standard := c.Placeholder()

	if !c.SetMode(model.ModeSearch) {
		t.Fatal("switch to search failed")
	}
	if c.Placeholder() == standard {
		t.Error("placeholder did not change on mode switch")
	}
}

func TestNeedsFileNudge(t *testing.T) {
	c := New()
	c.SetMode(model.ModeEdit)
	if !c.NeedsFileNudge() {
		t.Error("edit mode with no files should nudge")
	}

	c.Attach(model.FileRef{Filename: "a.png", MimeType: "image/png"})
	if c.NeedsFileNudge() {
		t.Error("nudge should clear once a file is attached")
	}

	// Removal re-evaluates the nudge.
	c.RemoveAt(0)
	if !c.NeedsFileNudge() {
		t.Error("nudge should return after last attachment removed")
	}
}

func TestRemoveAtOutOfRange(t *testing.T) {
	c := New()
	c.Attach(model.FileRef{Filename: "a.png"})
	c.RemoveAt(-1)
	c.RemoveAt(5)
	if len(c.Files()) != 1 {
		t.Errorf("len(files) = %d, want 1", len(c.Files()))
	}
}

func TestSetEditType(t *testing.T) {
	c := New()
	if c.EditType() != "general" {
		t.Errorf("default edit type = %q, want general", c.EditType())
	}
	if !c.SetEditType("translate") {
		t.Error("known edit type rejected")
	}
	if c.SetEditType("sharpen") {
		t.Error("unknown edit type accepted")
	}
	if c.EditType() != "translate" {
		t.Errorf("edit type = %q, want translate", c.EditType())
	}
}

func TestValidateEmptySend(t *testing.T) {
	c := New()
	err := c.Validate("   ")
	if err == nil {
		t.Fatal("empty send should be rejected")
	}
	if err.ModeReverted {
		t.Error("empty send should not revert the mode")
	}
}

func TestValidateEmptySendWithFileAllowed(t *testing.T) {
	c := New()
	c.Attach(model.FileRef{Filename: "a.png"})
	if err := c.Validate(""); err != nil {
		t.Errorf("send with file but no text rejected: %v", err)
	}
}

func TestValidateEditWithoutFilesReverts(t *testing.T) {
	c := New()
	c.SetMode(model.ModeEdit)

	err := c.Validate("make it blue")
	if err == nil {
		t.Fatal("edit without files should be rejected")
	}
	if !err.ModeReverted {
		t.Error("rejection should report the mode revert")
	}
	if c.Mode().ID != model.ModeStandard {
		t.Errorf("mode = %q after revert, want standard", c.Mode().ID)
	}
}

func TestValidateEditWithFilesPasses(t *testing.T) {
	c := New()
	c.SetMode(model.ModeEdit)
	c.Attach(model.FileRef{Filename: "a.png"})
	if err := c.Validate("make it blue"); err != nil {
		t.Errorf("edit with file rejected: %v", err)
	}
}

func TestValidateSearchNeedsText(t *testing.T) {
	c := New()
	c.SetMode(model.ModeSearch)
	c.Attach(model.FileRef{Filename: "a.png"})

	err := c.Validate("")
	if err == nil {
		t.Fatal("search without text should be rejected")
	}
	if err.ModeReverted {
		t.Error("search rejection should not revert the mode")
	}
	if c.Mode().ID != model.ModeSearch {
		t.Errorf("mode = %q, want search", c.Mode().ID)
	}
}

func TestValidateOrderEmptyBeforeEdit(t *testing.T) {
	// A fully empty send in edit mode reports the empty-send error and
	// leaves the mode alone.
	c := New()
	c.SetMode(model.ModeEdit)

	err := c.Validate("")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if err.ModeReverted {
		t.Error("empty send must win over edit-needs-files")
	}
	if c.Mode().ID != model.ModeEdit {
		t.Errorf("mode = %q, want edit preserved", c.Mode().ID)
	}
}

func TestTakeFilesClearsDraft(t *testing.T) {
	c := New()
	c.Attach(model.FileRef{Filename: "a.png"})
	c.Attach(model.FileRef{Filename: "b.png"})

	files := c.TakeFiles()
	if len(files) != 2 {
		t.Errorf("took %d files, want 2", len(files))
	}
	if len(c.Files()) != 0 {
		t.Errorf("draft not cleared, %d left", len(c.Files()))
	}
}
