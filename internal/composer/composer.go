// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package composer tracks what the next request will carry: the active
// generation mode and the pending file attachments. It validates a send
// before any network call is made.
package composer

import (
	"strings"

	"github.com/jeranaias/gemstudio-tui/internal/model"
)

// ValidationError explains why a send was rejected. No request is issued
// when one is returned.
type ValidationError struct {
	Reason string
	// ModeReverted is set when the rejection also switched the composer
	// back to standard mode (edit mode with no attachments).
	ModeReverted bool
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Reason
}

// =============================================================================
// COMPOSER
// =============================================================================

// Composer holds the upload draft and active mode for the input area.
type Composer struct {
	mode     model.Mode
	editType string
	files    []model.FileRef
}

// New creates a composer in standard mode.
func New() *Composer {
	mode, _ := model.ModeByID(model.ModeStandard)
	return &Composer{
		mode:     mode,
		editType: model.EditTypes[0],
	}
}

// Mode returns the active generation mode.
func (c *Composer) Mode() model.Mode {
	return c.mode
}

// SetMode switches the active mode. Unknown identifiers are a no-op; the
// return reports whether the mode changed.
func (c *Composer) SetMode(id model.ModeID) bool {
	mode, ok := model.ModeByID(id)
	if !ok {
		return false
	}
	c.mode = mode
	return true
}

// EditType returns the selected edit instruction variant.
func (c *Composer) EditType() string {
	return c.editType
}

// SetEditType selects the edit instruction variant; unknown values no-op.
func (c *Composer) SetEditType(t string) bool {
	for _, known := range model.EditTypes {
		if known == t {
			c.editType = t
			return true
		}
	}
	return false
}

// Placeholder returns the input hint for the active mode.
func (c *Composer) Placeholder() string {
	return c.mode.Placeholder
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// Files returns the pending attachments.
func (c *Composer) Files() []model.FileRef {
	return c.files
}

// Attach adds an uploaded file to the draft.
func (c *Composer) Attach(ref model.FileRef) {
	c.files = append(c.files, ref)
}

// RemoveAt drops the attachment at index; out-of-range is a no-op.
func (c *Composer) RemoveAt(i int) {
	if i < 0 || i >= len(c.files) {
		return
	}
	c.files = append(c.files[:i], c.files[i+1:]...)
}

// Clear empties the draft, as on send or conversation switch.
func (c *Composer) Clear() {
	c.files = nil
}

// NeedsFileNudge reports whether the active mode requires an attachment
// and none is present. The UI shows a visual nudge on the attach control.
func (c *Composer) NeedsFileNudge() bool {
	return c.mode.RequiresFiles && len(c.files) == 0
}

// =============================================================================
// PRE-SEND VALIDATION
// =============================================================================

// Validate checks a send in the fixed order: empty send, edit mode without
// files (which also reverts to standard mode), search mode without text.
// A nil return means the request may be issued.
func (c *Composer) Validate(text string) *ValidationError {
	text = strings.TrimSpace(text)

	if text == "" && len(c.files) == 0 {
		return &ValidationError{Reason: "Enter a prompt or attach a file first"}
	}

	if c.mode.ID == model.ModeEdit && len(c.files) == 0 {
		c.SetMode(model.ModeStandard)
		return &ValidationError{
			Reason:       "Edit mode needs an attached image; switched back to standard",
			ModeReverted: true,
		}
	}

	if c.mode.ID == model.ModeSearch && text == "" {
		return &ValidationError{Reason: "Search mode needs a prompt"}
	}

	return nil
}

// TakeFiles returns the attachments for a send and clears the draft in one
// step.
func (c *Composer) TakeFiles() []model.FileRef {
	files := c.files
	c.files = nil
	return files
}
