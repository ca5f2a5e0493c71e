// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assembler folds generation stream frames into a draft assistant
// message. It is the state machine between the frame decoder and the
// conversation store, and has no knowledge of any UI.
package assembler

import (
	"strings"

	"github.com/jeranaias/gemstudio-tui/internal/api"
	"github.com/jeranaias/gemstudio-tui/internal/model"
)

// =============================================================================
// STATES
// =============================================================================

// State tracks the assembler through one stream's lifetime.
type State int

const (
	// StateIdle means no stream is attached yet.
	StateIdle State = iota
	// StateAwaitingFirstFrame means the request is out, nothing received.
	StateAwaitingFirstFrame
	// StateStreaming means at least one frame has been applied.
	StateStreaming
	// StateErrored means an error frame or transport failure was recorded.
	StateErrored
	// StateFinalizing means the stream ended and the draft is being sealed.
	StateFinalizing
	// StateCommitted means the finished message has been handed off.
	StateCommitted
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstFrame:
		return "awaiting"
	case StateStreaming:
		return "streaming"
	case StateErrored:
		return "errored"
	case StateFinalizing:
		return "finalizing"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// =============================================================================
// CHANGE REPORTS
// =============================================================================

// Change describes what a frame did to the draft, so a renderer can update
// just the affected region.
type Change int

const (
	ChangeNone Change = iota
	ChangeStatus
	ChangeThinking
	ChangeThinkingImage
	ChangeText
	ChangeGrounding
	ChangeImage
	ChangeDone
	ChangeError
)

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler accumulates one assistant message from a frame stream.
// Accumulating fields (text, thinking) only ever append; grounding is
// replaced wholesale; the image slot is last-write-wins.
type Assembler struct {
	state State

	// PERFORMANCE: strings.Builder avoids quadratic append cost.
	text     strings.Builder
	thinking strings.Builder

	thinkingImages []model.ImageRef
	image          string
	grounding      *model.Grounding
	errText        string

	// status is the transient progress label from the latest frame.
	status string
}

// New creates an assembler ready to receive a stream.
func New() *Assembler {
	return &Assembler{state: StateIdle}
}

// Begin marks the request as sent. Frames may now arrive.
func (a *Assembler) Begin() {
	if a.state == StateIdle {
		a.state = StateAwaitingFirstFrame
		a.status = "Connecting..."
	}
}

// State returns the current lifecycle state.
func (a *Assembler) State() State {
	return a.state
}

// Status returns the transient progress label for display.
func (a *Assembler) Status() string {
	return a.status
}

// Apply folds one frame into the draft and reports what changed. Frames
// arriving after the stream has been sealed are ignored.
func (a *Assembler) Apply(f api.Frame) Change {
	switch a.state {
	case StateAwaitingFirstFrame:
		a.state = StateStreaming
	case StateStreaming, StateErrored:
	default:
		return ChangeNone
	}

	switch f.Type {
	case api.FrameStart:
		// Status label only; no message mutation.
		if f.Message != "" {
			a.status = f.Message
		}
		return ChangeStatus

	case api.FrameThinking:
		a.thinking.WriteString(f.Text)
		a.status = "Reasoning..."
		return ChangeThinking

	case api.FrameThinkingImage:
		a.thinkingImages = append(a.thinkingImages, model.ImageRef{
			Filename: f.Filename,
			Path:     f.Path,
		})
		return ChangeThinkingImage

	case api.FrameText:
		a.text.WriteString(f.Text)
		a.status = "Writing..."
		return ChangeText

	case api.FrameGrounding:
		// The backend sends grounding complete, so replace wholesale.
		a.grounding = f.Data
		a.status = "Collecting sources..."
		return ChangeGrounding

	case api.FrameImage:
		// At most one image expected; last write wins if the backend
		// sends more.
		a.image = f.Path
		a.status = "Image ready"
		return ChangeImage

	case api.FrameDone:
		a.reconcile(f)
		if f.Message != "" {
			a.status = f.Message
		}
		return ChangeDone

	case api.FrameError:
		// Keep everything accumulated so far; only mark the failure.
		a.errText = f.Message
		a.state = StateErrored
		return ChangeError
	}

	return ChangeNone
}

// reconcile backfills fields from the done frame's full-state snapshot.
// Only fields the incremental frames left empty are adopted, so locally
// accumulated content always wins over the snapshot.
func (a *Assembler) reconcile(f api.Frame) {
	if a.text.Len() == 0 && f.FullText != "" {
		a.text.WriteString(f.FullText)
	}
	if a.thinking.Len() == 0 && f.Thinking != "" {
		a.thinking.WriteString(f.Thinking)
	}
	if len(f.ThinkingImages) > 0 {
		a.thinkingImages = f.ThinkingImages
	}
	if f.Grounding != nil && a.grounding.IsEmpty() {
		a.grounding = f.Grounding
	}
}

// Fail records a transport failure. Accumulated content is preserved; the
// draft is marked failed with the error's description.
func (a *Assembler) Fail(err error) {
	if a.state == StateCommitted {
		return
	}
	if err != nil {
		a.errText = err.Error()
	}
	a.state = StateErrored
}

// Failed reports whether the draft carries an error.
func (a *Assembler) Failed() bool {
	return a.errText != ""
}

// Snapshot returns the draft as it stands, for incremental rendering.
func (a *Assembler) Snapshot() model.Message {
	return a.buildMessage()
}

// Finalize seals the draft and returns the immutable assistant message.
// Called when the decoder is exhausted, regardless of the last frame type.
// After Finalize the assembler ignores further frames.
func (a *Assembler) Finalize() model.Message {
	if a.state != StateErrored {
		a.state = StateFinalizing
	}
	msg := a.buildMessage()
	a.state = StateCommitted
	return msg
}

// buildMessage materializes the current accumulator state.
func (a *Assembler) buildMessage() model.Message {
	var imgs []model.ImageRef
	if len(a.thinkingImages) > 0 {
		imgs = append(imgs, a.thinkingImages...)
	}
	var grounding *model.Grounding
	if !a.grounding.IsEmpty() {
		grounding = a.grounding
	}
	return model.Message{
		Role:           model.RoleAssistant,
		Text:           a.text.String(),
		Thinking:       a.thinking.String(),
		ThinkingImages: imgs,
		Image:          a.image,
		Grounding:      grounding,
		Error:          a.errText,
	}
}
