// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the gemstudio TUI.
//
// This file implements streaming delivery and render pacing. Frames are
// decoded on a goroutine and handed to the Bubble Tea loop through a
// channel; a RenderGate batches the resulting updates so the viewport
// re-renders at a capped frame rate instead of once per frame.
package chat

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemstudio-tui/internal/api"
)

// frameChanSize buffers decoded frames so the decoder never blocks on a
// busy render loop.
const frameChanSize = 64

// streamEvent is what the stream goroutine emits: either a frame or the
// final close (err may be nil).
type streamEvent struct {
	frame  *api.Frame
	err    error
	closed bool
}

// stream owns one in-flight generation: its event channel, cancel func,
// and sequence number for staleness checks.
type stream struct {
	seq    int
	events chan streamEvent
	cancel context.CancelFunc
}

// listen returns a command that waits for the next stream event and
// converts it to a Bubble Tea message.
func (s *stream) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.events
		if !ok || ev.closed {
			return StreamClosedMsg{Seq: s.seq, Err: ev.err}
		}
		return FrameMsg{Seq: s.seq, Frame: *ev.frame}
	}
}

// =============================================================================
// RENDER GATE
// =============================================================================

// RenderGate batches frame updates for efficient rendering. Updates are
// counted and the viewport is re-rendered when either:
// 1. The batch size threshold is reached (e.g., 15 updates)
// 2. Enough time has passed since the last render (e.g., 33ms for 30fps)
//
// Thread-safety: all operations are protected by a mutex since frames
// arrive from a goroutine while rendering happens in the main loop.
type RenderGate struct {
	mu         sync.Mutex
	pending    int
	lastRender time.Time

	batchSize  int
	minFlushMs time.Duration
}

// NewRenderGate creates a render gate with default settings:
// 15 updates per batch, 30fps cap.
func NewRenderGate() *RenderGate {
	const (
		defaultBatchSize = 15
		defaultMaxFPS    = 30
	)
	return &RenderGate{
		batchSize:  defaultBatchSize,
		minFlushMs: time.Duration(1000/defaultMaxFPS) * time.Millisecond,
		lastRender: time.Now(),
	}
}

// Mark records one pending update.
func (g *RenderGate) Mark() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending++
}

// ShouldRender reports whether enough updates or time accumulated to
// justify a re-render, and resets the gate when it returns true.
func (g *RenderGate) ShouldRender() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == 0 {
		return false
	}
	if g.pending < g.batchSize && time.Since(g.lastRender) < g.minFlushMs {
		return false
	}

	g.pending = 0
	g.lastRender = time.Now()
	return true
}

// Force resets the gate and reports whether anything was pending. Use
// when a stream ends to flush the final state.
func (g *RenderGate) Force() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	had := g.pending > 0
	g.pending = 0
	g.lastRender = time.Now()
	return had
}

// Reset clears pending updates without rendering.
func (g *RenderGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = 0
	g.lastRender = time.Now()
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd creates a tea.Cmd that sends StreamTickMsg at 30fps.
// This enables smooth, flicker-free streaming by batching frame updates.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
