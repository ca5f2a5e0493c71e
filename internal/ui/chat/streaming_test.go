// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the gemstudio TUI.
package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeranaias/gemstudio-tui/internal/api"
)

// =============================================================================
// RENDER GATE TESTS
// =============================================================================

func TestNewRenderGate(t *testing.T) {
	g := NewRenderGate()

	if g == nil {
		t.Fatal("NewRenderGate returned nil")
	}
	if g.batchSize != 15 {
		t.Errorf("Expected default batch size 15, got %d", g.batchSize)
	}
	expectedMinFlush := time.Duration(1000/30) * time.Millisecond
	if g.minFlushMs != expectedMinFlush {
		t.Errorf("Expected minFlushMs %v, got %v", expectedMinFlush, g.minFlushMs)
	}
}

func TestRenderGateEmptyNeverRenders(t *testing.T) {
	g := NewRenderGate()

	if g.ShouldRender() {
		t.Error("Gate with no pending updates should not render")
	}

	// Even after the time threshold passes
	time.Sleep(40 * time.Millisecond)
	if g.ShouldRender() {
		t.Error("Gate with no pending updates should not render, regardless of elapsed time")
	}
}

func TestRenderGateBatchThreshold(t *testing.T) {
	g := NewRenderGate()

	// Mark just under the batch size, inside the time window
	for i := 0; i < g.batchSize-1; i++ {
		g.Mark()
	}
	if g.ShouldRender() {
		t.Error("Should not render below batch size within the time window")
	}

	g.Mark()
	if !g.ShouldRender() {
		t.Error("Should render once the batch size is reached")
	}

	// Gate resets after a render
	if g.ShouldRender() {
		t.Error("Should not render again immediately after a render")
	}
}

func TestRenderGateTimeThreshold(t *testing.T) {
	g := NewRenderGate()

	g.Mark()
	if g.ShouldRender() {
		t.Error("Single update should not render inside the frame interval")
	}

	time.Sleep(40 * time.Millisecond)
	if !g.ShouldRender() {
		t.Error("Single update should render after the frame interval")
	}
}

func TestRenderGateForce(t *testing.T) {
	g := NewRenderGate()

	g.Mark()
	if !g.Force() {
		t.Error("Force with pending updates should report true")
	}
	if g.Force() {
		t.Error("Force with nothing pending should report false")
	}
}

func TestRenderGateReset(t *testing.T) {
	g := NewRenderGate()

	for i := 0; i < 100; i++ {
		g.Mark()
	}
	g.Reset()

	if g.ShouldRender() {
		t.Error("Should not render after reset")
	}
}

func TestRenderGateConcurrency(t *testing.T) {
	g := NewRenderGate()

	// Concurrent marks (simulating frames from the stream goroutine)
	done := make(chan bool)
	go func() {
		for i := 0; i < 200; i++ {
			g.Mark()
			time.Sleep(100 * time.Microsecond)
		}
		done <- true
	}()

	// Concurrent render checks (simulating the tick loop)
	renders := 0
	go func() {
		for i := 0; i < 200; i++ {
			if g.ShouldRender() {
				renders++
			}
			time.Sleep(100 * time.Microsecond)
		}
		done <- true
	}()

	<-done
	<-done

	// Should have no data races (test with -race flag)
	t.Logf("Completed with %d renders", renders)
}

// =============================================================================
// STREAM LISTEN TESTS
// =============================================================================

func TestStreamListenDeliversFrames(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &stream{
		seq:    7,
		events: make(chan streamEvent, frameChanSize),
		cancel: cancel,
	}

	s.events <- streamEvent{frame: &api.Frame{Type: api.FrameText, Text: "hello"}}

	msg := s.listen()()
	fm, ok := msg.(FrameMsg)
	if !ok {
		t.Fatalf("Expected FrameMsg, got %T", msg)
	}
	if fm.Seq != 7 {
		t.Errorf("Expected seq 7, got %d", fm.Seq)
	}
	if fm.Frame.Text != "hello" {
		t.Errorf("Expected frame text 'hello', got %q", fm.Frame.Text)
	}
}

func TestStreamListenReportsClose(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &stream{
		seq:    3,
		events: make(chan streamEvent, frameChanSize),
		cancel: cancel,
	}

	wantErr := errors.New("connection reset")
	s.events <- streamEvent{closed: true, err: wantErr}
	close(s.events)

	msg := s.listen()()
	cm, ok := msg.(StreamClosedMsg)
	if !ok {
		t.Fatalf("Expected StreamClosedMsg, got %T", msg)
	}
	if cm.Seq != 3 {
		t.Errorf("Expected seq 3, got %d", cm.Seq)
	}
	if !errors.Is(cm.Err, wantErr) {
		t.Errorf("Expected close error %v, got %v", wantErr, cm.Err)
	}
}

func TestStreamListenClosedChannel(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &stream{
		seq:    1,
		events: make(chan streamEvent, 1),
		cancel: cancel,
	}
	close(s.events)

	msg := s.listen()()
	cm, ok := msg.(StreamClosedMsg)
	if !ok {
		t.Fatalf("Expected StreamClosedMsg on closed channel, got %T", msg)
	}
	if cm.Err != nil {
		t.Errorf("Expected nil error on bare close, got %v", cm.Err)
	}
}
