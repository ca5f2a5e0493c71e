// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"strings"
	"testing"
)

// =============================================================================
// SSE READER TESTS
// =============================================================================

func TestSSEReaderSingleEvent(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: {\"type\":\"text\"}\n\n"))

	data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != `{"type":"text"}` {
		t.Errorf("Unexpected payload: %s", data)
	}

	if _, err := r.ReadEvent(); err != io.EOF {
		t.Errorf("Expected io.EOF after last event, got %v", err)
	}
}

func TestSSEReaderMultipleEvents(t *testing.T) {
	body := "data: one\n\ndata: two\n\ndata: three\n\n"
	r := NewSSEReader(strings.NewReader(body))

	var got []string
	for {
		data, err := r.ReadEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadEvent failed: %v", err)
		}
		got = append(got, string(data))
	}
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSSEReaderMultilineData(t *testing.T) {
	// Multiple data: lines in one unit join with newlines.
	body := "data: line1\ndata: line2\n\n"
	r := NewSSEReader(strings.NewReader(body))

	data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "line1\nline2" {
		t.Errorf("Expected joined lines, got %q", data)
	}
}

func TestSSEReaderIgnoresNonDataFields(t *testing.T) {
	body := ": comment\nid: 42\nretry: 1000\ndata: payload\n\n"
	r := NewSSEReader(strings.NewReader(body))

	data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Expected 'payload', got %q", data)
	}
}

func TestSSEReaderCRLFLines(t *testing.T) {
	body := "data: payload\r\n\r\n"
	r := NewSSEReader(strings.NewReader(body))

	data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Expected 'payload', got %q", data)
	}
}

func TestSSEReaderTruncatedFinalUnit(t *testing.T) {
	// Body ends mid-unit with no trailing blank line or newline.
	body := "data: {\"type\":\"done\"}"
	r := NewSSEReader(strings.NewReader(body))

	data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent should keep the truncated unit, got error: %v", err)
	}
	if string(data) != `{"type":"done"}` {
		t.Errorf("Unexpected payload: %s", data)
	}
}

func TestSSEReaderEmptyBody(t *testing.T) {
	r := NewSSEReader(strings.NewReader(""))
	if _, err := r.ReadEvent(); err != io.EOF {
		t.Errorf("Expected io.EOF on empty body, got %v", err)
	}
}

// =============================================================================
// FRAME DECODING TESTS
// =============================================================================

func collectFrames(t *testing.T, body string) ([]Frame, error) {
	t.Helper()
	var frames []Frame
	err := decodeFrames(context.Background(), strings.NewReader(body), func(f Frame) {
		frames = append(frames, f)
	})
	return frames, err
}

func TestDecodeFramesFullStream(t *testing.T) {
	body := strings.Join([]string{
		`data: {"type":"start","message":"Generating..."}`,
		"",
		`data: {"type":"thinking","text":"hmm"}`,
		"",
		`data: {"type":"text","text":"Here you go."}`,
		"",
		`data: {"type":"image","path":"/generated/x.png","filename":"x.png"}`,
		"",
		`data: {"type":"done","message":"Complete"}`,
		"",
	}, "\n")

	frames, err := collectFrames(t, body)
	if err != nil {
		t.Fatalf("decodeFrames failed: %v", err)
	}
	if len(frames) != 5 {
		t.Fatalf("Expected 5 frames, got %d", len(frames))
	}
	if frames[0].Type != FrameStart || frames[4].Type != FrameDone {
		t.Errorf("Unexpected frame order: first=%s last=%s", frames[0].Type, frames[4].Type)
	}
}

func TestDecodeFramesStopsAtTerminal(t *testing.T) {
	body := strings.Join([]string{
		`data: {"type":"done"}`,
		"",
		`data: {"type":"text","text":"after the end"}`,
		"",
	}, "\n")

	frames, err := collectFrames(t, body)
	if err != nil {
		t.Fatalf("decodeFrames failed: %v", err)
	}
	if len(frames) != 1 {
		t.Errorf("Expected decoding to stop at the terminal frame, got %d frames", len(frames))
	}
}

func TestDecodeFramesSkipsMalformedUnit(t *testing.T) {
	body := strings.Join([]string{
		`data: {not json`,
		"",
		`data: {"type":"text","text":"still here"}`,
		"",
	}, "\n")

	frames, err := collectFrames(t, body)
	if err != nil {
		t.Fatalf("decodeFrames failed: %v", err)
	}
	if len(frames) != 1 || frames[0].Text != "still here" {
		t.Errorf("Malformed unit should be skipped, got %+v", frames)
	}
}

func TestDecodeFramesDropsUnknownTypes(t *testing.T) {
	body := strings.Join([]string{
		`data: {"type":"heartbeat"}`,
		"",
		`data: {"type":"text","text":"kept"}`,
		"",
	}, "\n")

	frames, err := collectFrames(t, body)
	if err != nil {
		t.Fatalf("decodeFrames failed: %v", err)
	}
	if len(frames) != 1 || frames[0].Text != "kept" {
		t.Errorf("Unknown frame type should be dropped, got %+v", frames)
	}
}

func TestDecodeFramesCleanEOFWithoutTerminal(t *testing.T) {
	body := `data: {"type":"text","text":"cut off"}` + "\n\n"

	frames, err := collectFrames(t, body)
	if err != nil {
		t.Fatalf("Clean EOF should not error: %v", err)
	}
	if len(frames) != 1 {
		t.Errorf("Expected 1 frame, got %d", len(frames))
	}
}

func TestDecodeFramesRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := decodeFrames(ctx, strings.NewReader("data: {\"type\":\"text\"}\n\n"), func(Frame) {
		t.Error("Callback should not run after cancellation")
	})
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFrameIsTerminal(t *testing.T) {
	if !(Frame{Type: FrameDone}).IsTerminal() {
		t.Error("done should be terminal")
	}
	if !(Frame{Type: FrameError}).IsTerminal() {
		t.Error("error should be terminal")
	}
	if (Frame{Type: FrameText}).IsTerminal() {
		t.Error("text should not be terminal")
	}
}
