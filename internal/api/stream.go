// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
)

// =============================================================================
// SSE READER
// =============================================================================

// MaxEventSize caps a single SSE event unit. Generated-image frames carry a
// base64 payload, so the cap is generous.
const MaxEventSize = 32 * 1024 * 1024

// dataPrefix is the fixed field prefix each event unit must carry.
var dataPrefix = []byte("data:")

// SSEReader parses server-sent event units off one HTTP response body.
// It is bound to that body: finite, not restartable.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates an SSE reader over r.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReaderSize(r, 64*1024),
	}
}

// ReadEvent returns the payload of the next `data:` unit. Units are
// delimited by a blank line; lines without the data prefix are ignored.
// A trailing unit cut off mid-payload is still returned once EOF gives us
// everything the server sent. Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte
	var size int

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// The body may end without a trailing newline; keep
				// whatever the server managed to send.
				if trimmed := bytes.TrimRight(line, "\r\n"); bytes.HasPrefix(trimmed, dataPrefix) {
					dataLines = append(dataLines, bytes.TrimSpace(trimmed[len(dataPrefix):]))
				}
				if len(dataLines) > 0 {
					return bytes.Join(dataLines, []byte("\n")), nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the unit.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if !bytes.HasPrefix(line, dataPrefix) {
			// Not a data field (comment, id:, retry:) - skip.
			continue
		}

		data := bytes.TrimSpace(line[len(dataPrefix):])
		size += len(data)
		if size > MaxEventSize {
			return nil, fmt.Errorf("sse event exceeds %d bytes", MaxEventSize)
		}
		dataLines = append(dataLines, data)
	}
}

// =============================================================================
// FRAME DECODING
// =============================================================================

// knownFrameTypes is the set of discriminants this client understands.
// Anything else is dropped for forward compatibility.
var knownFrameTypes = map[FrameType]bool{
	FrameStart:         true,
	FrameThinking:      true,
	FrameThinkingImage: true,
	FrameText:          true,
	FrameGrounding:     true,
	FrameImage:         true,
	FrameDone:          true,
	FrameError:         true,
}

// decodeFrames consumes the SSE body and invokes onFrame for each decoded
// frame. One malformed unit is logged and skipped; it never aborts the
// stream. Returns nil on clean stream end (EOF or terminal frame), or the
// transport error that interrupted the read.
func decodeFrames(ctx context.Context, body io.Reader, onFrame FrameCallback) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("api: skipping malformed frame: %v", err)
			continue
		}
		if !knownFrameTypes[frame.Type] {
			continue
		}

		onFrame(frame)

		if frame.IsTerminal() {
			return nil
		}
	}
}
