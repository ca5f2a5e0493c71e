// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "testing"

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 2, "ab"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateWidthCJK(t *testing.T) {
	// CJK characters are two cells wide; width-based truncation must not
	// split them.
	out := TruncateWidth("日本語のテキスト", 8)
	if out == "日本語のテキスト" {
		t.Fatal("Expected truncation for 16-cell string at width 8")
	}
	for _, r := range out {
		if r == '�' {
			t.Error("Truncation split a multi-byte character")
		}
	}
}

func TestPadWidth(t *testing.T) {
	if got := PadWidth("ab", 5); got != "ab   " {
		t.Errorf("PadWidth = %q", got)
	}
}

func TestCollapseLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"one\ntwo", "one two"},
		{"windows\r\nline", "windows line"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CollapseLine(tt.in); got != tt.want {
			t.Errorf("CollapseLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
