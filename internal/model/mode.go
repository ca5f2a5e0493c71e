// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

// =============================================================================
// GENERATION MODES
// =============================================================================

// ModeID names one of the fixed generation behaviors.
type ModeID string

const (
	ModeStandard ModeID = "standard"
	ModeSearch   ModeID = "search"
	ModeEdit     ModeID = "edit"
)

// Mode binds a generation behavior to its endpoint, input hint and file
// requirement. Pure configuration, never mutated at runtime.
type Mode struct {
	ID            ModeID
	Label         string
	Icon          string
	Endpoint      string
	Placeholder   string
	RequiresFiles bool
	// SendsFiles controls whether attachments are included in the request
	// body. Search mode generates from the prompt alone.
	SendsFiles bool
}

// Modes is the fixed mode table, in display order.
var Modes = []Mode{
	{
		ID:          ModeStandard,
		Label:       "Generate",
		Icon:        "◆",
		Endpoint:    "/api/generate",
		Placeholder: "Describe the image you want...",
		SendsFiles:  true,
	},
	{
		ID:          ModeSearch,
		Label:       "Search",
		Icon:        "◎",
		Endpoint:    "/api/generate-with-search",
		Placeholder: "Describe something to look up and render, e.g. today's SF weather as a chart...",
	},
	{
		ID:            ModeEdit,
		Label:         "Edit",
		Icon:          "✎",
		Endpoint:      "/api/edit-image",
		Placeholder:   "Attach an image, then describe the edit...",
		RequiresFiles: true,
		SendsFiles:    true,
	},
}

// ModeByID looks up a mode by identifier. The second return is false for
// unknown identifiers.
func ModeByID(id ModeID) (Mode, bool) {
	for _, m := range Modes {
		if m.ID == id {
			return m, true
		}
	}
	return Mode{}, false
}

// EditTypes are the edit-mode instruction variants the backend understands.
var EditTypes = []string{"general", "translate", "style"}
