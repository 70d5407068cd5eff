// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

// state represents the different views or modes of the TUI.
type state int

const (
	stateOperationList state = iota
	stateFiltering
	stateOperationDetails
	stateRunForm
	stateRunningOperation
	stateRunResult
)

// Run form fields, in tab order.
const (
	fieldInput = iota
	fieldOutput
	fieldSettings
	fieldHost
	fieldTimeout
	fieldCount
)

const (
	headerHeight = 1 // Height reserved for the main title header.
	footerHeight = 3

	// previewInput and previewOutput stand in for paths in command previews.
	previewInput  = "<input>"
	previewOutput = "<output>"
)
