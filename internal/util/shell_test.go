// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteArgForShell(t *testing.T) {
	cases := map[string]string{
		"carisbatch":             `'carisbatch'`,
		"/opt/caris/bin/tool":    `'/opt/caris/bin/tool'`,
		"it's":                   `'it'\''s'`,
		"~/caris/bin/carisbatch": `~/'caris/bin/carisbatch'`,
		"":                       `''`,
	}
	for in, want := range cases {
		assert.Equal(t, want, QuoteArgForShell(in), in)
	}
}
