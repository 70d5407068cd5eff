// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package batch

import (
	"fmt"
	"path/filepath"
	"strings"
)

// hipsExtension marks HIPS project files, whose URIs may carry a selector
// query.
const hipsExtension = ".hips"

// selectors narrow a HIPS project to vessels, days and lines.
type selectors struct {
	vessels []string
	days    []string
	lines   []string
}

func (s selectors) query() string {
	var terms []string
	add := func(name string, values []string) {
		for _, v := range values {
			if v != "" {
				terms = append(terms, name+"="+v)
			}
		}
	}
	add("Vessel", s.vessels)
	add("Day", s.days)
	add("Line", s.lines)
	return strings.Join(terms, ";")
}

// formatPath renders an input or output as a quoted token. An empty path
// yields no token.
func formatPath(path string, asURI bool, sel *selectors) (string, error) {
	if path == "" {
		return "", nil
	}
	if !asURI {
		return quote(cleanPath(path)), nil
	}

	uri, err := FileURI(path)
	if err != nil {
		return "", err
	}
	if sel != nil && strings.HasSuffix(uri, hipsExtension) {
		if q := sel.query(); q != "" {
			uri += "?" + q
		}
	}
	return quote(uri), nil
}

// cleanPath drops empty and "." segments and any trailing separator. ".."
// segments are kept, since resolving them lexically is wrong across
// symlinks.
func cleanPath(path string) string {
	vol := filepath.VolumeName(path)
	rest := filepath.ToSlash(path[len(vol):])
	rooted := strings.HasPrefix(rest, "/")

	var parts []string
	for _, seg := range strings.Split(rest, "/") {
		if seg != "" && seg != "." {
			parts = append(parts, seg)
		}
	}
	out := strings.Join(parts, "/")
	if rooted {
		out = "/" + out
	}
	if vol+out == "" {
		return "."
	}
	return vol + filepath.FromSlash(out)
}

// FileURI converts a filesystem path to an absolute file:// URI.
func FileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	prefix := "file://"
	rest := abs
	if vol := filepath.VolumeName(abs); vol != "" {
		rest = abs[len(vol):]
		if strings.HasPrefix(vol, `\\`) || strings.HasPrefix(vol, "//") {
			// UNC share: the server becomes the authority
			prefix = "file:" + filepath.ToSlash(vol)
		} else {
			prefix = "file:///" + vol
		}
	}
	return prefix + escapePath(filepath.ToSlash(rest)), nil
}

// escapePath percent-encodes every byte outside the unreserved set, keeping
// separators.
func escapePath(p string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		if unreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
