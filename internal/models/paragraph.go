package models

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// RecallMode selects how steps are derived from a paragraph's chunks
type RecallMode string

const (
	// RecallNormal produces one step per chunk
	RecallNormal RecallMode = "normal"
	// RecallPairs interleaves single-chunk steps with combined pair steps
	RecallPairs RecallMode = "pairs"
)

// ParseRecallMode normalizes a stored mode value; anything unknown is normal
func ParseRecallMode(s string) RecallMode {
	if s == string(RecallPairs) {
		return RecallPairs
	}
	return RecallNormal
}

// Paragraph represents a block of study text split into recitable chunks
type Paragraph struct {
	ID           int64
	ParagraphID  string // content hash, identity for attempts and results
	DisplayID    string // locally-unique id used for list management only
	Name         string
	Text         string
	Chunks       []string
	LastModified time.Time
}

// ContentID derives the stable identity of a paragraph from its trimmed text.
// It is a cheap 31-multiplier rolling hash over UTF-16 code units rendered as
// unsigned hex. Not collision-resistant, but deterministic across sessions,
// which is all identity here requires.
func ContentID(text string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(strings.TrimSpace(text))) {
		h = h*31 + int32(u)
	}
	return strconv.FormatUint(uint64(uint32(h)), 16)
}
