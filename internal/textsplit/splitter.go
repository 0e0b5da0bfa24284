// Package textsplit derives recitable chunks from pasted paragraph text.
// It is consumed at paragraph-creation time only; the trainer core treats
// the resulting chunk list as opaque ordered strings.
package textsplit

import (
	"regexp"
	"strings"
)

// DefaultMaxWords is the default word cap per chunk
const DefaultMaxWords = 14

var (
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
	clauseRe   = regexp.MustCompile(`[,;:—–-]\s+`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// Sentences splits text on sentence-ending punctuation, keeping the
// punctuation with its sentence. Empty fragments are dropped.
func Sentences(text string) []string {
	var out []string
	for _, m := range sentenceRe.FindAllString(text, -1) {
		if s := strings.TrimSpace(m); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Chunks splits text into sentences, breaking down any sentence longer than
// maxWords via SplitSmaller. This is the standard "Split" action.
func Chunks(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	var out []string
	for _, s := range Sentences(text) {
		if len(words(s)) <= maxWords {
			out = append(out, s)
		} else {
			out = append(out, SplitSmaller([]string{s}, maxWords)...)
		}
	}
	return out
}

// SplitSmaller breaks chunks at clause punctuation and then caps each piece
// at maxWords. Pieces up to maxWords+2 words are left alone to avoid
// splitting off tiny remainders; when a hard word split still leaves a
// trailing fragment of two words or fewer, it is folded into the previous
// piece.
func SplitSmaller(chunks []string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	allowed := maxWords + 2

	var out []string
	for _, c := range chunks {
		for _, part := range splitClauses(c) {
			ws := words(part)
			if len(ws) <= allowed {
				out = append(out, part)
				continue
			}

			var groups [][]string
			for i := 0; i < len(ws); i += maxWords {
				end := i + maxWords
				if end > len(ws) {
					end = len(ws)
				}
				groups = append(groups, ws[i:end])
			}
			if len(groups) >= 2 && len(groups[len(groups)-1]) <= 2 {
				last := groups[len(groups)-1]
				groups = groups[:len(groups)-1]
				groups[len(groups)-1] = append(groups[len(groups)-1], last...)
			}
			for _, g := range groups {
				out = append(out, strings.Join(g, " "))
			}
		}
	}
	return out
}

func splitClauses(s string) []string {
	var out []string
	for _, p := range clauseRe.Split(s, -1) {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func words(s string) []string {
	var out []string
	for _, w := range spaceRe.Split(s, -1) {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
