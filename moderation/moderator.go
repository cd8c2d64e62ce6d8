// Package moderation censors forbidden words in chat bodies before they are
// persisted or fanned out, so stored history and live delivery agree on the
// sanitized content.
package moderation

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed wordlist.txt
var defaultWordList []byte

// Moderator matches forbidden patterns with an Aho-Corasick automaton and
// replaces the matched characters. Matching is case-insensitive; the
// replacement preserves the original length.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the automaton from the given word list. An empty list
// yields a moderator that never matches.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		patterns = append(patterns, normalize([]rune(word)))
	}
	if len(patterns) == 0 {
		return &Moderator{replacement: replacement}, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, fmt.Errorf("build censor automaton: %w", err)
	}
	return &Moderator{matcher: machine, replacement: replacement}, nil
}

// NewDefaultModerator builds a moderator from the embedded word list.
func NewDefaultModerator(replacement rune) (*Moderator, error) {
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(defaultWordList))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read embedded word list: %w", err)
	}
	return NewModerator(words, replacement)
}

// Sanitize returns the content with every forbidden span replaced. The
// input is returned unchanged when nothing matches.
func (m *Moderator) Sanitize(content string) string {
	if m.matcher == nil || content == "" {
		return content
	}

	original := []rune(content)
	spans := m.matcher.MultiPatternSearch(normalize(original), false)
	if len(spans) == 0 {
		return content
	}

	for _, span := range spans {
		end := span.Pos + len(span.Word)
		if span.Pos < 0 || end > len(original) {
			continue
		}
		for i := span.Pos; i < end; i++ {
			original[i] = m.replacement
		}
	}
	return string(original)
}

// normalize lowercases rune-by-rune; the mapping is 1:1 so match positions
// index directly into the original text.
func normalize(runes []rune) []rune {
	normalized := make([]rune, len(runes))
	for i, r := range runes {
		normalized[i] = unicode.ToLower(r)
	}
	return normalized
}
