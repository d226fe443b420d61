// Package indexer turns extracted document text into embedded, searchable chunks.
package indexer

import (
	"strings"
	"unicode"
)

const (
	// DefaultMaxChunkSize is the target upper bound on chunk length in characters.
	DefaultMaxChunkSize = 500
	// DefaultOverlapSentences is how many trailing sentences repeat at the start of
	// the next chunk so context survives chunk boundaries.
	DefaultOverlapSentences = 1
)

// ChunkSentences splits text into chunks of at most maxChunkSize characters, breaking
// on sentence boundaries. Consecutive chunks share overlapSentences sentences. A single
// sentence longer than maxChunkSize becomes its own chunk rather than being split.
func ChunkSentences(text string, maxChunkSize, overlapSentences int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, " "))

		// Seed the next chunk with the trailing overlap.
		start := len(current) - overlapSentences
		if start < 0 {
			start = 0
		}
		overlap := current[start:]
		current = make([]string, len(overlap))
		copy(current, overlap)
		currentLen = 0
		for _, s := range current {
			currentLen += len(s) + 1
		}
	}

	for _, sentence := range sentences {
		if currentLen > 0 && currentLen+len(sentence) > maxChunkSize {
			flush()
		}
		current = append(current, sentence)
		currentLen += len(sentence) + 1
	}
	if len(current) > 0 {
		// Skip a final chunk that is nothing but the overlap repeated.
		tail := strings.Join(current, " ")
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], tail) {
			chunks = append(chunks, tail)
		}
	}

	return chunks
}

// SplitSentences breaks text into trimmed sentences on ., ! and ? boundaries.
// Plain newline-separated fragments without terminal punctuation are kept as
// sentences too.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	emit := func() {
		s := strings.TrimSpace(b.String())
		b.Reset()
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	runes := []rune(text)
	for i, r := range runes {
		switch r {
		case '\n':
			emit()
		case '.', '!', '?':
			b.WriteRune(r)
			// Only break when the terminator ends the text or is followed by
			// whitespace, so "3.5" and "example.com" stay intact.
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				emit()
			}
		default:
			b.WriteRune(r)
		}
	}
	emit()

	return sentences
}
