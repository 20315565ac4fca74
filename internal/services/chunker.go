package services

import (
	"strings"
	"unicode/utf8"
)

// TextChunker splits interview guides into overlapping pieces small enough to embed.
type TextChunker struct {
	maxChunkSize int
	overlap      int
}

func NewTextChunker(maxChunkSize, overlap int) *TextChunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}
	return &TextChunker{maxChunkSize: maxChunkSize, overlap: overlap}
}

// Chunk splits on paragraphs, falling back to sentences for paragraphs longer
// than the chunk size. Each chunk after the first starts with the tail of the
// previous one.
func (tc *TextChunker) Chunk(text string) []string {
	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		chunks = append(chunks, current.String())
		current.Reset()
		current.WriteString(lastNRunes(chunks[len(chunks)-1], tc.overlap))
	}

	add := func(piece, sep string) {
		size := utf8.RuneCountInString(current.String())
		if size > 0 && size+utf8.RuneCountInString(sep+piece) > tc.maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= tc.maxChunkSize {
			add(para, "\n\n")
			continue
		}

		for _, sentence := range splitIntoSentences(para) {
			add(sentence, " ")
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func splitIntoSentences(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	result := make([]string, 0, len(sentences))
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func lastNRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
