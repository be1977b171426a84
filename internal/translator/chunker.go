package translator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the backend size limit in characters.
	DefaultChunkSize = 4500
	// DefaultRecoveryChunkSize is the limit used when a failed chunk is re-split.
	DefaultRecoveryChunkSize = 2000
)

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)
	// a sentence ends at '.', '!' or '?' followed by whitespace
	sentenceBreak = regexp.MustCompile(`[.!?]\s+`)
)

// TextChunk is a contiguous piece of the planned text.
// Text == source[Start:End], with Start and End as byte offsets.
type TextChunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// Len returns the chunk length in characters.
func (c TextChunk) Len() int {
	return utf8.RuneCountInString(c.Text)
}

type span struct {
	start, end int
}

// Plan splits text into chunks of at most maxSize characters.
//
// Chunks end on paragraph breaks where possible and on sentence breaks inside
// paragraphs longer than maxSize. Text is never split inside a sentence: a
// sentence longer than maxSize becomes a chunk of its own. Whitespace-only
// paragraphs and sentences are dropped, so the text between two consecutive
// chunks is always whitespace.
func Plan(text string, maxSize int) []TextChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	if utf8.RuneCountInString(text) <= maxSize {
		return []TextChunk{{Index: 0, Text: text, Start: 0, End: len(text)}}
	}

	var units []span
	for _, para := range splitSpans(text, span{0, len(text)}, paragraphBreak, 0) {
		if utf8.RuneCountInString(text[para.start:para.end]) <= maxSize {
			units = append(units, para)
			continue
		}
		// keep the terminating punctuation with its sentence
		units = append(units, splitSpans(text, para, sentenceBreak, 1)...)
	}

	var chunks []TextChunk
	emit := func(s span) {
		chunks = append(chunks, TextChunk{
			Index: len(chunks),
			Text:  text[s.start:s.end],
			Start: s.start,
			End:   s.end,
		})
	}

	cur := span{-1, -1}
	for _, u := range units {
		switch {
		case cur.start < 0:
			cur = u
		case utf8.RuneCountInString(text[cur.start:u.end]) <= maxSize:
			cur.end = u.end
		default:
			emit(cur)
			cur = u
		}
	}
	if cur.start >= 0 {
		emit(cur)
	}
	return chunks
}

// splitSpans cuts within at every match of sep. keep is the number of leading
// bytes of each match that stay with the preceding piece. Pieces are trimmed of
// surrounding whitespace; empty pieces are dropped.
func splitSpans(text string, within span, sep *regexp.Regexp, keep int) []span {
	var out []span
	add := func(start, end int) {
		for start < end && isSpace(text[start]) {
			start++
		}
		for end > start && isSpace(text[end-1]) {
			end--
		}
		if start < end {
			out = append(out, span{start, end})
		}
	}

	segment := text[within.start:within.end]
	prev := 0
	for _, m := range sep.FindAllStringIndex(segment, -1) {
		add(within.start+prev, within.start+m[0]+keep)
		prev = m[1]
	}
	add(within.start+prev, within.end)
	return out
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
