// Package chunker splits text into overlapping chunks that prefer sentence
// and paragraph boundaries.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the default maximum chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the default number of characters consecutive
	// chunks may share.
	DefaultChunkOverlap = 200
)

// Chunk is a contiguous slice of the input text.
type Chunk struct {
	Text string

	// Start is the character (rune) offset of Text in the input.
	Start int
}

// Chunker packs sentences into chunks of at most size characters.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets how many trailing characters of a chunk may be repeated at
// the start of the next one.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker. An overlap that is not smaller than the chunk size
// is clamped to a quarter of it.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Size returns the maximum chunk length in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in characters.
func (c *Chunker) Overlap() int { return c.overlap }

// span holds byte bounds for slicing and rune bounds for measuring.
type span struct {
	start, end   int
	rstart, rend int
}

func (s span) runes() int { return s.rend - s.rstart }

// Split chunks text. Chunk starts are strictly increasing, every chunk is at
// most Size characters, and chunks never begin or end with whitespace. Text
// that is empty or all whitespace yields no chunks.
func (c *Chunker) Split(text string) []Chunk {
	spans := c.spans(text)
	if len(spans) == 0 {
		return nil
	}

	var chunks []Chunk
	i := 0
	for {
		j := i
		for j+1 < len(spans) && spans[j+1].rend-spans[i].rstart <= c.size {
			j++
		}
		chunks = append(chunks, Chunk{
			Text:  text[spans[i].start:spans[j].end],
			Start: spans[i].rstart,
		})
		if j == len(spans)-1 {
			return chunks
		}
		i = c.next(spans, i, j)
	}
}

// next picks the first span of the chunk after spans[i..j]. It backs up into
// the previous chunk as far as the overlap allows while still guaranteeing the
// next chunk reaches past span j.
func (c *Chunker) next(spans []span, i, j int) int {
	for k := i + 1; k <= j; k++ {
		if spans[j].rend-spans[k].rstart <= c.overlap && spans[j+1].rend-spans[k].rstart <= c.size {
			return k
		}
	}
	return j + 1
}

// spans breaks text into trimmed sentence spans, none longer than c.size.
func (c *Chunker) spans(text string) []span {
	var out []span
	cur := span{start: -1}

	flush := func() {
		if cur.start >= 0 {
			out = append(out, c.bound(text, cur)...)
			cur.start = -1
		}
	}

	n := 0
	for i := 0; i < len(text); {
		r, w := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			if cur.start < 0 {
				cur.start, cur.rstart = i, n
			}
			i += w
			n++
			cur.end, cur.rend = i, n
			continue
		}

		// Consume the whole whitespace run.
		newlines := 0
		for i < len(text) {
			r, w = utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(r) {
				break
			}
			if r == '\n' {
				newlines++
			}
			i += w
			n++
		}
		if cur.start >= 0 && (newlines >= 2 || endsSentence(text[cur.start:cur.end])) {
			flush()
		}
	}
	flush()
	return out
}

// bound splits sp at whitespace, or failing that at a rune boundary, until
// every piece fits in c.size.
func (c *Chunker) bound(text string, sp span) []span {
	var out []span
	for sp.runes() > c.size {
		limit := sp.start
		for range c.size {
			_, w := utf8.DecodeRuneInString(text[limit:])
			limit += w
		}

		cut, rcut := limit, sp.rstart+c.size
		for k := limit; k > sp.start; k-- {
			if isASCIISpace(text[k]) {
				cut = k
				rcut = sp.rstart + utf8.RuneCountInString(text[sp.start:k])
				break
			}
		}

		if piece := trim(text, span{sp.start, cut, sp.rstart, rcut}); piece.end > piece.start {
			out = append(out, piece)
		}
		sp = trim(text, span{cut, sp.end, rcut, sp.rend})
	}
	if sp.end > sp.start {
		out = append(out, sp)
	}
	return out
}

func trim(text string, sp span) span {
	s := text[sp.start:sp.end]
	left := strings.TrimLeftFunc(s, unicode.IsSpace)
	lead := s[:len(s)-len(left)]
	sp.start += len(lead)
	sp.rstart += utf8.RuneCountInString(lead)
	kept := strings.TrimRightFunc(left, unicode.IsSpace)
	sp.end = sp.start + len(kept)
	sp.rend = sp.rstart + utf8.RuneCountInString(kept)
	return sp
}

func endsSentence(s string) bool {
	s = strings.TrimRight(s, `"')]”’`)
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
