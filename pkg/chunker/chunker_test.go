package chunker_test

import (
	"fmt"
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/pkg/chunker"
)

// clinicalNote builds a note of n numbered sentences split into paragraphs of
// five sentences each.
func clinicalNote(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "Observation %d shows stable vitals and no acute distress.", i)
		if i%5 == 4 {
			b.WriteString("\n\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func expectWellFormed(text string, chunks []chunker.Chunk, size int) {
	GinkgoHelper()
	runes := []rune(text)
	prev := -1
	for _, c := range chunks {
		n := utf8.RuneCountInString(c.Text)
		Expect(c.Start).To(BeNumerically(">", prev))
		Expect(n).To(BeNumerically("<=", size))
		Expect(c.Text).NotTo(BeEmpty())
		Expect(string(runes[c.Start : c.Start+n])).To(Equal(c.Text))
		Expect(strings.TrimSpace(c.Text)).To(Equal(c.Text))
		Expect(utf8.ValidString(c.Text)).To(BeTrue())
		prev = c.Start
	}
}

var _ = Describe("Chunker", func() {
	Describe("New", func() {
		It("uses the defaults", func() {
			c := chunker.New()
			Expect(c.Size()).To(Equal(chunker.DefaultChunkSize))
			Expect(c.Overlap()).To(Equal(chunker.DefaultChunkOverlap))
		})

		It("clamps an overlap that is not smaller than the size", func() {
			c := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(100))
			Expect(c.Overlap()).To(Equal(25))
		})

		It("ignores non-positive sizes and negative overlaps", func() {
			c := chunker.New(chunker.WithChunkSize(0), chunker.WithOverlap(-1))
			Expect(c.Size()).To(Equal(chunker.DefaultChunkSize))
			Expect(c.Overlap()).To(Equal(chunker.DefaultChunkOverlap))
		})
	})

	Describe("Split", func() {
		It("returns nothing for empty or blank text", func() {
			c := chunker.New()
			Expect(c.Split("")).To(BeEmpty())
			Expect(c.Split(" \n\n\t ")).To(BeEmpty())
		})

		It("returns short text as one trimmed chunk", func() {
			chunks := chunker.New().Split("\n  Patient reports chest pain.  \n")
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].Text).To(Equal("Patient reports chest pain."))
			Expect(chunks[0].Start).To(Equal(3))
		})

		It("keeps offsets increasing and chunks within size", func() {
			text := clinicalNote(200)
			c := chunker.New()
			chunks := c.Split(text)
			Expect(len(chunks)).To(BeNumerically(">", 1))
			expectWellFormed(text, chunks, c.Size())
		})

		It("produces the same chunks for the same text", func() {
			text := clinicalNote(60)
			c := chunker.New(chunker.WithChunkSize(300), chunker.WithOverlap(80))
			Expect(c.Split(text)).To(Equal(c.Split(text)))
		})

		It("ends chunks on sentence boundaries when sentences fit", func() {
			text := clinicalNote(40)
			chunks := chunker.New(chunker.WithChunkSize(250), chunker.WithOverlap(60)).Split(text)
			for _, ch := range chunks {
				Expect(ch.Text).To(HaveSuffix("."))
				Expect(ch.Text).To(HavePrefix("Observation"))
			}
		})

		It("overlaps consecutive chunks", func() {
			text := clinicalNote(40)
			chunks := chunker.New(chunker.WithChunkSize(250), chunker.WithOverlap(120)).Split(text)
			Expect(len(chunks)).To(BeNumerically(">", 2))
			for i := 1; i < len(chunks); i++ {
				prevEnd := chunks[i-1].Start + utf8.RuneCountInString(chunks[i-1].Text)
				Expect(chunks[i].Start).To(BeNumerically("<", prevEnd))
			}
		})

		It("covers every sentence without overlap", func() {
			text := clinicalNote(30)
			chunks := chunker.New(chunker.WithChunkSize(200), chunker.WithOverlap(0)).Split(text)
			joined := make([]string, 0, len(chunks))
			for _, ch := range chunks {
				joined = append(joined, ch.Text)
			}
			all := strings.Join(joined, " ")
			for i := range 30 {
				Expect(all).To(ContainSubstring(fmt.Sprintf("Observation %d shows", i)))
			}
		})

		It("splits on paragraph breaks even without punctuation", func() {
			text := "First heading\n\nSecond heading"
			chunks := chunker.New(chunker.WithChunkSize(15), chunker.WithOverlap(0)).Split(text)
			Expect(chunks).To(HaveLen(2))
			Expect(chunks[0].Text).To(Equal("First heading"))
			Expect(chunks[1].Text).To(Equal("Second heading"))
			Expect(chunks[1].Start).To(Equal(15))
		})

		It("breaks long sentences at whitespace", func() {
			text := strings.Repeat("tachycardia ", 50)
			c := chunker.New(chunker.WithChunkSize(60), chunker.WithOverlap(10))
			chunks := c.Split(text)
			expectWellFormed(text, chunks, c.Size())
			for _, ch := range chunks {
				for _, w := range strings.Fields(ch.Text) {
					Expect(w).To(Equal("tachycardia"))
				}
			}
		})

		It("breaks unbroken text at rune boundaries", func() {
			text := strings.Repeat("é", 500)
			c := chunker.New(chunker.WithChunkSize(101), chunker.WithOverlap(0))
			chunks := c.Split(text)
			expectWellFormed(text, chunks, c.Size())
			total := 0
			for _, ch := range chunks {
				total += len(ch.Text)
			}
			Expect(total).To(Equal(len(text)))
			Expect(chunks[1].Start).To(Equal(101))
		})

		It("measures sizes and offsets in characters", func() {
			text := strings.Repeat("Température 38°C, œdème noté. ", 60)
			c := chunker.New()
			chunks := c.Split(text)
			Expect(chunks).To(HaveLen(2))
			expectWellFormed(text, chunks, c.Size())

			// Each sentence is 29 characters and 35 bytes.
			Expect(utf8.RuneCountInString(chunks[0].Text)).To(Equal(33*30 - 1))
			Expect(len(chunks[0].Text)).To(Equal(33*35 - 1))
			Expect(chunks[1].Start).To(Equal(27 * 30))
			Expect(chunks[1].Text).To(Equal(strings.TrimSpace(text[27*35:])))
		})
	})
})
