// Package storagetest holds the behavior every storage.Driver must share,
// written as ginkgo specs that driver test suites register.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/pkg/identity"
	"github.com/papercomputeco/medrag/pkg/storage"
	"github.com/papercomputeco/medrag/pkg/unit"
)

// TextRecord builds a text chunk record for source at offset.
func TextRecord(source string, offset int) storage.Record {
	return storage.Record{
		ID:          identity.ForChunk(source, offset),
		Source:      source,
		Type:        unit.Text,
		StartOffset: offset,
		Length:      100,
		IngestedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// DriverBehavior registers the shared driver specs. newDriver is called
// before each spec and must return an empty store.
func DriverBehavior(newDriver func() storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("Put", func() {
		It("counts new records", func() {
			n, err := driver.Put(ctx, []storage.Record{TextRecord("CaseA.txt", 0), TextRecord("CaseA.txt", 812)})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})

		It("upserts without duplicating", func() {
			rec := TextRecord("CaseA.txt", 0)
			_, err := driver.Put(ctx, []storage.Record{rec})
			Expect(err).NotTo(HaveOccurred())

			rec.Length = 250
			n, err := driver.Put(ctx, []storage.Record{rec})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(0))

			got, err := driver.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Length).To(Equal(250))

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("rejects records without an id", func() {
			_, err := driver.Put(ctx, []storage.Record{{Source: "x.txt"}})
			Expect(err).To(HaveOccurred())
		})

		It("accepts an empty batch", func() {
			n, err := driver.Put(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(0))
		})
	})

	Describe("Get", func() {
		It("round-trips every field", func() {
			rec := storage.Record{
				ID:          identity.ForContent("abc"),
				Source:      "ecg.png",
				Type:        unit.ImageAnalysis,
				ContentHash: "abc",
				Length:      42,
				IngestedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			}
			_, err := driver.Put(ctx, []storage.Record{rec})
			Expect(err).NotTo(HaveOccurred())

			got, err := driver.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Source).To(Equal("ecg.png"))
			Expect(got.Type).To(Equal(unit.ImageAnalysis))
			Expect(got.ContentHash).To(Equal("abc"))
			Expect(got.Length).To(Equal(42))
			Expect(got.IngestedAt.Equal(rec.IngestedAt)).To(BeTrue())
		})

		It("returns ErrNotFound for unknown ids", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(err).To(MatchError(storage.ErrNotFound))
		})
	})

	Describe("ListBySource", func() {
		It("returns only that source, ordered by offset", func() {
			_, err := driver.Put(ctx, []storage.Record{
				TextRecord("CaseA.txt", 812),
				TextRecord("CaseB.txt", 0),
				TextRecord("CaseA.txt", 0),
			})
			Expect(err).NotTo(HaveOccurred())

			recs, err := driver.ListBySource(ctx, "CaseA.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(2))
			Expect(recs[0].StartOffset).To(Equal(0))
			Expect(recs[1].StartOffset).To(Equal(812))
		})

		It("is empty for unknown sources", func() {
			recs, err := driver.ListBySource(ctx, "none.txt")
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(BeEmpty())
		})
	})

	Describe("Sources", func() {
		It("summarizes sources in name order", func() {
			audio := storage.Record{ID: identity.ForContent("h"), Source: "visit.mp3", Type: unit.AudioTranscription, ContentHash: "h"}
			_, err := driver.Put(ctx, []storage.Record{
				TextRecord("CaseB.txt", 0),
				TextRecord("CaseA.txt", 0),
				TextRecord("CaseA.txt", 812),
				audio,
			})
			Expect(err).NotTo(HaveOccurred())

			sources, err := driver.Sources(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sources).To(Equal([]storage.SourceSummary{
				{Source: "CaseA.txt", Type: unit.Text, Units: 2},
				{Source: "CaseB.txt", Type: unit.Text, Units: 1},
				{Source: "visit.mp3", Type: unit.AudioTranscription, Units: 1},
			}))
		})

		It("is empty for an empty store", func() {
			sources, err := driver.Sources(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sources).To(BeEmpty())
		})
	})
}
