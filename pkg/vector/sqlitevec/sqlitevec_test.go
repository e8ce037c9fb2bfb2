package sqlitevec_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/vector"
	"github.com/papercomputeco/medrag/pkg/vector/sqlitevec"
)

func doc(id, source string, emb ...float32) vector.Document {
	return vector.Document{
		ID:        id,
		Content:   "content of " + id,
		Metadata:  map[string]string{"source": source, "type": "text", "id": id},
		Embedding: emb,
	}
}

var _ = Describe("Driver", func() {
	var (
		log    *slog.Logger
		ctx    context.Context
		driver *sqlitevec.Driver
	)

	newDriver := func() *sqlitevec.Driver {
		d, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ":memory:", Dimensions: 4}, log)
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	BeforeEach(func() {
		log = logger.Nop()
		ctx = context.Background()
	})

	Describe("NewDriver", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ""}, log)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ":memory:"}, log)
			Expect(err).To(HaveOccurred())
		})

		It("should create a driver with an in-memory database", func() {
			Expect(newDriver().Close()).To(Succeed())
		})
	})

	Describe("Upsert", func() {
		BeforeEach(func() {
			driver = newDriver()
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should do nothing when given empty docs", func() {
			Expect(driver.Upsert(ctx, nil)).To(Succeed())
		})

		It("should store content and metadata", func() {
			Expect(driver.Upsert(ctx, []vector.Document{doc("u-1", "CaseA.txt", 0.1, 0.2, 0.3, 0.4)})).To(Succeed())

			got, err := driver.Get(ctx, []string{"u-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Content).To(Equal("content of u-1"))
			Expect(got[0].Metadata).To(HaveKeyWithValue("source", "CaseA.txt"))
			Expect(got[0].Embedding[1]).To(BeNumerically("~", 0.2, 0.001))
		})

		It("should replace an existing document instead of duplicating it", func() {
			Expect(driver.Upsert(ctx, []vector.Document{doc("u-1", "CaseA.txt", 0.1, 0.1, 0.1, 0.1)})).To(Succeed())

			updated := doc("u-1", "CaseA.txt", 0.9, 0.9, 0.9, 0.9)
			updated.Content = "revised"
			Expect(driver.Upsert(ctx, []vector.Document{updated})).To(Succeed())

			results, err := driver.Query(ctx, []float32{0.9, 0.9, 0.9, 0.9}, 10, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Content).To(Equal("revised"))
		})

		It("should reject embeddings of the wrong size", func() {
			err := driver.Upsert(ctx, []vector.Document{doc("u-1", "CaseA.txt", 0.1, 0.2)})
			Expect(err).To(MatchError(vector.ErrDimensions))
		})
	})

	Describe("Query", func() {
		BeforeEach(func() {
			driver = newDriver()
			Expect(driver.Upsert(ctx, []vector.Document{
				doc("a-1", "CaseA.txt", 0.1, 0.1, 0.1, 0.1),
				doc("a-2", "CaseA.txt", 0.2, 0.2, 0.2, 0.2),
				doc("a-3", "CaseA.txt", 0.3, 0.3, 0.3, 0.3),
				doc("b-1", "CaseB.txt", 0.3, 0.3, 0.3, 0.3),
				doc("b-2", "CaseB.txt", 0.5, 0.5, 0.5, 0.5),
			})).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should return the closest documents", func() {
			results, err := driver.Query(ctx, []float32{0.5, 0.5, 0.5, 0.5}, 2, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("b-2"))
		})

		It("should restrict the search to the filtered source", func() {
			results, err := driver.Query(ctx, []float32{0.5, 0.5, 0.5, 0.5}, 10, vector.Filter{"source": "CaseA.txt"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for _, r := range results {
				Expect(r.Metadata["source"]).To(Equal("CaseA.txt"))
			}
			Expect(results[0].ID).To(Equal("a-3"))
		})

		It("should return nothing for an unknown source", func() {
			results, err := driver.Query(ctx, []float32{0.5, 0.5, 0.5, 0.5}, 10, vector.Filter{"source": "Case"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("should apply filter keys other than source", func() {
			results, err := driver.Query(ctx, []float32{0.5, 0.5, 0.5, 0.5}, 10, vector.Filter{"id": "a-2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("a-2"))
		})

		It("should default topK when zero or negative", func() {
			results, err := driver.Query(ctx, []float32{0.3, 0.3, 0.3, 0.3}, 0, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(5))
		})

		It("should return similarity scores in descending order", func() {
			results, err := driver.Query(ctx, []float32{0.3, 0.3, 0.3, 0.3}, 5, nil)
			Expect(err).NotTo(HaveOccurred())
			for i := 1; i < len(results); i++ {
				Expect(results[i-1].Score).To(BeNumerically(">=", results[i].Score))
			}
		})
	})

	Describe("Get and Delete", func() {
		BeforeEach(func() {
			driver = newDriver()
			Expect(driver.Upsert(ctx, []vector.Document{
				doc("u-1", "CaseA.txt", 0.1, 0.1, 0.1, 0.1),
				doc("u-2", "CaseA.txt", 0.2, 0.2, 0.2, 0.2),
				doc("u-3", "CaseB.txt", 0.3, 0.3, 0.3, 0.3),
			})).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should return nil for empty IDs", func() {
			docs, err := driver.Get(ctx, []string{})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeNil())
		})

		It("should skip non-existent IDs", func() {
			docs, err := driver.Get(ctx, []string{"u-1", "nonexistent"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal("u-1"))
		})

		It("should delete documents and drop them from queries", func() {
			Expect(driver.Delete(ctx, []string{"u-1", "u-3"})).To(Succeed())

			docs, err := driver.Get(ctx, []string{"u-1", "u-2", "u-3"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal("u-2"))

			results, err := driver.Query(ctx, []float32{0.3, 0.3, 0.3, 0.3}, 10, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})

		It("should not error when deleting non-existent IDs", func() {
			Expect(driver.Delete(ctx, []string{"nonexistent"})).To(Succeed())
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*sqlitevec.Driver)(nil)
		})
	})
})
