package retrieval_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/pkg/identity"
	"github.com/papercomputeco/medrag/pkg/retrieval"
	"github.com/papercomputeco/medrag/pkg/unit"
	testutils "github.com/papercomputeco/medrag/pkg/utils/test"
	"github.com/papercomputeco/medrag/pkg/vector"
)

var _ = Describe("Retriever", func() {
	var (
		ctx       context.Context
		driver    *testutils.MockVectorDriver
		embedder  *testutils.MockEmbedder
		retriever *retrieval.Retriever
	)

	add := func(source, text string, offset int) {
		id := identity.ForChunk(source, offset)
		md := unit.Metadata{Source: source, Type: unit.Text, ID: id, StartOffset: offset}
		emb, err := embedder.Embed(ctx, text)
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.Upsert(ctx, []vector.Document{{
			ID: id, Content: text, Metadata: md.Map(), Embedding: emb,
		}})).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()

		var err error
		retriever, err = retrieval.New(retrieval.Config{Driver: driver, Embedder: embedder})
		Expect(err).NotTo(HaveOccurred())

		add("CaseA.txt", "Patient has mild fever.", 0)
		add("CaseA.txt", "Temperature 38.1 C, no cough.", 24)
		add("CaseB.txt", "Patient has severe fever and rash.", 0)
	})

	It("requires a driver and an embedder", func() {
		_, err := retrieval.New(retrieval.Config{Embedder: embedder})
		Expect(err).To(HaveOccurred())
		_, err = retrieval.New(retrieval.Config{Driver: driver})
		Expect(err).To(HaveOccurred())
	})

	It("pushes the source filter and topK down to the store", func() {
		_, err := retriever.Retrieve(ctx, "fever", "CaseA.txt", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.LastFilter).To(Equal(vector.Filter{"source": "CaseA.txt"}))
		Expect(driver.LastTopK).To(Equal(5))
	})

	It("defaults topK", func() {
		_, err := retriever.Retrieve(ctx, "fever", "CaseA.txt", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.LastTopK).To(Equal(retrieval.DefaultTopK))
	})

	It("returns only units from the target file", func() {
		results, err := retriever.Retrieve(ctx, "fever", "CaseA.txt", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		for _, r := range results {
			Expect(r.Metadata.Source).To(Equal("CaseA.txt"))
		}
	})

	It("drops other sources even when the store ignores the filter", func() {
		driver.IgnoreFilter = true
		results, err := retriever.Retrieve(ctx, "patient fever rash", "CaseA.txt", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		for _, r := range results {
			Expect(r.Metadata.Source).To(Equal("CaseA.txt"))
		}
	})

	It("compares sources exactly", func() {
		driver.IgnoreFilter = true
		add("CaseA.txt.bak", "Patient has mild fever.", 0)

		results, err := retriever.Retrieve(ctx, "fever", "CaseA", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("orders by score and assigns ranks", func() {
		results, err := retriever.Retrieve(ctx, "mild fever", "CaseA.txt", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Text).To(Equal("Patient has mild fever."))
		Expect(results[0].Score).To(BeNumerically(">=", results[1].Score))
		Expect(results[0].Rank).To(Equal(0))
		Expect(results[1].Rank).To(Equal(1))
	})

	It("returns an empty result for an unknown file", func() {
		results, err := retriever.Retrieve(ctx, "fever", "Missing.txt", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("surfaces embedding and store failures", func() {
		embedder.FailOn = "boom"
		_, err := retriever.Retrieve(ctx, "boom", "CaseA.txt", 10)
		Expect(err).To(MatchError(ContainSubstring("embedding query")))

		driver.FailQuery = true
		_, err = retriever.Retrieve(ctx, "fever", "CaseA.txt", 10)
		Expect(err).To(MatchError(ContainSubstring("querying vector store")))
	})
})

var _ = Describe("Order", func() {
	It("breaks score ties by id ascending", func() {
		units := []unit.Retrieved{
			{Unit: unit.Unit{ID: "c"}, Score: 0.5},
			{Unit: unit.Unit{ID: "a"}, Score: 0.5},
			{Unit: unit.Unit{ID: "b"}, Score: 0.9},
		}
		retrieval.Order(units)
		Expect([]string{units[0].ID, units[1].ID, units[2].ID}).To(Equal([]string{"b", "a", "c"}))
		Expect(units[2].Rank).To(Equal(2))
	})
})
