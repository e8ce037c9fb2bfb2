package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/pkg/extract"
	testutils "github.com/papercomputeco/medrag/pkg/utils/test"
)

var _ = Describe("LLMCaptioner", func() {
	var (
		path   string
		client *testutils.MockLLMClient
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "chest.jpg")
		Expect(os.WriteFile(path, []byte("jpeg"), 0o600)).To(Succeed())
		client = testutils.NewMockLLMClient("  Right lower lobe opacity.\n")
	})

	It("sends the image with the default prompt", func() {
		c := &extract.LLMCaptioner{Client: client, Model: "gemini-2.5-flash"}
		caption, err := c.Caption(context.Background(), path)
		Expect(err).NotTo(HaveOccurred())
		Expect(caption).To(Equal("Right lower lobe opacity."))

		req := client.LastRequest()
		Expect(req.Model).To(Equal("gemini-2.5-flash"))
		Expect(req.Prompt).To(Equal(extract.DefaultCaptionPrompt))
		Expect(req.Images).To(HaveLen(1))
		Expect(req.Images[0].MediaType).To(Equal("image/jpeg"))
		Expect(req.Images[0].Data).To(Equal([]byte("jpeg")))
	})

	It("returns generation errors", func() {
		client.Err = errors.New("unavailable")
		_, err := (&extract.LLMCaptioner{Client: client}).Caption(context.Background(), path)
		Expect(err).To(MatchError(ContainSubstring("unavailable")))
	})

	It("fails without a client", func() {
		_, err := (&extract.LLMCaptioner{}).Caption(context.Background(), path)
		Expect(err).To(HaveOccurred())
	})
})
