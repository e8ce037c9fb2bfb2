package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/pkg/extract"
	"github.com/papercomputeco/medrag/pkg/filehash"
	"github.com/papercomputeco/medrag/pkg/identity"
	"github.com/papercomputeco/medrag/pkg/unit"
	testutils "github.com/papercomputeco/medrag/pkg/utils/test"
)

var _ = Describe("Audio", func() {
	var (
		path        string
		transcriber *testutils.MockTranscriber
		ext         *extract.Audio
		ctx         context.Context
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "visit.mp3")
		Expect(os.WriteFile(path, []byte("ID3 fake audio"), 0o600)).To(Succeed())

		transcriber = &testutils.MockTranscriber{Text: " Patient complains of headaches. "}
		ext = extract.NewAudio(extract.AudioConfig{Transcriber: transcriber, TranscriberName: "AssemblyAI"})
		ctx = context.Background()
	})

	It("produces one unit with the transcript", func() {
		hash, err := filehash.Sum(path)
		Expect(err).NotTo(HaveOccurred())

		units := ext.Extract(ctx, path)
		Expect(units).To(HaveLen(1))
		u := units[0]
		Expect(u.Text).To(Equal("--- AssemblyAI Transcription ---\nPatient complains of headaches."))
		Expect(u.ID).To(Equal(identity.ForContent(hash)))
		Expect(u.Metadata.Type).To(Equal(unit.AudioTranscription))
		Expect(u.Metadata.Source).To(Equal("visit.mp3"))
		Expect(u.Metadata.ContentHash).To(Equal(hash))
	})

	It("yields nothing for an empty transcript", func() {
		transcriber.Text = "  "
		Expect(ext.Extract(ctx, path)).To(BeEmpty())
	})

	It("yields nothing when transcription fails", func() {
		transcriber.Err = errors.New("transcript status error")
		Expect(ext.Extract(ctx, path)).To(BeEmpty())
	})

	It("skips audio when no transcriber is configured", func() {
		Expect(extract.NewAudio(extract.AudioConfig{}).Extract(ctx, path)).To(BeEmpty())
	})
})
