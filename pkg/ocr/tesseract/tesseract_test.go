package tesseract_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/pkg/ocr/tesseract"
)

var _ = Describe("OCR", func() {
	var dir string

	BeforeEach(func() {
		if runtime.GOOS == "windows" {
			Skip("uses a shell script as a stand-in binary")
		}
		dir = GinkgoT().TempDir()
	})

	script := func(body string) string {
		path := filepath.Join(dir, "fake-tesseract")
		Expect(os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)).To(Succeed())
		return path
	}

	It("returns trimmed stdout and passes the image and language", func() {
		bin := script(`echo "  args: $1 $2 $3 $4"`)
		ocr := tesseract.New(tesseract.Config{Binary: bin, Languages: "eng"})

		text, err := ocr.Extract(context.Background(), "/data/raw/images/ecg.png")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("args: /data/raw/images/ecg.png stdout -l eng"))
	})

	It("reports stderr when tesseract exits non-zero", func() {
		bin := script(`echo "Error opening data file" >&2; exit 1`)
		_, err := tesseract.New(tesseract.Config{Binary: bin}).Extract(context.Background(), "x.png")
		Expect(err).To(MatchError(ContainSubstring("Error opening data file")))
	})

	It("fails when the binary is missing", func() {
		ocr := tesseract.New(tesseract.Config{Binary: filepath.Join(dir, "missing")})
		Expect(ocr.Available()).To(BeFalse())

		_, err := ocr.Extract(context.Background(), "x.png")
		Expect(err).To(HaveOccurred())
	})
})
