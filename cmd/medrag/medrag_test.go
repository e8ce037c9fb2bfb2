package medragcmder_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	medragcmder "github.com/papercomputeco/medrag/cmd/medrag"
	"github.com/papercomputeco/medrag/pkg/runstate"
	testutils "github.com/papercomputeco/medrag/pkg/utils/test"
)

var _ = Describe("NewMedragCmd", func() {
	It("registers every subcommand", func() {
		cmd := medragcmder.NewMedragCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("init", "ingest", "query", "serve", "config", "auth", "version"))
	})

	It("has global debug and config-dir flags", func() {
		cmd := medragcmder.NewMedragCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})

var _ = Describe("ingest then query", func() {
	var (
		tmpDir    string
		origDir   string
		configDir string
		ollama    *testutils.OllamaServer
	)

	execute := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := medragcmder.NewMedragCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append(args, "--config-dir", configDir))
		err := cmd.Execute()
		return out.String(), err
	}

	BeforeEach(func() {
		var err error
		tmpDir = GinkgoT().TempDir()
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
		DeferCleanup(func() {
			Expect(os.Chdir(origDir)).To(Succeed())
		})

		ollama = testutils.NewOllamaServer(32, "**Clinical Explanation and Summary**\nFasting glucose is elevated.")
		DeferCleanup(ollama.Close)

		configDir = filepath.Join(tmpDir, ".medrag")
		Expect(os.MkdirAll(configDir, 0o755)).To(Succeed())
		rawDir := filepath.Join(tmpDir, "raw")
		Expect(os.MkdirAll(filepath.Join(rawDir, "text"), 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(rawDir, "text", "labs.txt"),
			[]byte("Fasting glucose 131 mg/dL. HbA1c 7.1 percent. Follow up in three months."), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(rawDir, "text", "other.txt"),
			[]byte("Knee MRI shows a partial meniscus tear."), 0o600)).To(Succeed())

		cfg := fmt.Sprintf(`[storage]
provider = "sqlite"

[vector_store]
provider = "chromem"
collection = "e2e"

[embedding]
provider = "ollama"
target = %q
model = "all-minilm"
dimensions = 32

[llm]
provider = "ollama"
target = %q
model = "fake"
caption_model = "fake"

[transcription]
provider = "none"

[ingest]
raw_dir = %q

[events]
provider = "nop"
`, ollama.URL, ollama.URL, rawDir)
		Expect(os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(cfg), 0o600)).To(Succeed())
	})

	It("stores units, records the run and answers from the target file only", func() {
		out, err := execute("ingest")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Ingest complete"))

		rs, err := runstate.NewManager(configDir)
		Expect(err).NotTo(HaveOccurred())
		state, err := rs.LoadState()
		Expect(err).NotTo(HaveOccurred())
		Expect(state).NotTo(BeNil())
		Expect(state.Runs).To(Equal(1))
		Expect(state.LastRun.Files).To(Equal(2))
		Expect(state.LastRun.Units).To(Equal(2))
		Expect(state.LastRun.NewUnits).To(Equal(2))
		Expect(filepath.Join(configDir, "db", "index.sqlite")).To(BeARegularFile())

		out, err = execute("ingest", "status")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("2 files, 2 units (2 new)"))

		out, err = execute("query", "-q", "What is the glucose level?", "-f", "data/raw/text/labs.txt", "-p", "D")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Fasting glucose is elevated."))
		Expect(out).To(ContainSubstring("Sources Used (1)"))
		Expect(out).To(ContainSubstring("labs.txt"))
		Expect(out).NotTo(ContainSubstring("other.txt"))
		Expect(ollama.Chats()).To(Equal(1))
	})

	It("reports nothing new when re-ingesting unchanged files", func() {
		_, err := execute("ingest")
		Expect(err).NotTo(HaveOccurred())

		out, err := execute("ingest")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("(0 new)"))
	})

	It("requires query flags when stdin is not a terminal", func() {
		_, err := execute("query", "--no-input", "-f", "labs.txt", "-p", "D")
		Expect(err).To(MatchError(ContainSubstring("--query is required")))
	})

	It("rejects an unknown persona", func() {
		_, err := execute("query", "-q", "q", "-f", "labs.txt", "-p", "nurse")
		Expect(err).To(MatchError(ContainSubstring("unknown persona")))
	})
})
