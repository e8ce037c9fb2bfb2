// Package tesseract runs the tesseract command line OCR engine.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/papercomputeco/medrag/pkg/logger"
)

// Name labels OCR output produced by this package.
const Name = "Tesseract"

// DefaultBinary is looked up on PATH.
const DefaultBinary = "tesseract"

// Config configures the tesseract runner.
type Config struct {
	// Binary is the executable, DefaultBinary when empty.
	Binary string

	// Languages is passed as -l, e.g. "eng" or "eng+deu". Empty uses the
	// tesseract default.
	Languages string

	Logger *slog.Logger
}

// OCR shells out to tesseract once per image.
type OCR struct {
	binary    string
	languages string
	logger    *slog.Logger
}

// New creates a tesseract OCR runner. It does not check that the binary
// exists; use Available for that.
func New(cfg Config) *OCR {
	binary := cfg.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &OCR{binary: binary, languages: cfg.Languages, logger: cfg.Logger}
}

// Available reports whether the configured binary can be found.
func (o *OCR) Available() bool {
	_, err := exec.LookPath(o.binary)
	return err == nil
}

// Extract returns the text tesseract recognizes in the image at path.
func (o *OCR) Extract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout"}
	if o.languages != "" {
		args = append(args, "-l", o.languages)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("tesseract %s: %s", path, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("running tesseract: %w", err)
	}

	o.logger.Debug("ocr complete", "path", path, "bytes", stdout.Len())
	return strings.TrimSpace(stdout.String()), nil
}
