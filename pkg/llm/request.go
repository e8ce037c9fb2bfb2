package llm

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// Request is a provider-agnostic, single-turn generation request.
type Request struct {
	// Model overrides the client's configured model when set.
	Model string

	// System is the system instruction.
	System string

	// Prompt is the user turn.
	Prompt string

	// Temperature is passed through to the provider as is.
	Temperature float64

	// MaxTokens bounds the output when greater than zero.
	MaxTokens int

	// Images are attached to the user turn, after the prompt text.
	Images []Image
}

// Image is inline image data attached to a request.
type Image struct {
	// MediaType is the MIME type, e.g. "image/png".
	MediaType string
	Data      []byte
}

// LoadImage reads an image file and detects its media type from the file
// extension, falling back to content sniffing.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("reading image %s: %w", path, err)
	}

	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	return Image{MediaType: mediaType, Data: data}, nil
}
