// Package vectorutils builds the configured vector.Driver.
package vectorutils

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/papercomputeco/medrag/pkg/vector"
	"github.com/papercomputeco/medrag/pkg/vector/chroma"
	"github.com/papercomputeco/medrag/pkg/vector/chromem"
	"github.com/papercomputeco/medrag/pkg/vector/qdrant"
	"github.com/papercomputeco/medrag/pkg/vector/sqlitevec"
)

// Supported provider names.
const (
	ProviderQdrant  = "qdrant"
	ProviderChroma  = "chroma"
	ProviderSQLite  = "sqlite"
	ProviderChromem = "chromem"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// TargetURL addresses remote stores (qdrant, chroma).
	TargetURL string
	APIKey    string

	Collection string
	Dimensions uint

	// PersistDir holds embedded stores (sqlite, chromem).
	PersistDir string

	Logger *slog.Logger
}

// NewVectorDriver constructs the driver for o.ProviderType. Every driver
// verifies it can reach its backend before returning.
func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderQdrant:
		return qdrant.NewDriver(qdrant.Config{
			URL:            o.TargetURL,
			APIKey:         o.APIKey,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	case ProviderChroma:
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.Collection,
		}, o.Logger)
	case ProviderSQLite:
		if o.PersistDir == "" {
			return nil, fmt.Errorf("sqlite vector store requires a persist directory")
		}
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     filepath.Join(o.PersistDir, "vectors.sqlite"),
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderChromem:
		var dir string
		if o.PersistDir != "" {
			dir = filepath.Join(o.PersistDir, "chromem")
		}
		return chromem.NewDriver(chromem.Config{
			PersistDir:     dir,
			Compress:       true,
			CollectionName: o.Collection,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
