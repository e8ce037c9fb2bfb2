// Package qdrant provides a Qdrant vector database driver over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/medrag/pkg/vector"
)

const (
	// DefaultCollectionName is the collection existing deployments index into.
	DefaultCollectionName = "medical_rag_multimodal"

	// DefaultGRPCPort is Qdrant's gRPC port.
	DefaultGRPCPort = 6334

	// restPort is Qdrant's HTTP port. Addresses written for HTTP clients are
	// redirected to the gRPC port.
	restPort = 6333

	// DefaultConnectTimeout bounds the startup health check.
	DefaultConnectTimeout = 10 * time.Second

	// contentKey is the payload key holding the unit text.
	contentKey = "_content"

	// sourceKey is indexed as a keyword so per-file filters stay cheap.
	sourceKey = "source"
)

// Config holds configuration for the Qdrant driver.
type Config struct {
	// URL is the Qdrant address, either "host:port" or a URL such as
	// "http://localhost:6333". https enables TLS.
	URL string

	// APIKey is sent with every request when set.
	APIKey string

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions sizes the collection when it has to be created.
	Dimensions uint

	// ConnectTimeout defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// Address is a parsed Qdrant endpoint.
type Address struct {
	Host   string
	Port   int
	UseTLS bool
}

// ParseAddress accepts "host", "host:port" or a URL. A missing port, or the
// HTTP port 6333, resolves to the gRPC port.
func ParseAddress(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{}, fmt.Errorf("qdrant URL is required")
	}

	var addr Address
	hostport := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Address{}, fmt.Errorf("parsing qdrant URL %q: %w", raw, err)
		}
		addr.UseTLS = u.Scheme == "https"
		hostport = u.Host
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// no port
		host, portStr = hostport, ""
	}
	if host == "" {
		return Address{}, fmt.Errorf("qdrant URL %q has no host", raw)
	}
	addr.Host = host
	addr.Port = DefaultGRPCPort

	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Address{}, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
		}
		if port != restPort {
			addr.Port = port
		}
	}
	return addr, nil
}

// Driver implements vector.Driver using the Qdrant gRPC client.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// NewDriver connects to Qdrant, verifies it is healthy and ensures the
// collection exists with a keyword index on the source field.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	addr, err := ParseAddress(c.URL)
	if err != nil {
		return nil, err
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   addr.Host,
		Port:   addr.Port,
		APIKey: c.APIKey,
		UseTLS: addr.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vector.ErrConnection, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	health, err := client.HealthCheck(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: qdrant at %s:%d: %v", vector.ErrConnection, addr.Host, addr.Port, err)
	}

	d := &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}
	if err := d.ensureCollection(ctx, uint64(c.Dimensions)); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to qdrant",
		"host", addr.Host,
		"port", addr.Port,
		"tls", addr.UseTLS,
		"version", health.GetVersion(),
		"collection", collection,
	)

	return d, nil
}

func (d *Driver) ensureCollection(ctx context.Context, dimensions uint64) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", d.collection, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", d.collection, err)
	}

	_, err = d.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: d.collection,
		FieldName:      sourceKey,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("indexing %q on collection %q: %w", sourceKey, d.collection, err)
	}

	d.logger.Info("created qdrant collection",
		"collection", d.collection,
		"dimensions", dimensions,
	)
	return nil
}

// Upsert writes points keyed by unit ID and waits for the write to apply.
func (d *Driver) Upsert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(payload(doc)),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}

	d.logger.Debug("upserted documents to qdrant", "count", len(docs))
	return nil
}

// BuildFilter converts an equality filter into Qdrant must-match conditions.
// Keys are sorted so the request is deterministic.
func BuildFilter(filter vector.Filter) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	must := make([]*qdrant.Condition, len(keys))
	for i, k := range keys {
		must[i] = qdrant.NewMatch(k, filter[k])
	}
	return &qdrant.Filter{Must: must}
}

// Query finds the topK most similar documents matching filter.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		Filter:         BuildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying qdrant: %w", err)
	}

	results := make([]vector.QueryResult, len(points))
	for i, p := range points {
		results[i] = vector.QueryResult{
			Document: document(p.GetId(), p.GetPayload()),
			Score:    p.GetScore(),
		}
	}

	d.logger.Debug("queried qdrant", "results", len(results))
	return results, nil
}

// Get retrieves documents by their IDs. Embeddings are not fetched.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs(ids),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, len(points))
	for i, p := range points {
		docs[i] = document(p.GetId(), p.GetPayload())
	}
	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs(ids)...),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant", "count", len(ids))
	return nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func pointIDs(ids []string) []*qdrant.PointId {
	out := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		out[i] = qdrant.NewID(id)
	}
	return out
}

func payload(doc vector.Document) map[string]any {
	out := make(map[string]any, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		out[k] = v
	}
	out[contentKey] = doc.Content
	return out
}

func document(id *qdrant.PointId, payload map[string]*qdrant.Value) vector.Document {
	doc := vector.Document{
		ID:       id.GetUuid(),
		Metadata: make(map[string]string, len(payload)),
	}
	if doc.ID == "" {
		doc.ID = strconv.FormatUint(id.GetNum(), 10)
	}

	for k, v := range payload {
		s, ok := stringValue(v)
		if !ok {
			continue
		}
		if k == contentKey {
			doc.Content = s
			continue
		}
		doc.Metadata[k] = s
	}
	return doc
}

// stringValue flattens scalar payload values. Lists and structs written by
// other clients are skipped.
func stringValue(v *qdrant.Value) (string, bool) {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue, true
	case *qdrant.Value_IntegerValue:
		return strconv.FormatInt(k.IntegerValue, 10), true
	case *qdrant.Value_DoubleValue:
		return strconv.FormatFloat(k.DoubleValue, 'f', -1, 64), true
	case *qdrant.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), true
	default:
		return "", false
	}
}

var _ vector.Driver = (*Driver)(nil)
