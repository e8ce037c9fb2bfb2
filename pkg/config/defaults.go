package config

const (
	defaultStorageProvider = "sqlite"

	defaultVectorProvider   = "qdrant"
	defaultVectorTarget     = "http://localhost:6333"
	defaultVectorCollection = "medical_rag_multimodal"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "all-minilm"
	defaultEmbeddingDimensions = 384

	defaultLLMProvider     = "gemini"
	defaultLLMModel        = "gemini-2.5-pro"
	defaultLLMCaptionModel = "gemini-2.5-flash"

	defaultTranscriptionProvider = "assemblyai"

	defaultOCRBinary    = "tesseract"
	defaultOCRLanguages = "eng"

	defaultRawDir = "data/raw"

	defaultTopK = 20

	defaultAPIListen = ":8000"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "medrag.ingest"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Target:     defaultVectorTarget,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider:     defaultLLMProvider,
			Model:        defaultLLMModel,
			CaptionModel: defaultLLMCaptionModel,
		},
		Transcription: TranscriptionConfig{
			Provider: defaultTranscriptionProvider,
		},
		OCR: OCRConfig{
			Binary:    defaultOCRBinary,
			Languages: defaultOCRLanguages,
		},
		Ingest: IngestConfig{
			RawDir: defaultRawDir,
		},
		Query: QueryConfig{
			TopK: defaultTopK,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
