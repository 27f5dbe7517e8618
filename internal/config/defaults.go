package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/wakaru/data/db/documents.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/wakaru/data/indices/vectors.idx"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Inference.BaseURL == "" {
		cfg.Inference.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Inference.APIKeyEnv == "" {
		cfg.Inference.APIKeyEnv = "GROQ_API_KEY"
	}
	if cfg.Inference.Model == "" {
		cfg.Inference.Model = "llama3-8b-8192"
	}
	if cfg.Inference.Temperature == 0 {
		cfg.Inference.Temperature = 0.1
	}
	if cfg.Inference.TimeoutSeconds == 0 {
		cfg.Inference.TimeoutSeconds = 60
	}
	if cfg.Index.ChunkSize == 0 {
		cfg.Index.ChunkSize = 1000
	}
	if cfg.Index.ChunkOverlap == 0 {
		cfg.Index.ChunkOverlap = 200
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = 5
	}
	if cfg.Analysis.DocumentExcerptChars == 0 {
		cfg.Analysis.DocumentExcerptChars = 10000
	}
	if cfg.Analysis.AnswerSummaryChars == 0 {
		cfg.Analysis.AnswerSummaryChars = 500
	}
	if cfg.Analysis.SynthesisSummaryChars == 0 {
		cfg.Analysis.SynthesisSummaryChars = 300
	}
	if cfg.Analysis.SynthesisMaxDocuments == 0 {
		cfg.Analysis.SynthesisMaxDocuments = 5
	}
	if cfg.Analysis.FallbackPreviewChars == 0 {
		cfg.Analysis.FallbackPreviewChars = 500
	}
	if cfg.Query.MaxConcurrent == 0 {
		cfg.Query.MaxConcurrent = 4
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
