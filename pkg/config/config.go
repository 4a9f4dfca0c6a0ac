package config

import (
	"os"
	"strconv"

	"github.com/ashoka-samvaad/hindi-search/pkg/errs"
)

// Config holds the flat environment-variable configuration of the search
// service (spec §6). There is no file-based or YAML config layer — every
// field below is read once at startup via os.Getenv, after LoadEnvFiles
// has populated the process environment from .env/.env.local.
type Config struct {
	// Lexical index (Typesense-shaped HTTP contract).
	TypesenseHost       string
	TypesensePort       int
	TypesenseProtocol   string
	TypesenseAPIKey     string
	TypesenseCollection string

	// Vector index.
	QdrantHost              string
	QdrantPort              int
	QdrantCollectionArticle string
	QdrantCollectionChunk   string

	// Feedback store.
	DatabaseURL string

	// Embedding model (external collaborator, spec §1).
	EmbedderEndpoint  string
	EmbedderAPIKey    string
	EmbedderDimension int
	EmbedderE5Prefix  bool

	// Startup corpus artifacts (spec §6): the article/chunk tables and
	// gazetteer are loaded once into memory before the API starts serving.
	ArticleTablePath string
	ChunkTablePath   string
	GazetteerPath    string

	// HTTP API.
	APIHost string
	APIPort int

	// Retrieval/ranker versioning, reported by GET /health and stored on
	// every query_log row.
	RankerVersion    string
	RetrievalVersion string

	// Candidate-budget knobs.
	LexicalTopK       int
	SemArticleTopK    int
	SemChunkTopK      int
	CandidateCap      int
	LogCandidatesTopN int
}

// Load reads Config from the environment. LoadEnvFiles should be called
// beforehand so .env/.env.local values are visible to os.Getenv.
func Load() (*Config, error) {
	cfg := &Config{
		TypesenseHost:       getenv("TYPESENSE_HOST", "localhost"),
		TypesensePort:       getenvInt("TYPESENSE_PORT", 8108),
		TypesenseProtocol:   getenv("TYPESENSE_PROTOCOL", "http"),
		TypesenseAPIKey:     os.Getenv("TYPESENSE_API_KEY"),
		TypesenseCollection: getenv("TYPESENSE_COLLECTION", "articles"),

		QdrantHost:              getenv("QDRANT_HOST", "localhost"),
		QdrantPort:              getenvInt("QDRANT_PORT", 6334),
		QdrantCollectionArticle: getenv("QDRANT_COLLECTION_ARTICLES", "articles"),
		QdrantCollectionChunk:   getenv("QDRANT_COLLECTION_CHUNKS", "chunks"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		EmbedderEndpoint:  os.Getenv("EMBEDDER_ENDPOINT"),
		EmbedderAPIKey:    os.Getenv("EMBEDDER_API_KEY"),
		EmbedderDimension: getenvInt("EMBEDDER_DIMENSION", 768),
		EmbedderE5Prefix:  getenv("EMBEDDER_E5_PREFIX", "false") == "true",

		ArticleTablePath: getenv("ARTICLE_TABLE_PATH", "data/articles.csv"),
		ChunkTablePath:   getenv("CHUNK_TABLE_PATH", "data/chunks.csv"),
		GazetteerPath:    getenv("GAZETTEER_PATH", "data/gazetteer.json"),

		APIHost: getenv("API_HOST", "0.0.0.0"),
		APIPort: getenvInt("API_PORT", 8080),

		RankerVersion:    getenv("RANKER_VERSION", "v1"),
		RetrievalVersion: getenv("RETRIEVAL_VERSION", "v1"),

		LexicalTopK:       getenvInt("LEXICAL_TOPK", 80),
		SemArticleTopK:    getenvInt("SEM_ARTICLE_TOPK", 40),
		SemChunkTopK:      getenvInt("SEM_CHUNK_TOPK", 80),
		CandidateCap:      getenvInt("CANDIDATE_CAP", 200),
		LogCandidatesTopN: getenvInt("LOG_CANDIDATES_TOPN", 200),
	}

	if cfg.TypesenseAPIKey == "" {
		return nil, errs.NewStartupError("config", "TYPESENSE_API_KEY is required", nil)
	}
	if cfg.DatabaseURL == "" {
		return nil, errs.NewStartupError("config", "DATABASE_URL is required", nil)
	}
	if cfg.EmbedderEndpoint == "" {
		return nil, errs.NewStartupError("config", "EMBEDDER_ENDPOINT is required", nil)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
