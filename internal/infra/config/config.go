package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Hex-encoded 32-byte key for the field encryption engine.
	EncryptionKey string

	RetrievalURL        string
	RetrievalCollection int
	RetrievalTimeout    int
	PageOffset          int

	RerankEnabled bool
	RerankURL     string
	RerankModel   string
	RerankTimeout int

	HybridSearchEnabled bool

	GenerationURL     string
	GenerationModel   string
	GenerationTimeout int

	ReformulationEnabled bool
	ReformulationModel   string
	HistoryWindow        int

	Persona      string
	FallbackText string

	JournalBufferSize int
	AlphaTestMode     bool
	OTelEnabled       bool
}

const (
	defaultPersona  = "Tu es un assistant documentaire. Tu réponds uniquement à partir des extraits de documents fournis ci-dessous, sans inventer d'information."
	defaultFallback = "Je rencontre une difficulté technique pour répondre à votre question. Merci de réessayer dans quelques instants."
)

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "qa-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "qa_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "qa_password"),
		DBName:     getEnv("DB_NAME", "qa_db"),

		EncryptionKey: getSecret("ENCRYPTION_KEY", "ENCRYPTION_KEY_FILE", ""),

		RetrievalURL:        getEnv("RETRIEVAL_URL", "http://retrieval:8010"),
		RetrievalCollection: getEnvInt("RETRIEVAL_COLLECTION_ID", 1),
		RetrievalTimeout:    getEnvInt("RETRIEVAL_TIMEOUT_SECONDS", 10),
		PageOffset:          getEnvInt("RETRIEVAL_PAGE_OFFSET", 1),

		RerankEnabled: getEnvBool("RERANK_ENABLED", false),
		RerankURL:     getEnv("RERANK_URL", "http://rerank:8011"),
		RerankModel:   getEnv("RERANK_MODEL", "bge-reranker-v2-m3"),
		RerankTimeout: getEnvInt("RERANK_TIMEOUT_SECONDS", 15),

		HybridSearchEnabled: getEnvBool("HYBRID_SEARCH_ENABLED", false),

		GenerationURL:     getEnv("GENERATION_URL", "http://generation:8012"),
		GenerationModel:   getEnv("GENERATION_MODEL", "mistral-small"),
		GenerationTimeout: getEnvInt("GENERATION_TIMEOUT_SECONDS", 60),

		ReformulationEnabled: getEnvBool("REFORMULATION_ENABLED", false),
		ReformulationModel:   getEnv("REFORMULATION_MODEL", "mistral-small"),
		HistoryWindow:        getEnvInt("HISTORY_WINDOW", 4),

		Persona:      getEnv("ASSISTANT_PERSONA", defaultPersona),
		FallbackText: getEnv("DEFAULT_FALLBACK_TEXT", defaultFallback),

		JournalBufferSize: getEnvInt("JOURNAL_BUFFER_SIZE", 256),
		AlphaTestMode:     getEnvBool("ALPHA_TEST_MODE", false),
		OTelEnabled:       getEnvBool("OTEL_LOGS_ENABLED", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
