package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	BucketFolder string

	ElasticsearchHost   string
	ElasticsearchAPIKey string
	DocumentIndex       string

	JWTSecret string
	Port      string

	IngestWorkers int
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "ap-southeast-1"),
		BucketName:   getEnv("BUCKET_NAME", "lexin-docs"),
		BucketFolder: getEnv("BUCKET_LEGAL_DOCUMENT_FOLDER_NAME", "legal_document"),

		ElasticsearchHost:   getEnv("ELASTICSEARCH_HOST", ""),
		ElasticsearchAPIKey: getEnv("ELASTICSEARCH_API_KEY", ""),
		DocumentIndex:       getEnv("ELASTICSEARCH_LEGAL_DOCUMENT_INDEX", "legal_document"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		Port:      getEnv("PORT", "8080"),

		IngestWorkers: getEnvInt("INGEST_WORKERS", 8),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.ElasticsearchHost == "" {
		log.Fatal("ELASTICSEARCH_HOST not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
