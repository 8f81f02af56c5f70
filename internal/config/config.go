package config

import (
	"os"
)

// FeedBackend selects which repository variant the server runs with.
const (
	BackendFlat     = "flat"
	BackendDocument = "document"
)

type Config struct {
	Port        string
	FeedBackend string

	DBUrl     string
	MongoURI  string
	MongoDB   string
	JWTSecret string

	// Object store (S3 or an S3-compatible endpoint such as R2).
	S3Endpoint  string
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	// When true, flat-collection writes are conditional on the version
	// stamp read before the mutation (conflicts get a 409 instead of a
	// silent lost update).
	FlatConditional bool
}

func LoadConfig() *Config {
	cfg := &Config{
		Port:            os.Getenv("PORT"),
		FeedBackend:     os.Getenv("FEED_BACKEND"),
		DBUrl:           os.Getenv("DATABASE_URL"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         os.Getenv("MONGO_DB"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Bucket:        os.Getenv("S3_BUCKET_NAME"),
		S3Region:        os.Getenv("S3_REGION"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:     os.Getenv("S3_SECRET_ACCESS_KEY"),
		FlatConditional: os.Getenv("FEED_FLAT_CONDITIONAL") == "true",
	}
	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if cfg.FeedBackend == "" {
		cfg.FeedBackend = BackendFlat
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "wolfpack"
	}
	return cfg
}
