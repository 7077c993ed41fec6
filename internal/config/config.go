package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StageProd = "prod"
	StageDev  = "dev"

	ArchiveBackendFile     = "file"
	ArchiveBackendPostgres = "postgres"
	ArchiveBackendS3       = "s3"
)

type S3 struct {
	Bucket          string
	Key             string
	Endpoint        string
	Region          string
	AccessKeyId     string
	SecretAccessKey string
}

type Config struct {
	Stage        string
	Port         int
	LogLevel     string
	PublicURL    string
	TurnDuration time.Duration

	ArchiveBackend string
	ArchiveFile    string

	DatabaseURL   string
	MigrationsDir string

	S3 S3
}

// Load reads the configuration from the environment. Outside prod the
// variables in envFile are loaded first; a missing file is not an error.
func Load(envFile string) (Config, error) {
	if os.Getenv("STAGE") != StageProd {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Stage:          getenv("STAGE", StageDev),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		PublicURL:      getenv("PUBLIC_URL", "http://localhost:8000/"),
		ArchiveBackend: getenv("ARCHIVE_BACKEND", ArchiveBackendFile),
		ArchiveFile:    getenv("ARCHIVE_FILE", "game_archive.json"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsDir:  getenv("MIGRATIONS_DIR", "db/migration"),
		S3: S3{
			Bucket:          os.Getenv("S3_BUCKET"),
			Key:             getenv("S3_KEY", "game_archive.json"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			Region:          os.Getenv("S3_REGION"),
			AccessKeyId:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
	}

	if cfg.Stage != StageDev && cfg.Stage != StageProd {
		return Config{}, fmt.Errorf("stage must be either dev or prod, got: %s", cfg.Stage)
	}

	port, err := strconv.Atoi(getenv("PORT", "8000"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT: %s", os.Getenv("PORT"))
	}
	cfg.Port = port

	turnDuration, err := parseDuration(getenv("TURN_DURATION", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TURN_DURATION: %w", err)
	}
	cfg.TurnDuration = turnDuration

	switch cfg.ArchiveBackend {
	case ArchiveBackendFile:
	case ArchiveBackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres archive backend")
		}
	case ArchiveBackendS3:
		if cfg.S3.Bucket == "" {
			return Config{}, errors.New("S3_BUCKET is required for the s3 archive backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown ARCHIVE_BACKEND: %s", cfg.ArchiveBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseDuration accepts Go durations ("45s") or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("must be positive: %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive: %s", s)
	}
	return d, nil
}
