package main

import (
	"flag"
	"os"
	"strings"

	"github.com/himanishpuri/Rifft/internal/onset"
	"github.com/himanishpuri/Rifft/pkg/logger"
	"github.com/himanishpuri/Rifft/pkg/rifft"
	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
)

var (
	port           int
	dbPath         string
	tempDir        string
	musicDir       string
	sampleRate     int
	allowedOrigins string
)

func init() {
	// .env values fill in whatever the environment does not already set.
	_ = godotenv.Load()

	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("RIFFT_DB_PATH", "rifft.sqlite3"), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("RIFFT_TEMP_DIR", "/tmp"), "Temporary directory")
	flag.StringVar(&musicDir, "music", getEnvOrDefault("RIFFT_MUSIC_DIR", "music"), "Directory where uploaded tracks are kept")
	flag.IntVar(&sampleRate, "rate", onset.DefaultSampleRate, "Analysis sample rate")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()
	log := logger.GetLogger().With("[server]")

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	service, err := rifft.NewService(
		rifft.WithDBPath(dbPath),
		rifft.WithTempDir(tempDir),
		rifft.WithSampleRate(sampleRate),
		rifft.WithLogger(log),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %s", xerrors.Sprint(xerrors.New(err)))
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		MusicDir:       musicDir,
		SampleRate:     sampleRate,
		AllowedOrigins: origins,
	}

	server := NewServer(service, config, log)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %s", xerrors.Sprint(xerrors.New(err)))
	}
}
