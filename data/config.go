package data

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sipb/hydrant/collection/projectpath"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	// where per source snapshots are written
	DataDir string
	// where latestTerm.json lives and packaged snapshots go
	PublicDir string
	// directory of DAPER csv exports
	PEDir string
	// where override tables are read from
	OverridesDir string

	WebhookSecret string
	GithubToken   string
	// directory the built site artifact is unpacked into
	SiteDir string
}

var (
	config     Config
	configOnce sync.Once
)

func init() {
	err := godotenv.Load(filepath.Join(projectpath.Root, ".env"))
	// a missing .env is fine, the defaults below cover local runs
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("Error loading .env file: %v", err)
	}
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// GetConfig reads the environment once. Later changes to the environment are
// not seen.
func GetConfig() Config {
	configOnce.Do(func() {
		config = ConfigFromEnv()
	})
	return config
}

func ConfigFromEnv() Config {
	dataDir := getenv("HYDRANT_DATA_DIR", filepath.Join(projectpath.Root, "scrapers"))
	publicDir := getenv("HYDRANT_PUBLIC_DIR", filepath.Join(projectpath.Root, "public"))
	return Config{
		DataDir:       dataDir,
		PublicDir:     publicDir,
		PEDir:         getenv("HYDRANT_PE_DIR", filepath.Join(dataDir, "pe")),
		OverridesDir:  getenv("HYDRANT_OVERRIDES_DIR", filepath.Join(dataDir, "overrides.toml.d")),
		WebhookSecret: os.Getenv("HYDRANT_WEBHOOK_SECRET"),
		GithubToken:   os.Getenv("HYDRANT_GITHUB_TOKEN"),
		SiteDir:       getenv("HYDRANT_SITE_DIR", filepath.Join(projectpath.Root, "site")),
	}
}
