package servernotify

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-resty/resty/v2"
)

const DEFAULT_API_URL = "https://api.github.com"
const DEFAULT_REPO = "sipb/hydrant"

type Config struct {
	// shared with github to sign webhook payloads
	Secret string
	// used to download artifacts
	Token string
	// where the built site is unpacked
	SiteDir string
	APIURL  string
	Repo    string
}

func PopulateNotifyRoutes(r *chi.Router, config Config, client *resty.Client, logger slog.Logger) error {
	if config.APIURL == "" {
		config.APIURL = DEFAULT_API_URL
	}
	if config.Repo == "" {
		config.Repo = DEFAULT_REPO
	}
	h := &notifyHandler{
		config: config,
		client: client,
		logger: &logger,
	}

	(*r).Use(middleware.AllowContentType("application/json"))
	(*r).Post("/", h.notify)

	return nil
}
