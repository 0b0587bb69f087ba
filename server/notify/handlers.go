package servernotify

import (
	"archive/zip"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/natefinch/atomic"
	"github.com/sipb/hydrant/collection/services"
)

const ArtifactName = "built-site"
const SignatureHeader = "X-Hub-Signature-256"

const maxPayloadBytes = 5 << 20

var ErrUnsafeArchive = errors.New("archive entry escapes the site directory")

type notifyHandler struct {
	config Config
	client *resty.Client
	logger *slog.Logger
	// one unpack at a time
	mu sync.Mutex
}

type workflowJobEvent struct {
	Action      string `json:"action"`
	WorkflowJob struct {
		RunID int64 `json:"run_id"`
	} `json:"workflow_job"`
}

type artifact struct {
	Name               string `json:"name"`
	ArchiveDownloadURL string `json:"archive_download_url"`
}

type artifactList struct {
	Artifacts []artifact `json:"artifacts"`
}

// ValidSignature checks a github sha256 signature header against body. An
// empty secret never validates.
func ValidSignature(secret []byte, body []byte, header string) bool {
	if len(secret) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

func (h *notifyHandler) notify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "could not read payload", http.StatusBadRequest)
		return
	}
	if !ValidSignature([]byte(h.config.Secret), body, r.Header.Get(SignatureHeader)) {
		h.logger.Warn("Rejected webhook with a bad digest", "remote", r.RemoteAddr)
		http.Error(w, "bad digest", http.StatusUnauthorized)
		return
	}

	var event workflowJobEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "payload is not json", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	// github also sends queued and in_progress
	if event.Action != "completed" {
		fmt.Fprintf(w, "Ignoring %s job\n", event.Action)
		return
	}
	if event.WorkflowJob.RunID == 0 {
		http.Error(w, "no job id", http.StatusBadRequest)
		return
	}

	message, err := h.fetchSite(r.Context(), event.WorkflowJob.RunID)
	if err != nil {
		h.logger.Error("Could not fetch the built site", "run", event.WorkflowJob.RunID, "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.logger.Info(message, "run", event.WorkflowJob.RunID)
	fmt.Fprintln(w, message)
}

func (h *notifyHandler) fetchSite(ctx context.Context, runID int64) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var list artifactList
	url := fmt.Sprintf("%s/repos/%s/actions/runs/%d/artifacts", h.config.APIURL, h.config.Repo, runID)
	resp, err := h.client.R().SetContext(ctx).SetResult(&list).Get(url)
	if err != nil {
		return "", services.RespOrStatusErr(nil, err)
	}
	if err := services.RespOrStatusErr(resp.RawResponse, nil); err != nil {
		return "", fmt.Errorf("bad artifact fetch response: %w", err)
	}

	names := make([]string, 0, len(list.Artifacts))
	for _, a := range list.Artifacts {
		names = append(names, a.Name)
		if a.Name != ArtifactName || a.ArchiveDownloadURL == "" {
			continue
		}
		if err := h.download(ctx, a.ArchiveDownloadURL); err != nil {
			return "", err
		}
		return "Fetched artifact successfully", nil
	}
	return fmt.Sprintf("Could not find artifact among %d: %s", len(list.Artifacts), strings.Join(names, ", ")), nil
}

func (h *notifyHandler) download(ctx context.Context, url string) error {
	archive, err := os.CreateTemp("", "build_artifact-*.zip")
	if err != nil {
		return err
	}
	archive.Close()
	defer os.Remove(archive.Name())

	resp, err := h.client.R().
		SetContext(ctx).
		SetAuthToken(h.config.Token).
		SetOutput(archive.Name()).
		Get(url)
	if err != nil {
		return services.RespOrStatusErr(nil, err)
	}
	if err := services.RespOrStatusErr(resp.RawResponse, nil); err != nil {
		return fmt.Errorf("bad artifact download response: %w", err)
	}
	return Extract(archive.Name(), h.config.SiteDir)
}

// Extract unpacks a zip into dir, each file is replaced atomically.
func Extract(path string, dir string) error {
	reader, err := zip.OpenReader(path)
	if errors.Is(err, zip.ErrInsecurePath) {
		reader.Close()
		return fmt.Errorf("%w: %w", ErrUnsafeArchive, err)
	}
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer reader.Close()

	root := filepath.Clean(dir)
	for _, f := range reader.File {
		target := filepath.Join(root, f.Name)
		if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("%w: %s", ErrUnsafeArchive, f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := atomic.WriteFile(target, rc); err != nil {
		return fmt.Errorf("writing %s: %w", f.Name, err)
	}
	return nil
}
