package servernotify

import (
	"archive/zip"
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sipb/hydrant/collection/services/testservice"
)

const testSecret = "hunter2"
const testToken = "ghp_test"

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func siteArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(f, content); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fakeGithub struct {
	*httptest.Server
	artifactRequests atomic.Int32
	authorization    atomic.Value
}

// newFakeGithub lists artifact names for run 42, built-site downloads archive.
func newFakeGithub(t *testing.T, archive []byte, names ...string) *fakeGithub {
	t.Helper()
	g := &fakeGithub{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/sipb/hydrant/actions/runs/42/artifacts", func(w http.ResponseWriter, r *http.Request) {
		g.artifactRequests.Add(1)
		var artifacts []string
		for _, name := range names {
			artifacts = append(artifacts, fmt.Sprintf(
				`{"name": %q, "archive_download_url": "%s/download/%s"}`, name, g.URL, name))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"total_count": %d, "artifacts": [%s]}`, len(names), strings.Join(artifacts, ","))
	})
	mux.HandleFunc("GET /download/{name}", func(w http.ResponseWriter, r *http.Request) {
		g.authorization.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/zip")
		w.Write(archive)
	})
	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Close)
	return g
}

func newRouter(t *testing.T, github *fakeGithub, siteDir string) chi.Router {
	t.Helper()
	logger, _ := testservice.NewLogger()
	var r chi.Router = chi.NewRouter()
	err := PopulateNotifyRoutes(&r, Config{
		Secret:  testSecret,
		Token:   testToken,
		SiteDir: siteDir,
		APIURL:  github.URL,
	}, testservice.NewClient(logger), *slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func post(r chi.Router, body string, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const completed = `{"action": "completed", "workflow_job": {"run_id": 42}}`

func TestNotifyUnpacksSite(t *testing.T) {
	archive := siteArchive(t, map[string]string{
		"index.html":    "<html>hydrant</html>",
		"assets/app.js": "console.log('hi')",
	})
	github := newFakeGithub(t, archive, "coverage", ArtifactName)
	siteDir := t.TempDir()

	rec := post(newRouter(t, github, siteDir), completed, sign(completed))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Fetched artifact successfully") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	index, err := os.ReadFile(filepath.Join(siteDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(index) != "<html>hydrant</html>" {
		t.Fatalf("index.html is %s", index)
	}
	if _, err := os.Stat(filepath.Join(siteDir, "assets", "app.js")); err != nil {
		t.Fatal(err)
	}
	if auth, _ := github.authorization.Load().(string); auth != "Bearer "+testToken {
		t.Fatalf("download was sent authorization %q", auth)
	}
}

func TestNotifyRejectsBadSignature(t *testing.T) {
	github := newFakeGithub(t, nil, ArtifactName)
	r := newRouter(t, github, t.TempDir())

	for _, signature := range []string{"", "sha256=00", sign(completed + " ")} {
		rec := post(r, completed, signature)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("signature %q got %d", signature, rec.Code)
		}
	}
	if n := github.artifactRequests.Load(); n != 0 {
		t.Fatalf("github was asked %d times", n)
	}
}

func TestNotifyIgnoresUnfinishedJobs(t *testing.T) {
	github := newFakeGithub(t, nil, ArtifactName)
	body := `{"action": "in_progress", "workflow_job": {"run_id": 42}}`

	rec := post(newRouter(t, github, t.TempDir()), body, sign(body))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Ignoring in_progress") {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if n := github.artifactRequests.Load(); n != 0 {
		t.Fatalf("github was asked %d times", n)
	}
}

func TestNotifyWithoutRunID(t *testing.T) {
	github := newFakeGithub(t, nil)
	body := `{"action": "completed", "workflow_job": {}}`

	rec := post(newRouter(t, github, t.TempDir()), body, sign(body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestNotifyMissingArtifact(t *testing.T) {
	github := newFakeGithub(t, nil, "coverage", "lint")

	rec := post(newRouter(t, github, t.TempDir()), completed, sign(completed))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Could not find artifact among 2: coverage, lint") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestNotifyRejectsEscapingArchive(t *testing.T) {
	archive := siteArchive(t, map[string]string{"../outside.html": "gotcha"})
	github := newFakeGithub(t, archive, ArtifactName)
	parent := t.TempDir()
	siteDir := filepath.Join(parent, "site")

	rec := post(newRouter(t, github, siteDir), completed, sign(completed))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(parent, "outside.html")); err == nil {
		t.Fatal("archive wrote outside the site directory")
	}
}

func TestExtractUnsafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.zip")
	if err := os.WriteFile(path, siteArchive(t, map[string]string{"a/../../b": "x"}), 0o644); err != nil {
		t.Fatal(err)
	}
	err := Extract(path, t.TempDir())
	if !errors.Is(err, ErrUnsafeArchive) {
		t.Fatalf("expected unsafe archive got %v", err)
	}
}

func TestValidSignature(t *testing.T) {
	body := []byte(completed)
	if !ValidSignature([]byte(testSecret), body, sign(completed)) {
		t.Fatal("expected the signature to match")
	}
	if ValidSignature(nil, body, sign(completed)) {
		t.Fatal("an empty secret should never validate")
	}
	if ValidSignature([]byte("other"), body, sign(completed)) {
		t.Fatal("a different secret should not validate")
	}
}
