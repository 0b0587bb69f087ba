package data

import (
	"os"
	"path/filepath"
	"testing"

	classentry "github.com/sipb/hydrant/data/class-entry"
)

func TestStoreWriteRead(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested"))
	if store.Exists("catalog.json") {
		t.Fatal("fresh store should be empty")
	}

	in := map[string]classentry.CatalogEntry{
		"6.3900": {Final: true, Half: classentry.FirstHalf, URL: "https://introml.mit.edu"},
	}
	if err := store.Write("catalog.json", in); err != nil {
		t.Fatal(err)
	}
	if !store.Exists("catalog.json") {
		t.Fatal("snapshot was not written")
	}

	var out map[string]classentry.CatalogEntry
	if err := store.Read("catalog.json", &out); err != nil {
		t.Fatal(err)
	}
	if out["6.3900"] != in["6.3900"] {
		t.Fatalf("got %+v", out["6.3900"])
	}
}

func TestStoreKeepOrEmpty(t *testing.T) {
	store := NewStore(t.TempDir())

	kept, err := store.KeepOrEmpty("cim.json")
	if err != nil {
		t.Fatal(err)
	}
	if kept {
		t.Fatal("nothing to keep yet")
	}
	data, err := os.ReadFile(store.Path("cim.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Fatalf("expected an empty object got %s", data)
	}

	if err := store.Write("cim.json", map[string]classentry.CIMEntry{"6.1800": {CIM: []string{"6-3"}}}); err != nil {
		t.Fatal(err)
	}
	kept, err = store.KeepOrEmpty("cim.json")
	if err != nil {
		t.Fatal(err)
	}
	if !kept {
		t.Fatal("previous snapshot should be kept")
	}
	var out map[string]classentry.CIMEntry
	if err := store.Read("cim.json", &out); err != nil {
		t.Fatal(err)
	}
	if len(out["6.1800"].CIM) != 1 {
		t.Fatalf("previous snapshot was overwritten: %v", out)
	}
}

func TestReadLatestTerm(t *testing.T) {
	dir := t.TempDir()
	contents := `{
  // kept by hand
  "semester": {
    "urlName": "s26",
    "startDate": "2026-02-02",
    "h1EndDate": "2026-03-20",
    "h2StartDate": "2026-03-30",
    "endDate": "2026-05-12",
    "holidayDates": ["2026-02-16", "2026-04-20",],
  },
  "preSemester": {
    "urlName": "i26",
    "startDate": "2026-01-05",
    "endDate": "2026-01-30",
  },
}`
	if err := os.WriteFile(filepath.Join(dir, LatestTermFile), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	latest, err := ReadLatestTerm(dir)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Semester.UrlName != "s26" || latest.PreSemester.UrlName != "i26" {
		t.Fatalf("got %+v", latest)
	}
	if len(latest.Semester.HolidayDates) != 2 {
		t.Fatalf("holidays %v", latest.Semester.HolidayDates)
	}

	if _, err := ReadLatestTerm(t.TempDir()); err == nil {
		t.Fatal("expected a missing file error")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("HYDRANT_DATA_DIR", "/tmp/hydrant-data")
	t.Setenv("HYDRANT_PE_DIR", "")
	t.Setenv("HYDRANT_WEBHOOK_SECRET", "hush")

	cfg := ConfigFromEnv()
	if cfg.DataDir != "/tmp/hydrant-data" {
		t.Fatalf("data dir %s", cfg.DataDir)
	}
	if cfg.PEDir != filepath.Join("/tmp/hydrant-data", "pe") {
		t.Fatalf("empty variables should fall back to the default, got %s", cfg.PEDir)
	}
	if cfg.WebhookSecret != "hush" {
		t.Fatalf("secret %s", cfg.WebhookSecret)
	}
}
