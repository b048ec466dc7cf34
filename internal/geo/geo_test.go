package geo

import (
	"path/filepath"
	"testing"

	"speedwatch/internal/model"
)

func TestEnrich_MissingConfiguredDatabase(t *testing.T) {
	e := Enricher{Path: filepath.Join(t.TempDir(), "GeoLite2-ASN.mmdb")}
	info := model.IPInfo{IP: "203.0.113.7"}

	ok, err := e.Enrich(&info)
	if err == nil {
		t.Fatal("expected error for a configured database that does not exist")
	}
	if ok || info.ASN != 0 {
		t.Errorf("Enrich() = %v, ASN %d; want no enrichment", ok, info.ASN)
	}
	if got := e.Database(); got != "" {
		t.Errorf("Database() = %q, want empty", got)
	}
}

func TestEnrich_InvalidAddress(t *testing.T) {
	info := model.IPInfo{IP: "not-an-ip"}
	ok, err := Enricher{Path: "/nonexistent.mmdb"}.Enrich(&info)
	if err != nil || ok {
		t.Errorf("Enrich(invalid) = %v, %v; want false, nil", ok, err)
	}
}

func TestEnrich_NoSystemDatabase(t *testing.T) {
	saved := SystemPaths
	SystemPaths = []string{filepath.Join(t.TempDir(), "missing.mmdb")}
	t.Cleanup(func() { SystemPaths = saved })

	info := model.IPInfo{IP: "203.0.113.7"}
	ok, err := Enricher{}.Enrich(&info)
	if err != nil || ok {
		t.Errorf("Enrich() = %v, %v; want false, nil when no database is installed", ok, err)
	}
}
