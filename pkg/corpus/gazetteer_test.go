package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGazetteerSortsLongestFirst(t *testing.T) {
	content := `{
		"locations_norm": {
			"values": ["bihar", "west champaran bihar", "delhi"],
			"values_roman_norm": ["bihar", "west champaran bihar", "delhi"]
		}
	}`
	path := filepath.Join(t.TempDir(), "gazetteer.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing gazetteer: %v", err)
	}

	g, err := LoadGazetteer(path)
	if err != nil {
		t.Fatalf("LoadGazetteer returned error: %v", err)
	}

	loc := g["locations_norm"]
	if loc.Values[0] != "west champaran bihar" {
		t.Errorf("expected longest value first, got %v", loc.Values)
	}
}

func TestLoadGazetteerAcceptsYAMLSibling(t *testing.T) {
	content := `
locations_norm:
  values:
    - bihar
    - west champaran bihar
  values_roman_norm:
    - bihar
    - west champaran bihar
`
	path := filepath.Join(t.TempDir(), "gazetteer.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing gazetteer: %v", err)
	}

	g, err := LoadGazetteer(path)
	if err != nil {
		t.Fatalf("LoadGazetteer returned error: %v", err)
	}

	loc := g["locations_norm"]
	if len(loc.Values) != 2 || loc.Values[0] != "west champaran bihar" {
		t.Errorf("expected longest value first from YAML source, got %v", loc.Values)
	}
}
