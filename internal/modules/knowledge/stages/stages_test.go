package stages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultOrdering(t *testing.T) {
	v := Default()
	intro, _ := v.Rank("introduction")
	climax, _ := v.Rank("Climax")
	if intro >= climax {
		t.Fatalf("expected introduction before climax")
	}
	if r, ok := v.Rank("Rising Action"); !ok || r != 1 {
		t.Fatalf("expected normalized rising action rank 1, got %d %v", r, ok)
	}
	if v.Valid("epilogue") {
		t.Fatalf("unknown stage must be rejected")
	}
	if v.First() != "introduction" {
		t.Fatalf("unexpected first stage %q", v.First())
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.yaml")
	if err := os.WriteFile(path, []byte("stages:\n  - setup\n  - confrontation\n  - resolution\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"setup", "confrontation", "resolution"}, v.Stages()); diff != "" {
		t.Fatalf("stages mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsDuplicatesAndEmpty(t *testing.T) {
	if _, err := Parse([]byte("stages: [a, A]")); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := Parse([]byte("stages: []")); err == nil {
		t.Fatalf("expected empty error")
	}
}
