package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "particles.txt")
	content := "# comment line\n" +
		"0.0 0.0 0.0 1.0 1\n" +
		"1.0 2.0 3.0 0.5 2\n" +
		"\n" +
		"4.0 5.0 6.0 2.0 1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	particles, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture returned error: %v", err)
	}
	if particles.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", particles.Len())
	}
	if particles.Pos(1) != [3]float64{1.0, 2.0, 3.0} {
		t.Errorf("Pos(1) = %v, want (1,2,3)", particles.Pos(1))
	}
	if particles.Tracer[1] != 2 {
		t.Errorf("Tracer[1] = %d, want 2", particles.Tracer[1])
	}
}

func TestLoadFixtureBadField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(path, []byte("0 0 0 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Error("expected error for malformed fixture line")
	}
}

func TestValidateRejectsBadTracer(t *testing.T) {
	p := NewParticles(2)
	p.Tracer[0] = 1
	p.Tracer[1] = 3
	if err := p.Validate(); err == nil {
		t.Error("expected error for invalid tracer tag")
	}
}
