package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "vault")
	path := writeConfig(t, "name: ${SAMPLE_NAME}\ncount: 3\n")

	var got sample
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "vault" || got.Count != 3 {
		t.Errorf("got = %+v, want {vault 3}", got)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "name: x\ncuont: 3\n")
	var got sample
	if err := Load(path, &got); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeConfig(t, "count: -1\n")
	var got sample
	err := Load(path, &got)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "")
	got := sample{Name: "default", Count: 1}
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "default" {
		t.Errorf("name = %q, want %q", got.Name, "default")
	}
}

func TestLoadOptional_MissingFile(t *testing.T) {
	got := sample{Name: "default"}
	if err := LoadOptional(filepath.Join(t.TempDir(), "none.yaml"), &got); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if got.Name != "default" {
		t.Errorf("name = %q, want %q", got.Name, "default")
	}

	bad := sample{Count: -1}
	if err := LoadOptional(filepath.Join(t.TempDir(), "none.yaml"), &bad); err == nil {
		t.Error("expected defaults to be validated")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var got sample
	if err := Load(filepath.Join(t.TempDir(), "none.yaml"), &got); err == nil {
		t.Error("expected error for missing file")
	}
}
