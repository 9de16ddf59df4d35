package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	p, err := New("  Jane Doe  ", "\nStaff engineer.\n")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Name != "Jane Doe" {
		t.Errorf("Expected trimmed name, got %q", p.Name)
	}
	if p.Biography != "Staff engineer." {
		t.Errorf("Expected trimmed biography, got %q", p.Biography)
	}

	if _, err := New("", "bio"); err == nil {
		t.Error("Expected error for empty name")
	}
	if _, err := New("Jane", "   "); err == nil {
		t.Error("Expected error for blank biography")
	}
}

func TestLoad_SummaryOnly(t *testing.T) {
	dir := t.TempDir()
	summaryPath := filepath.Join(dir, "summary.txt")
	if err := os.WriteFile(summaryPath, []byte("Staff engineer at Acme."), 0o644); err != nil {
		t.Fatalf("Failed to write summary: %v", err)
	}

	p, err := Load("Jane Doe", summaryPath, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !strings.Contains(p.Biography, "## Summary:\nStaff engineer at Acme.") {
		t.Errorf("Biography missing summary section: %q", p.Biography)
	}
	if strings.Contains(p.Biography, "## Profile:") {
		t.Error("No profile section expected without a profile file")
	}
}

func TestLoad_WithExtendedProfile(t *testing.T) {
	dir := t.TempDir()
	summaryPath := filepath.Join(dir, "summary.txt")
	profilePath := filepath.Join(dir, "profile.txt")
	if err := os.WriteFile(summaryPath, []byte("Staff engineer."), 0o644); err != nil {
		t.Fatalf("Failed to write summary: %v", err)
	}
	if err := os.WriteFile(profilePath, []byte("10 years of Go."), 0o644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	p, err := Load("Jane Doe", summaryPath, profilePath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !strings.Contains(p.Biography, "## Profile:\n10 years of Go.") {
		t.Errorf("Biography missing profile section: %q", p.Biography)
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load("Jane", filepath.Join(dir, "missing.txt"), ""); err == nil {
		t.Error("Expected error for missing summary file")
	}

	summaryPath := filepath.Join(dir, "summary.txt")
	if err := os.WriteFile(summaryPath, []byte("Staff engineer."), 0o644); err != nil {
		t.Fatalf("Failed to write summary: %v", err)
	}
	if _, err := Load("Jane", summaryPath, filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("Expected error for missing profile file")
	}
}
