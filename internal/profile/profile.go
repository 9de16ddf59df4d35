// Package profile holds the persona the agent represents.
package profile

import (
	"fmt"
	"os"
	"strings"
)

// Profile is the immutable persona bundle: who the agent speaks as and the
// biography text every prompt is grounded in. Construct it once at startup;
// it is safe for unsynchronized concurrent reads.
type Profile struct {
	Name      string
	Biography string
}

// New validates and constructs a Profile.
func New(name, biography string) (Profile, error) {
	name = strings.TrimSpace(name)
	biography = strings.TrimSpace(biography)

	if name == "" {
		return Profile{}, fmt.Errorf("persona name cannot be empty")
	}
	if biography == "" {
		return Profile{}, fmt.Errorf("persona biography cannot be empty")
	}

	return Profile{Name: name, Biography: biography}, nil
}

// Load builds a Profile from a career summary file and an optional extended
// profile file (pre-extracted text, e.g. from a LinkedIn export). The two
// sections are concatenated into the biography.
func Load(name, summaryPath, profilePath string) (Profile, error) {
	summary, err := os.ReadFile(summaryPath)
	if err != nil {
		return Profile{}, fmt.Errorf("read summary: %w", err)
	}

	var b strings.Builder
	b.WriteString("## Summary:\n")
	b.Write(summary)

	if profilePath != "" {
		extended, err := os.ReadFile(profilePath)
		if err != nil {
			return Profile{}, fmt.Errorf("read profile: %w", err)
		}
		b.WriteString("\n\n## Profile:\n")
		b.Write(extended)
	}

	return New(name, b.String())
}
