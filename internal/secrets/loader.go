package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
	// Env lists environment variables consulted in order when neither File
	// nor Value is set.
	Env []string
}

// ErrNotConfigured is returned when a source has no value at all.
var ErrNotConfigured = errors.New("not configured")

// Load returns the resolved secret value from the provided source. Precedence
// is File, then Value, then the first non-empty Env variable. The returned
// secret is always trimmed.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
		src.File = file
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" && src.File == "" {
		for _, key := range src.Env {
			if value := strings.TrimSpace(os.Getenv(key)); value != "" {
				secret = value
				break
			}
		}
	}

	if secret == "" {
		if src.File != "" {
			return "", fmt.Errorf("%s file %q is empty", name, src.File)
		}
		return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
	}

	return secret, nil
}
