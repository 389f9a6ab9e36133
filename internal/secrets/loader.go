// Package secrets resolves credentials such as the Gemini API key and the
// hh.ru token from inline values or files.
package secrets

import (
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
	// Optional makes an unconfigured secret resolve to an empty string.
	Optional bool
}

// Load returns the trimmed secret. File takes precedence over Value. An
// unconfigured secret is an error unless the source is optional; an empty
// file is always an error.
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
	}

	secret := strings.TrimSpace(src.Value)
	if secret != "" {
		return secret, nil
	}

	switch {
	case file != "":
		return "", fmt.Errorf("%s file %q is empty", name, file)
	case src.Optional:
		return "", nil
	default:
		return "", fmt.Errorf("%s is not configured", name)
	}
}
