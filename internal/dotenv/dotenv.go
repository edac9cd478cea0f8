// Package dotenv reads .env files so local runs can carry API keys
// without exporting them in the shell.
package dotenv

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Parse extracts KEY=VALUE pairs from dotenv content. Blank lines and
// comments are skipped, a leading "export " is tolerated, and matching
// single or double quotes around a value are stripped.
func Parse(content []byte) map[string]string {
	vars := make(map[string]string)
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars[key] = unquote(strings.TrimSpace(val))
	}
	return vars
}

func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}

// LoadFile reads a dotenv file and sets every pair that is not already in
// the process environment; real environment variables always win. A
// missing file is not an error.
func LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file %q: %w", path, err)
	}

	for key, val := range Parse(content) {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("set env %q from %q: %w", key, path, err)
		}
	}
	return nil
}
