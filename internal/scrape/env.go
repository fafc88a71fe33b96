package scrape

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Env gives sources read-only access to their credentials. Secrets live as
// one file per credential in a directory (the systemd LoadCredential
// convention), so nothing secret passes through process environment.
type Env struct {
	credentialsDir string
}

// NewEnv builds an Env reading credentials from dir. An empty dir is valid
// and simply makes every credential lookup come back empty.
func NewEnv(credentialsDir string) *Env {
	return &Env{credentialsDir: credentialsDir}
}

// Credential returns the trimmed contents of the named credential file, or
// an empty string when the directory is unset or the file does not exist.
func (e *Env) Credential(name string) string {
	if e.credentialsDir == "" {
		return ""
	}
	b, err := os.ReadFile(filepath.Join(e.credentialsDir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// RequireCredential is Credential but fails when the value is missing, for
// sources that cannot proceed without it.
func (e *Env) RequireCredential(name string) (string, error) {
	v := e.Credential(name)
	if v == "" {
		return "", fmt.Errorf("missing required credential %q", name)
	}
	return v, nil
}
