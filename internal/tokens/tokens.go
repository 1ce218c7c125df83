// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

// Package tokens manages the locally cached API credentials: the GitHub
// token and the PivotalTracker token. Each is a newline-delimited plaintext
// file in the user config directory, read on demand and written after an
// interactive prompt.
package tokens

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/scaladm/scaladm/internal/log"
)

const (
	// GitHubFile is the cache file holding the GitHub API token.
	GitHubFile = "github_token"
	// PivotalTrackerFile is the cache file holding the PivotalTracker token.
	PivotalTrackerFile = "pivotaltracker_token"
)

// Dir resolves the token cache directory.
// Precedence:
//  1. SCALADM_CONFIG_DIR, if set and non-empty
//  2. os.UserConfigDir()/scaladm
//
// Returns ("", false) if a base cannot be resolved.
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("SCALADM_CONFIG_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "scaladm"), true
	}
	return "", false
}

// Read returns the first line of the named token file, trimmed. The second
// return is false when the file is missing or empty.
func Read(name string) (string, bool) {
	base, ok := Dir()
	if !ok {
		return "", false
	}

	f, err := os.Open(filepath.Join(base, name))
	if err != nil {
		return "", false
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", false
	}
	token := strings.TrimSpace(scanner.Text())
	return token, token != ""
}

// Write persists a token to the named file with owner-only permissions,
// creating the cache directory if needed.
func Write(name, token string) error {
	base, ok := Dir()
	if !ok {
		return fmt.Errorf("no config directory available")
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	path := filepath.Join(base, name)
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write token file: %w", err)
	}
	log.Debugf("token written: path=%s", path)
	return nil
}

// Prompt reads a secret from the terminal without echoing input.
var Prompt = func(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// GitHub returns the GitHub API token, prompting and caching it on first use.
func GitHub() (string, error) {
	if token, ok := Read(GitHubFile); ok {
		return token, nil
	}

	token, err := Prompt("GitHub API token")
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("no GitHub token provided")
	}

	if err := Write(GitHubFile, token); err != nil {
		log.Warnf("failed to cache GitHub token: %v", err)
	}
	return token, nil
}

// PivotalTracker returns the PivotalTracker API token if available. The token
// is optional; an empty answer at the prompt returns "" with no error and the
// caller skips the webhook.
func PivotalTracker() (string, error) {
	if token, ok := Read(PivotalTrackerFile); ok {
		return token, nil
	}

	token, err := Prompt("PivotalTracker API token (blank to skip)")
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", nil
	}

	if err := Write(PivotalTrackerFile, token); err != nil {
		log.Warnf("failed to cache PivotalTracker token: %v", err)
	}
	return token, nil
}
