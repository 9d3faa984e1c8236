package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Loader defines methods to load credential material and persist the token.
type Loader interface {
	LoadCredentials() ([]byte, error)
	LoadToken() ([]byte, error)
	SaveToken(token []byte) error
}

// FileLoader implements Loader by reading from the data directory.
type FileLoader struct {
	dataDir string
}

// NewFileLoader initializes a FileLoader rooted at the data directory.
func NewFileLoader(dataDir string) *FileLoader {
	return &FileLoader{dataDir: dataDir}
}

// LoadCredentials reads the credentials.json file (Google client secret).
func (f *FileLoader) LoadCredentials() ([]byte, error) {
	credentialsPath := filepath.Join(f.dataDir, "credentials.json")
	bytes, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s): %w", credentialsPath, err)
	}
	return bytes, nil
}

// LoadToken reads the token.json file.
func (f *FileLoader) LoadToken() ([]byte, error) {
	tokenPath := filepath.Join(f.dataDir, "token.json")
	bytes, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// SaveToken writes the token.json file atomically.
func (f *FileLoader) SaveToken(token []byte) error {
	if err := os.MkdirAll(f.dataDir, 0o700); err != nil {
		return fmt.Errorf("unable to create data directory: %w", err)
	}
	tokenPath := filepath.Join(f.dataDir, "token.json")
	if err := renameio.WriteFile(tokenPath, token, 0o600); err != nil {
		return fmt.Errorf("unable to save token: %w", err)
	}
	return nil
}
