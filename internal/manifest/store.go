package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the manifest as indented JSON, creating parent directories
// as needed.
func Save(path string, m *AnalysisManifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Load reads a manifest previously written by Save.
func Load(path string) (*AnalysisManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m AnalysisManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if m.Modules == nil {
		m.Modules = make(map[string]*ModuleInfo)
	}

	return &m, nil
}

// SaveSyncState persists the sync state document.
func SaveSyncState(path string, s *SyncState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// LoadSyncState reads the persisted sync state. A missing file is a
// normal first-run condition and returns (nil, nil).
func LoadSyncState(path string) (*SyncState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}

	var s SyncState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse sync state: %w", err)
	}

	return &s, nil
}
