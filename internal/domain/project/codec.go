package project

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Decode parses a persisted project record. Unknown fields are ignored and
// missing optional fields are left absent so the accessors apply defaults.
func Decode(data []byte) (*Project, error) {
	var proj Project
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if proj.ID == "" {
		return nil, fmt.Errorf("decode project: %w: missing id", ErrInvalidInput)
	}
	if proj.Path == "" || !filepath.IsAbs(proj.Path) {
		return nil, fmt.Errorf("decode project %s: %w: worktree path %q is not absolute", proj.ID, ErrInvalidInput, proj.Path)
	}
	if proj.LinesThreshold != nil && *proj.LinesThreshold <= 0 {
		return nil, fmt.Errorf("decode project %s: %w: snapshot lines threshold must be positive", proj.ID, ErrInvalidInput)
	}
	return &proj, nil
}

// Encode serializes a project record for storage.
func Encode(proj *Project) ([]byte, error) {
	data, err := json.Marshal(proj)
	if err != nil {
		return nil, fmt.Errorf("encode project %s: %w", proj.ID, err)
	}
	return data, nil
}
