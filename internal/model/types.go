package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Brownie44l1/clothing-api/internal/prediction"
)

// Metadata describes the labels and input geometry that go with a model artifact.
type Metadata struct {
	Classes   []string `json:"classes"`
	ImageSize int      `json:"image_size"`
}

// DefaultMetadata is the bundled clothing model's label set.
func DefaultMetadata() Metadata {
	return Metadata{Classes: prediction.Classes(), ImageSize: 224}
}

// LoadMetadata reads a metadata JSON file. Fields missing from the file keep
// their defaults. An empty path returns DefaultMetadata.
func LoadMetadata(path string) (Metadata, error) {
	metadata := DefaultMetadata()
	if path == "" {
		return metadata, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var parsed Metadata
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(parsed.Classes) > 0 {
		metadata.Classes = parsed.Classes
	}
	if parsed.ImageSize > 0 {
		metadata.ImageSize = parsed.ImageSize
	}
	return metadata, nil
}
