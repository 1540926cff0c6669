package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arjun/caproute/backend/internal/repository"
)

// WriteDataset serializes the dataset into jurisdictions.json and
// corridors.json under the provided directory, matching the file-source
// layout.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	jurisdictionsPath := filepath.Join(dir, repository.JurisdictionsFile)
	if err := writeJSON(jurisdictionsPath, dataset.Jurisdictions); err != nil {
		return err
	}

	corridorsPath := filepath.Join(dir, repository.CorridorsFile)
	if err := writeJSON(corridorsPath, dataset.Corridors); err != nil {
		return err
	}

	return nil
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
