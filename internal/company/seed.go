package company

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

//go:embed seed/companies.json
var seedData []byte

// SeedDataset returns the bundled sample directory.
func SeedDataset() ([]Company, error) {
	var companies []Company
	if err := json.Unmarshal(seedData, &companies); err != nil {
		return nil, fmt.Errorf("company: decode seed dataset: %w", err)
	}
	return companies, nil
}

// ReadDataset decodes a JSON array of companies, e.g. an exported dataset.
func ReadDataset(r io.Reader) ([]Company, error) {
	var companies []Company
	if err := json.NewDecoder(r).Decode(&companies); err != nil {
		return nil, fmt.Errorf("company: decode dataset: %w", err)
	}
	return companies, nil
}

// LoadDataset reads path, or the bundled dataset when path is empty.
func LoadDataset(path string) ([]Company, error) {
	if path == "" {
		return SeedDataset()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("company: open dataset: %w", err)
	}
	defer f.Close()
	return ReadDataset(f)
}
