package store

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedData []byte

// SeedTables returns the sample dataset the local fallback store is
// initialized with on first use. The rows keep the dashboard recognizably
// populated when no relational backend is reachable.
func SeedTables() (map[string][]Record, error) {
	var tables map[string][]Record
	if err := yaml.Unmarshal(seedData, &tables); err != nil {
		return nil, fmt.Errorf("error parsing seed data: %w", err)
	}
	return tables, nil
}
