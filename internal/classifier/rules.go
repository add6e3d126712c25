package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultRulesVersion tags the builtin marker table
const DefaultRulesVersion = "2024-builtin"

// Rules is one versioned marker table. Failure markers take precedence.
type Rules struct {
	Version        string   `yaml:"version"`
	FailureMarkers []string `yaml:"failure_markers"`
	SuccessMarkers []string `yaml:"success_markers"`
}

// Table holds the default rules plus per-tool overrides
type Table struct {
	Default Rules            `yaml:"default"`
	Tools   map[string]Rules `yaml:"tools"`
}

// DefaultRules returns the builtin marker table
func DefaultRules() Rules {
	return Rules{
		Version: DefaultRulesVersion,
		FailureMarkers: []string{
			"Verification failed",
			"verification failed",
			"Risk threshold not met",
			"Compliance check failed",
		},
		SuccessMarkers: []string{
			"Verification successful",
			"Proof verified",
			"Compliance check passed",
		},
	}
}

// DefaultTable returns a table with only the builtin rules
func DefaultTable() *Table {
	return &Table{Default: DefaultRules()}
}

// LoadTable reads a marker table from a YAML file. Lists left empty in the
// file keep the builtin markers.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read marker table: %w", err)
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse marker table: %w", err)
	}

	table.Default = merge(DefaultRules(), table.Default)
	return &table, nil
}

// For returns the effective rules for a tool
func (t *Table) For(tool string) Rules {
	base := t.Default
	if override, ok := t.Tools[tool]; ok {
		return merge(base, override)
	}
	return base
}

func merge(base, override Rules) Rules {
	if override.Version != "" {
		base.Version = override.Version
	}
	if len(override.FailureMarkers) > 0 {
		base.FailureMarkers = override.FailureMarkers
	}
	if len(override.SuccessMarkers) > 0 {
		base.SuccessMarkers = override.SuccessMarkers
	}
	return base
}
