package typemodel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UniverseFile is the root of a YAML universe definition: the class
// hierarchy a compilation unit resolves against.
type UniverseFile struct {
	Classes []ClassDecl `yaml:"classes"`
}

// LoadUniverseFile loads and parses a YAML universe file from the
// given path.
func LoadUniverseFile(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file %s: %w", path, err)
	}

	return ParseUniverse(data)
}

// ParseUniverse parses YAML data into a populated Universe.
func ParseUniverse(data []byte) (*Universe, error) {
	var uf UniverseFile

	if err := yaml.Unmarshal(data, &uf); err != nil {
		return nil, fmt.Errorf("failed to parse universe YAML: %w", err)
	}

	u := NewUniverse()

	for _, decl := range uf.Classes {
		if _, err := u.Define(decl); err != nil {
			return nil, err
		}
	}

	return u, nil
}
