package recipes

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// LoadCatalog decodes the embedded recipe catalog.
func LoadCatalog() ([]Recipe, error) {
	var doc struct {
		Recipes []Recipe `yaml:"recipes"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode recipe catalog: %w", err)
	}
	return doc.Recipes, nil
}
