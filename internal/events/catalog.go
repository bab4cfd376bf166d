package events

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogEntry struct {
	Location string `yaml:"location"`
	Name     string `yaml:"name"`
	Date     string `yaml:"date"`
	Type     string `yaml:"type"`
}

// LoadCatalog decodes the embedded event catalog. Dates are calendar days in UTC.
func LoadCatalog() ([]Event, error) {
	var doc struct {
		Events []catalogEntry `yaml:"events"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode event catalog: %w", err)
	}

	out := make([]Event, 0, len(doc.Events))
	for _, e := range doc.Events {
		d, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", e.Name, err)
		}
		out = append(out, Event{
			LocationKey: strings.ToLower(e.Location),
			Name:        e.Name,
			Date:        d,
			Type:        e.Type,
		})
	}
	return out, nil
}
