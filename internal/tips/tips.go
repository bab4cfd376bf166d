// Package tips rotates eco tips through a short feed and keeps the ones a
// visitor saved.
package tips

import (
	_ "embed"
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"
)

const (
	// MaxFeed is the number of tips shown at once.
	MaxFeed = 5
	// InitialFeed is the number of tips a first visit starts with.
	InitialFeed = 3
)

type Tip struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

//go:embed catalog.yaml
var catalogYAML []byte

// LoadCatalog decodes the embedded tip catalog.
func LoadCatalog() ([]Tip, error) {
	var doc struct {
		Tips []Tip `yaml:"tips"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode tip catalog: %w", err)
	}
	return doc.Tips, nil
}

// Pick draws one tip uniformly from catalog. catalog must not be empty.
func Pick(catalog []Tip, rnd *rand.Rand) Tip {
	return catalog[rnd.Intn(len(catalog))]
}

// Push puts tip at the front of feed and drops the oldest beyond MaxFeed.
func Push(feed []Tip, tip Tip) []Tip {
	out := make([]Tip, 0, MaxFeed+1)
	out = append(out, tip)
	out = append(out, feed...)
	if len(out) > MaxFeed {
		out = out[:MaxFeed]
	}
	return out
}

// PushRandom picks a tip and pushes it.
func PushRandom(feed, catalog []Tip, rnd *rand.Rand) (Tip, []Tip) {
	tip := Pick(catalog, rnd)
	return tip, Push(feed, tip)
}

// Initial builds the feed of a first visit.
func Initial(catalog []Tip, rnd *rand.Rand) []Tip {
	var feed []Tip
	for i := 0; i < InitialFeed; i++ {
		_, feed = PushRandom(feed, catalog, rnd)
	}
	return feed
}

// Save puts tip at the front of saved unless a tip with the same title is
// already there. inserted tells the caller whether to confirm the save.
func Save(saved []Tip, tip Tip) (out []Tip, inserted bool) {
	for _, t := range saved {
		if t.Title == tip.Title {
			return saved, false
		}
	}
	return append([]Tip{tip}, saved...), true
}

// Find looks a tip up by title.
func Find(catalog []Tip, title string) (Tip, bool) {
	for _, t := range catalog {
		if t.Title == title {
			return t, true
		}
	}
	return Tip{}, false
}
