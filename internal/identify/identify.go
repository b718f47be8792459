// Package identify defines the item-identification collaborator. Image
// recognition itself lives outside this module; a scan only needs the
// description it produces.
package identify

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/vest-cli/internal/model"
)

// ErrNoItem is returned when an identification names nothing searchable.
var ErrNoItem = eris.New("identify: item has no name or search query")

// Identifier turns a photo into an item description.
type Identifier interface {
	Identify(ctx context.Context, image []byte, mimeType string) (*model.Identification, error)
}

// Static returns the same identification for every image. It backs manual
// entry from the CLI and API.
type Static struct {
	Item model.Identification
}

// Identify implements Identifier.
func (s Static) Identify(ctx context.Context, _ []byte, _ string) (*model.Identification, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "identify: static")
	}
	item := Normalize(s.Item)
	if err := Validate(item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Validate checks that an identification can drive a marketplace search.
func Validate(item model.Identification) error {
	if item.Query() == "" {
		return ErrNoItem
	}
	return nil
}

// Normalize trims text fields, clamps confidence to [0,1] and drops a
// price estimate that cannot be used.
func Normalize(item model.Identification) model.Identification {
	item.Name = strings.TrimSpace(item.Name)
	item.Brand = strings.TrimSpace(item.Brand)
	item.Category = strings.TrimSpace(item.Category)
	item.Condition = strings.TrimSpace(item.Condition)
	item.SearchQuery = strings.TrimSpace(item.SearchQuery)
	item.Confidence = model.Clamp(model.Sanitize(item.Confidence), 0, 1)
	if !item.PriceEstimate.Usable() {
		item.PriceEstimate = nil
	}
	return item
}

// LoadFile reads an identification from a YAML or JSON file.
func LoadFile(path string) (model.Identification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Identification{}, eris.Wrapf(err, "identify: read %s", path)
	}

	var raw struct {
		Name          string  `yaml:"name"`
		Brand         string  `yaml:"brand"`
		Category      string  `yaml:"category"`
		Condition     string  `yaml:"condition"`
		Confidence    float64 `yaml:"confidence"`
		SearchQuery   string  `yaml:"search_query"`
		PriceEstimate *struct {
			Low         float64  `yaml:"low"`
			Mid         float64  `yaml:"mid"`
			High        float64  `yaml:"high"`
			MSRP        *float64 `yaml:"msrp"`
			Confidence  float64  `yaml:"confidence"`
			DemandLevel string   `yaml:"demand_level"`
			RedFlags    []string `yaml:"red_flags"`
		} `yaml:"price_estimate"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return model.Identification{}, eris.Wrapf(err, "identify: parse %s", path)
	}

	item := model.Identification{
		Name:        raw.Name,
		Brand:       raw.Brand,
		Category:    raw.Category,
		Condition:   raw.Condition,
		Confidence:  raw.Confidence,
		SearchQuery: raw.SearchQuery,
	}
	if pe := raw.PriceEstimate; pe != nil {
		item.PriceEstimate = &model.ItemPriceEstimate{
			Low:         pe.Low,
			Mid:         pe.Mid,
			High:        pe.High,
			MSRP:        pe.MSRP,
			Confidence:  pe.Confidence,
			DemandLevel: model.ParseDemandLevel(pe.DemandLevel),
			RedFlags:    pe.RedFlags,
		}
	}
	item = Normalize(item)
	if err := Validate(item); err != nil {
		return model.Identification{}, err
	}
	return item, nil
}
