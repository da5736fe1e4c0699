// Package catalogue bootstraps the product catalogue from a YAML file.
// The engine only depends on the resulting category/product structure,
// not on the file syntax.
package catalogue

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nahkd123/stonks-sub001/pkg/market"
)

type productYAML struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Commodity string `yaml:"commodity"`
}

type categoryYAML struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Products []productYAML `yaml:"products"`
}

type fileYAML struct {
	Categories []categoryYAML `yaml:"categories"`
}

// Load reads and parses a catalogue file.
func Load(path string) (*market.Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalogue from YAML bytes, rejecting duplicate ids and
// structurally empty definitions.
func Parse(data []byte) (*market.Catalogue, error) {
	var file fileYAML
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue file: %w", err)
	}

	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("catalogue defines no categories")
	}

	seenCategories := make(map[string]bool)
	seenProducts := make(map[string]bool)
	categories := make([]*market.Category, 0, len(file.Categories))

	for _, cat := range file.Categories {
		if cat.ID == "" {
			return nil, fmt.Errorf("category with empty id")
		}
		if seenCategories[cat.ID] {
			return nil, fmt.Errorf("duplicate category id %q", cat.ID)
		}
		seenCategories[cat.ID] = true

		if len(cat.Products) == 0 {
			return nil, fmt.Errorf("category %q defines no products", cat.ID)
		}

		products := make([]*market.Product, 0, len(cat.Products))
		for _, p := range cat.Products {
			if p.ID == "" {
				return nil, fmt.Errorf("product with empty id in category %q", cat.ID)
			}
			if seenProducts[p.ID] {
				return nil, fmt.Errorf("duplicate product id %q", p.ID)
			}
			seenProducts[p.ID] = true

			name := p.Name
			if name == "" {
				name = p.ID
			}
			products = append(products, market.NewProduct(p.ID, name, p.Commodity))
		}

		name := cat.Name
		if name == "" {
			name = cat.ID
		}
		categories = append(categories, market.NewCategory(cat.ID, name, products))
	}

	return market.NewCatalogue(categories), nil
}
