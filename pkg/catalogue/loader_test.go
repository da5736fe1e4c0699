package catalogue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
categories:
  - id: metals
    name: Metals
    products:
      - id: iron_ingot
        name: Iron Ingot
        commodity: minecraft:iron_ingot
      - id: gold_ingot
        commodity: minecraft:gold_ingot
  - id: gems
    products:
      - id: diamond
        name: Diamond
        commodity: minecraft:diamond
`

func TestParse(t *testing.T) {
	catalogue, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	categories := catalogue.Categories()
	require.Len(t, categories, 2)
	assert.Equal(t, "metals", categories[0].ID())
	assert.Equal(t, "Metals", categories[0].Name())
	// Name defaults to the id when omitted.
	assert.Equal(t, "gems", categories[1].Name())

	iron, err := catalogue.Product("iron_ingot")
	require.NoError(t, err)
	assert.Equal(t, "Iron Ingot", iron.DisplayName())
	assert.Equal(t, "minecraft:iron_ingot", iron.CommodityString())

	gold, err := catalogue.Product("gold_ingot")
	require.NoError(t, err)
	assert.Equal(t, "gold_ingot", gold.DisplayName())
}

func TestParseRejectsInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"empty":             ``,
		"no categories":     `categories: []`,
		"empty category id": "categories:\n  - id: \"\"\n    products:\n      - id: x",
		"no products":       "categories:\n  - id: metals\n    products: []",
		"empty product id":  "categories:\n  - id: metals\n    products:\n      - id: \"\"",
		"duplicate category": "categories:\n" +
			"  - id: metals\n    products:\n      - id: a\n" +
			"  - id: metals\n    products:\n      - id: b",
		"duplicate product": "categories:\n" +
			"  - id: metals\n    products:\n      - id: a\n      - id: a",
		"not yaml": `{{{`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	catalogue, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, catalogue.Products(), 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
