package identify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vest-cli/internal/model"
)

func TestStatic_Identify(t *testing.T) {
	t.Parallel()
	s := Static{Item: model.Identification{
		Name:          "  Switch OLED ",
		Brand:         "Nintendo",
		Confidence:    1.4,
		PriceEstimate: &model.ItemPriceEstimate{},
	}}

	got, err := s.Identify(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Switch OLED", got.Name)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Nil(t, got.PriceEstimate, "an estimate with no prices is dropped")
	assert.Equal(t, "Nintendo Switch OLED", got.Query())
}

func TestStatic_EmptyItem(t *testing.T) {
	t.Parallel()
	_, err := Static{}.Identify(context.Background(), nil, "")
	require.ErrorIs(t, err, ErrNoItem)
}

func TestStatic_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Static{Item: model.Identification{Name: "x"}}.Identify(ctx, nil, "")
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"yaml", `
name: Levi's 501 Jeans
brand: Levi's
category: clothing
search_query: Vintage Levi's 501 Blue Denim Jeans Size 32 Used
price_estimate:
  low: 15
  mid: 25
  high: 40
  confidence: 0.6
  demand_level: HIGH
  red_flags: [fading]
`},
		{"json", `{"name":"Levi's 501 Jeans","brand":"Levi's","category":"clothing",
"search_query":"Vintage Levi's 501 Blue Denim Jeans Size 32 Used",
"price_estimate":{"low":15,"mid":25,"high":40,"confidence":0.6,"demand_level":"high","red_flags":["fading"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(dir, tt.name+".item")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			item, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "clothing", item.Category)
			require.NotNil(t, item.PriceEstimate)
			assert.InDelta(t, 25.0, item.PriceEstimate.Mid, 1e-9)
			assert.Equal(t, model.DemandHigh, item.PriceEstimate.DemandLevel)
			assert.Equal(t, []string{"fading"}, item.PriceEstimate.RedFlags)
			assert.Equal(t, "Vintage Levi's 501 Blue Denim Jeans Size 32 Used", item.Query())
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identify: read")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [unclosed"), 0644))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identify: parse")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("category: toys\n"), 0644))
	_, err = LoadFile(empty)
	require.ErrorIs(t, err, ErrNoItem)
}
