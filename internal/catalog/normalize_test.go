package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, payload string) *rawProduct {
	t.Helper()
	var raw rawProduct
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return &raw
}

func TestNormalize_OptionsArrayWinsOverLegacyFields(t *testing.T) {
	raw := decodeRaw(t, `{
		"handle": "shirt",
		"variants": [
			{"id": 1, "options": ["M", "Red"], "option1": "ignored", "option2": "ignored"}
		]
	}`)

	p := normalize(raw)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, []string{"M", "Red"}, p.Variants[0].OptionValues)
}

func TestNormalize_LegacyOptionFields(t *testing.T) {
	raw := decodeRaw(t, `{
		"handle": "shirt",
		"variants": [
			{"id": 1, "option1": "M", "option2": "Red"}
		]
	}`)

	p := normalize(raw)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, []string{"M", "Red"}, p.Variants[0].OptionValues)
}

func TestNormalize_AvailableDefaultsTrue(t *testing.T) {
	raw := decodeRaw(t, `{"variants": [{"id": 1}, {"id": 2, "available": false}]}`)

	p := normalize(raw)
	require.Len(t, p.Variants, 2)
	assert.True(t, p.Variants[0].Available)
	assert.False(t, p.Variants[1].Available)
}

func TestNormalize_PriceShapes(t *testing.T) {
	raw := decodeRaw(t, `{"variants": [
		{"id": 1, "price": 1990},
		{"id": 2, "price": 19.90},
		{"id": 3, "price": "19.90"},
		{"id": 4, "price": "20.00"},
		{"id": 5, "price": 20.00}
	]}`)

	p := normalize(raw)
	require.Len(t, p.Variants, 5)
	assert.Equal(t, int64(1990), p.Variants[0].Price)
	assert.Equal(t, int64(1990), p.Variants[1].Price)
	assert.Equal(t, int64(1990), p.Variants[2].Price)
	assert.Equal(t, int64(2000), p.Variants[3].Price, "round decimal strings are major units")
	assert.Equal(t, int64(2000), p.Variants[4].Price, "round decimal numbers are major units")
}

func TestNormalize_MediaAssociationFirstWins(t *testing.T) {
	raw := decodeRaw(t, `{
		"media": [
			{"preview_image": {"src": "https://img.example.com/a.jpg"}, "variant_ids": [1, 2]},
			{"src": "https://img.example.com/b.jpg", "variants": [{"id": 2}, {"id": 3}]}
		]
	}`)

	p := normalize(raw)
	assert.Equal(t, "https://img.example.com/a.jpg", p.VariantMedia["1"])
	assert.Equal(t, "https://img.example.com/a.jpg", p.VariantMedia["2"], "first association wins on collision")
	assert.Equal(t, "https://img.example.com/b.jpg", p.VariantMedia["3"])
}

func TestNormalize_BareOptionNamesSynthesizeValues(t *testing.T) {
	raw := decodeRaw(t, `{
		"options": ["Size", "Color"],
		"variants": [
			{"id": 1, "options": ["S", "Red"]},
			{"id": 2, "options": ["M", "Red"]},
			{"id": 3, "options": ["S", "Blue"]}
		]
	}`)

	p := normalize(raw)
	require.Len(t, p.Options, 2)
	assert.Equal(t, "Size", p.Options[0].Name)
	assert.Equal(t, 1, p.Options[0].Position)
	assert.Equal(t, []string{"S", "M"}, p.Options[0].Values)
	assert.Equal(t, []string{"Red", "Blue"}, p.Options[1].Values)
}

func TestNormalize_ObjectOptionDefinitions(t *testing.T) {
	raw := decodeRaw(t, `{
		"options": [{"name": "Size", "position": 1, "values": ["S", "M", "L"]}]
	}`)

	p := normalize(raw)
	require.Len(t, p.Options, 1)
	assert.Equal(t, []string{"S", "M", "L"}, p.Options[0].Values)
}

func TestNormalize_ImageShapes(t *testing.T) {
	raw := decodeRaw(t, `{
		"images": ["https://img.example.com/1.jpg", {"src": "https://img.example.com/2.jpg"}],
		"featured_image": {"src": "https://img.example.com/f.jpg"},
		"featured_media": {"preview_image": {"src": "https://img.example.com/fm.jpg"}}
	}`)

	p := normalize(raw)
	assert.Equal(t, []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"}, p.Images)
	assert.Equal(t, "https://img.example.com/f.jpg", p.FeaturedImage)
	assert.Equal(t, "https://img.example.com/fm.jpg", p.FeaturedMedia)
}
