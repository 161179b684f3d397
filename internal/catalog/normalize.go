package catalog

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shunshunshopify/solstar-horizon/internal/domain"
)

// Raw catalog payloads arrive in several historical shapes; everything is
// mapped into domain.ProductData here, at the single ingestion boundary.
// Nothing downstream touches untyped data.

// flexImage accepts either a bare URL string or an object carrying src.
type flexImage string

func (f *flexImage) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexImage(v)
		return nil
	}
	var obj struct {
		Src string `json:"src"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*f = flexImage(obj.Src)
	return nil
}

// flexPrice accepts integer minor units, decimal numbers, or decimal strings
// ("19.99"), normalizing to minor units. The written form decides the unit:
// a token carrying decimal places is a major-unit amount ("20.00" is 2000
// minor units), a bare integer is already minor units.
type flexPrice int64

func (f *flexPrice) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	if strings.Contains(s, ".") || d.Exponent() < 0 {
		*f = flexPrice(d.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
		return nil
	}
	*f = flexPrice(d.IntPart())
	return nil
}

// rawOption accepts either a bare option name or a full definition object.
type rawOption struct {
	Name     string
	Position int
	Values   []string
}

func (o *rawOption) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		o.Name = name
		return nil
	}
	var obj struct {
		Name     string   `json:"name"`
		Position int      `json:"position"`
		Values   []string `json:"values"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	o.Name = obj.Name
	o.Position = obj.Position
	o.Values = obj.Values
	return nil
}

type rawVariant struct {
	ID            json.Number `json:"id"`
	Title         string      `json:"title"`
	Available     *bool       `json:"available"`
	Price         flexPrice   `json:"price"`
	Options       []string    `json:"options"`
	Option1       *string     `json:"option1"`
	Option2       *string     `json:"option2"`
	Option3       *string     `json:"option3"`
	FeaturedImage flexImage   `json:"featured_image"`
}

// optionValues prefers the explicit options array over the legacy
// single-value fields.
func (v *rawVariant) optionValues() []string {
	if len(v.Options) > 0 {
		return v.Options
	}
	var values []string
	for _, o := range []*string{v.Option1, v.Option2, v.Option3} {
		if o != nil {
			values = append(values, *o)
		}
	}
	return values
}

type rawMedia struct {
	Src          string `json:"src"`
	PreviewImage *struct {
		Src string `json:"src"`
	} `json:"preview_image"`
	VariantIDs []json.Number `json:"variant_ids"`
	Variants   []struct {
		ID json.Number `json:"id"`
	} `json:"variants"`
}

func (m *rawMedia) imageURL() string {
	if m.PreviewImage != nil && m.PreviewImage.Src != "" {
		return m.PreviewImage.Src
	}
	return m.Src
}

func (m *rawMedia) variantIDs() []string {
	ids := make([]string, 0, len(m.VariantIDs)+len(m.Variants))
	for _, id := range m.VariantIDs {
		ids = append(ids, id.String())
	}
	for _, v := range m.Variants {
		ids = append(ids, v.ID.String())
	}
	return ids
}

type rawProduct struct {
	Handle        string       `json:"handle"`
	URL           string       `json:"url"`
	Options       []rawOption  `json:"options"`
	Variants      []rawVariant `json:"variants"`
	Images        []flexImage  `json:"images"`
	FeaturedImage flexImage    `json:"featured_image"`
	FeaturedMedia *rawMedia    `json:"featured_media"`
	Media         []rawMedia   `json:"media"`
}

func normalize(raw *rawProduct) *domain.ProductData {
	variants := make([]domain.ProductVariant, 0, len(raw.Variants))
	for _, rv := range raw.Variants {
		available := true
		if rv.Available != nil {
			available = *rv.Available
		}
		variants = append(variants, domain.ProductVariant{
			ID:            rv.ID.String(),
			Title:         rv.Title,
			Available:     available,
			Price:         int64(rv.Price),
			OptionValues:  rv.optionValues(),
			FeaturedImage: string(rv.FeaturedImage),
		})
	}

	options := make([]domain.ProductOption, 0, len(raw.Options))
	for i, ro := range raw.Options {
		position := ro.Position
		if position == 0 {
			position = i + 1
		}
		values := ro.Values
		if len(values) == 0 {
			values = valuesAt(variants, position-1)
		}
		options = append(options, domain.ProductOption{
			Name:     ro.Name,
			Position: position,
			Values:   values,
		})
	}

	variantMedia := make(map[string]string)
	for _, m := range raw.Media {
		url := m.imageURL()
		if url == "" {
			continue
		}
		// First association wins when a variant id appears in more than one
		// media entry or representation.
		for _, id := range m.variantIDs() {
			if _, ok := variantMedia[id]; !ok {
				variantMedia[id] = url
			}
		}
	}

	images := make([]string, 0, len(raw.Images))
	for _, img := range raw.Images {
		if img != "" {
			images = append(images, string(img))
		}
	}

	featuredMedia := ""
	if raw.FeaturedMedia != nil {
		featuredMedia = raw.FeaturedMedia.imageURL()
	}

	return &domain.ProductData{
		Handle:        raw.Handle,
		URL:           raw.URL,
		Options:       options,
		Variants:      variants,
		FeaturedImage: string(raw.FeaturedImage),
		FeaturedMedia: featuredMedia,
		Images:        images,
		VariantMedia:  variantMedia,
	}
}

// valuesAt collects the distinct variant values at one option position,
// preserving catalog order. Used when a raw option definition omits values.
func valuesAt(variants []domain.ProductVariant, idx int) []string {
	var values []string
	seen := make(map[string]struct{})
	for _, v := range variants {
		if idx >= len(v.OptionValues) {
			continue
		}
		value := v.OptionValues[idx]
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}
