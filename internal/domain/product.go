package domain

// ProductOption is one configurable axis of a product (e.g. Size).
type ProductOption struct {
	Name     string   `json:"name"`
	Position int      `json:"position"` // 1-based
	Values   []string `json:"values"`   // ordered, unique
}

// ProductVariant is one purchasable option combination.
type ProductVariant struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Available     bool     `json:"available"`
	Price         int64    `json:"price"` // minor currency units
	OptionValues  []string `json:"option_values"` // aligned to option positions
	FeaturedImage string   `json:"featured_image,omitempty"`
}

// ProductData is the canonical catalog shape every raw payload is normalized
// into. Instances are immutable once built; a fresh fetch replaces, never
// mutates.
type ProductData struct {
	Handle        string            `json:"handle"`
	URL           string            `json:"url"`
	Options       []ProductOption   `json:"options"`
	Variants      []ProductVariant  `json:"variants"`
	FeaturedImage string            `json:"featured_image,omitempty"`
	FeaturedMedia string            `json:"featured_media,omitempty"`
	Images        []string          `json:"images"`
	VariantMedia  map[string]string `json:"variant_media"` // variant id -> image URL
}

// VariantByID returns the variant with the given id, or nil.
func (p *ProductData) VariantByID(id string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// VariantImage returns the best image for a variant: its own featured image,
// else its media association, else "".
func (p *ProductData) VariantImage(v *ProductVariant) string {
	if v == nil {
		return ""
	}
	if v.FeaturedImage != "" {
		return v.FeaturedImage
	}
	return p.VariantMedia[v.ID]
}

// FirstAvailableVariant returns the first in-stock variant in catalog order,
// else the first variant, else nil.
func (p *ProductData) FirstAvailableVariant() *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].Available {
			return &p.Variants[i]
		}
	}
	if len(p.Variants) > 0 {
		return &p.Variants[0]
	}
	return nil
}

// WishlistProductState pairs a saved item with its resolved catalog data and
// currently selected variant. It is derived per render pass and never
// persisted.
type WishlistProductState struct {
	Item    *WishlistItem
	Product *ProductData
	Variant *ProductVariant
}
