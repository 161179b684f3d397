package gallery

import (
	"strings"

	"github.com/shunshunshopify/solstar-horizon/internal/domain"
)

// Image is one gallery entry: the image URL plus the variant it belongs to,
// when the association is known. Entries without a variant id render as
// plain frames.
type Image struct {
	URL       string `json:"url"`
	VariantID string `json:"variant_id,omitempty"`
}

// Compose builds the hover gallery for one saved item, most specific imagery
// first:
//
//  1. the selected variant's own image
//  2. images of the product's other variants, catalog order
//  3. the featured media preview
//  4. the featured image
//  5. the remaining product images
//  6. the stored snapshot image, only when nothing else produced a frame
//
// Duplicates are collapsed by URL ignoring query string and fragment, keeping
// the first occurrence so the more specific source wins.
func Compose(product *domain.ProductData, selected *domain.ProductVariant, storedImage string, limit int) []Image {
	c := composer{
		seen:  make(map[string]struct{}),
		limit: limit,
	}

	if product != nil {
		if selected != nil {
			c.add(product.VariantImage(selected), selected.ID)
		}
		for i := range product.Variants {
			v := &product.Variants[i]
			if selected != nil && v.ID == selected.ID {
				continue
			}
			c.add(product.VariantImage(v), v.ID)
		}
		c.add(product.FeaturedMedia, "")
		c.add(product.FeaturedImage, "")
		for _, img := range product.Images {
			c.add(img, "")
		}
	}

	if len(c.images) == 0 {
		c.add(storedImage, "")
	}

	return c.images
}

type composer struct {
	images []Image
	seen   map[string]struct{}
	limit  int
}

func (c *composer) add(url, variantID string) {
	if url == "" {
		return
	}
	if c.limit > 0 && len(c.images) >= c.limit {
		return
	}

	key := dedupeKey(url)
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.images = append(c.images, Image{URL: url, VariantID: variantID})
}

// dedupeKey strips the query string and fragment so sized renditions of the
// same asset collapse to one frame.
func dedupeKey(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		return url[:i]
	}
	return url
}
