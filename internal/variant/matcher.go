package variant

import (
	"net/url"
	"strings"

	"github.com/shunshunshopify/solstar-horizon/internal/domain"
	"github.com/shunshunshopify/solstar-horizon/internal/money"
)

// Selection holds one value per option position. An empty string acts as a
// wildcard: that position matches any variant value.
type Selection []string

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	copy(out, s)
	return out
}

// ValueState describes one candidate option value after availability
// recomputation.
type ValueState struct {
	Value     string `json:"value"`
	Disabled  bool   `json:"disabled"`
	VariantID string `json:"variant_id,omitempty"`
	Available bool   `json:"available"`
}

// FindByOptions returns the first variant in catalog order whose values equal
// every defined entry of sel, or nil. Catalog order is authoritative; there
// is no tie-break beyond declaration order.
func FindByOptions(variants []domain.ProductVariant, sel Selection) *domain.ProductVariant {
	for i := range variants {
		if matches(&variants[i], sel) {
			return &variants[i]
		}
	}
	return nil
}

func matches(v *domain.ProductVariant, sel Selection) bool {
	for pos, want := range sel {
		if want == "" {
			continue
		}
		if pos >= len(v.OptionValues) || v.OptionValues[pos] != want {
			return false
		}
	}
	return true
}

// Recompute evaluates, for every option position, which candidate values are
// still reachable by holding the other positions fixed. It returns the
// per-option states and a repaired selection: a selected value that came out
// disabled falls back to the first enabled value for that position, or ""
// when none remains.
func Recompute(sel Selection, options []domain.ProductOption, variants []domain.ProductVariant) ([][]ValueState, Selection) {
	states := make([][]ValueState, len(options))

	for idx, opt := range options {
		states[idx] = make([]ValueState, 0, len(opt.Values))
		for _, candidate := range opt.Values {
			probe := sel.Clone()
			for len(probe) < len(options) {
				probe = append(probe, "")
			}
			probe[idx] = candidate

			state := ValueState{Value: candidate, Disabled: true}
			if v := FindByOptions(variants, probe); v != nil {
				state.Disabled = false
				state.VariantID = v.ID
				state.Available = v.Available
			}
			states[idx] = append(states[idx], state)
		}
	}

	repaired := sel.Clone()
	for len(repaired) < len(options) {
		repaired = append(repaired, "")
	}
	for idx := range options {
		if repaired[idx] == "" || enabled(states[idx], repaired[idx]) {
			continue
		}
		repaired[idx] = firstEnabled(states[idx])
	}

	return states, repaired
}

func enabled(states []ValueState, value string) bool {
	for _, st := range states {
		if st.Value == value {
			return !st.Disabled
		}
	}
	return false
}

func firstEnabled(states []ValueState) string {
	for _, st := range states {
		if !st.Disabled {
			return st.Value
		}
	}
	return ""
}

// Choose resolves a concrete variant for sel: recompute and repair the
// selection, match it, and fall back to the first in-stock variant, else the
// first variant at all. A product with no variants yields nil.
func Choose(product *domain.ProductData, sel Selection) (*domain.ProductVariant, [][]ValueState, Selection) {
	if len(product.Variants) == 0 {
		return nil, nil, sel
	}

	states, repaired := Recompute(sel, product.Options, product.Variants)

	v := FindByOptions(product.Variants, repaired)
	if v == nil {
		v = product.FirstAvailableVariant()
	}

	return v, states, repaired
}

// SelectionFor derives the selection matching the item's remembered variant,
// or an all-wildcard selection when the variant is unknown to the catalog.
func SelectionFor(item *domain.WishlistItem, product *domain.ProductData) Selection {
	sel := make(Selection, len(product.Options))
	if v := product.VariantByID(item.VariantID); v != nil {
		for i := range sel {
			if i < len(v.OptionValues) {
				sel[i] = v.OptionValues[i]
			}
		}
	}
	return sel
}

// Apply writes the chosen variant onto the saved item and reports whether any
// stored field actually changed, which marks the item dirty for re-save.
func Apply(item *domain.WishlistItem, product *domain.ProductData, v *domain.ProductVariant, format money.Formatter) bool {
	if v == nil {
		return false
	}

	changed := false

	set := func(field *string, value string) {
		if value != "" && *field != value {
			*field = value
			changed = true
		}
	}

	set(&item.VariantID, v.ID)
	set(&item.Price, format(v.Price))
	set(&item.Image, product.VariantImage(v))
	set(&item.URL, VariantURL(product.URL, v.ID))
	if item.Handle != product.Handle {
		item.Handle = product.Handle
		changed = true
	}
	if item.Available != v.Available {
		item.Available = v.Available
		changed = true
	}

	return changed
}

// VariantURL returns the product URL qualified with the variant id. The query
// string is rebuilt, never appended, so stale parameters cannot accumulate.
func VariantURL(productURL, variantID string) string {
	if productURL == "" {
		return ""
	}

	u, err := url.Parse(productURL)
	if err != nil {
		base, _, _ := strings.Cut(productURL, "?")
		return base + "?variant=" + url.QueryEscape(variantID)
	}

	u.RawQuery = url.Values{"variant": {variantID}}.Encode()
	u.Fragment = ""
	return u.String()
}
