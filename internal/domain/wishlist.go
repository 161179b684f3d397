package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// WishlistItem is one saved product reference. ID is the product identifier
// and is unique within a list; list order is insertion order, oldest first.
type WishlistItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	URL       string    `json:"url"`
	Price     string    `json:"price"`
	VariantID string    `json:"variant_id"`
	Available bool      `json:"available"`
	Handle    string    `json:"handle"`
	AddedAt   time.Time `json:"added_at"`
}

// flexID accepts JSON string or number identifiers and normalizes to string.
// Older persisted payloads and storefront catalogs use numeric ids.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
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
		*f = flexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// rawWishlistItem is the tolerant persisted shape of WishlistItem.
type rawWishlistItem struct {
	ID        flexID     `json:"id"`
	Title     string     `json:"title"`
	Image     string     `json:"image"`
	URL       string     `json:"url"`
	Price     string     `json:"price"`
	VariantID flexID     `json:"variant_id"`
	Available *bool      `json:"available"`
	Handle    *string    `json:"handle"`
	AddedAt   *time.Time `json:"added_at"`
}

// DecodeItems parses a persisted wishlist payload. Entries that are not
// well-formed records are dropped, never repaired in place; a missing
// available flag defaults to true and a missing handle to the empty string.
// The second return value reports how many entries were dropped. An error is
// returned only when the payload is not a JSON array at all.
func DecodeItems(data []byte) ([]WishlistItem, int, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, err
	}

	items := make([]WishlistItem, 0, len(raws))
	dropped := 0
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		var r rawWishlistItem
		if err := json.Unmarshal(raw, &r); err != nil || r.ID == "" {
			dropped++
			continue
		}
		id := string(r.ID)
		if _, dup := seen[id]; dup {
			dropped++
			continue
		}
		seen[id] = struct{}{}

		item := WishlistItem{
			ID:        id,
			Title:     r.Title,
			Image:     r.Image,
			URL:       r.URL,
			Price:     r.Price,
			VariantID: string(r.VariantID),
			Available: true,
		}
		if r.Available != nil {
			item.Available = *r.Available
		}
		if r.Handle != nil {
			item.Handle = *r.Handle
		}
		if r.AddedAt != nil {
			item.AddedAt = *r.AddedAt
		}
		items = append(items, item)
	}

	return items, dropped, nil
}

// EncodeItems serializes a list for the persisted slot.
func EncodeItems(items []WishlistItem) ([]byte, error) {
	if items == nil {
		items = []WishlistItem{}
	}
	return json.Marshal(items)
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf(items []WishlistItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
