package render

import (
	"fmt"
	"html/template"

	"github.com/shunshunshopify/solstar-horizon/internal/gallery"
	"github.com/shunshunshopify/solstar-horizon/internal/variant"
)

// ItemData is the placeholder set available to the item template. Overriding
// templates reference the same names.
type ItemData struct {
	ProductID string
	Title     string
	URL       string
	Price     string
	Available bool
	VariantID string
	Images    []gallery.Image
	Picker    template.HTML
}

// PickerOption carries one option row of the interactive picker.
type PickerOption struct {
	Name     string
	Position int
	Selected string
	Values   []variant.ValueState
}

const defaultItemTemplate = `<article class="wishlist-item{{if not .Available}} wishlist-item--unavailable{{end}}" data-product-id="{{.ProductID}}" data-variant-id="{{.VariantID}}">
  <a class="wishlist-item__media" href="{{.URL}}">
    {{- range $i, $img := .Images}}
    <img class="wishlist-item__image{{if gt $i 0}} wishlist-item__image--hover{{end}}" src="{{$img.URL}}"{{with $img.VariantID}} data-variant-id="{{.}}"{{end}} alt="{{$.Title}}" loading="lazy">
    {{- end}}
  </a>
  <div class="wishlist-item__info">
    <a class="wishlist-item__title" href="{{.URL}}">{{.Title}}</a>
    <span class="wishlist-item__price">{{.Price}}</span>
    {{- if not .Available}}
    <span class="wishlist-item__badge">Sold out</span>
    {{- end}}
  </div>
  {{.Picker}}
  <button class="wishlist-item__remove" type="button" data-product-id="{{.ProductID}}" aria-label="Remove {{.Title}}">&times;</button>
</article>`

const pickerTemplate = `<form class="wishlist-item__picker" data-product-id="{{.ProductID}}">
  {{- range .Options}}
  <label class="wishlist-picker__label">{{.Name}}
    <select name="option-{{.Position}}" data-position="{{.Position}}">
      {{- $selected := .Selected}}
      {{- range .Values}}
      <option value="{{.Value}}"{{if eq .Value $selected}} selected{{end}}{{if .Disabled}} disabled{{end}}>{{.Value}}</option>
      {{- end}}
    </select>
  </label>
  {{- end}}
  <button class="wishlist-picker__add" type="submit"{{if not .Available}} disabled{{end}}>Add to cart</button>
</form>`

const emptyTemplate = `<div class="wishlist-empty">
  <p class="wishlist-empty__message">Your wishlist is empty.</p>
</div>`

type pickerData struct {
	ProductID string
	Available bool
	Options   []PickerOption
}

// Templates holds the parsed fragment templates. The item template can be
// replaced by collaborator-supplied markup as long as it references the
// ItemData placeholder names.
type Templates struct {
	item   *template.Template
	picker *template.Template
	empty  *template.Template
}

// NewTemplates parses the fragment templates. itemOverride replaces the
// built-in item markup when non-empty.
func NewTemplates(itemOverride string) (*Templates, error) {
	itemSrc := defaultItemTemplate
	if itemOverride != "" {
		itemSrc = itemOverride
	}

	item, err := template.New("item").Parse(itemSrc)
	if err != nil {
		return nil, fmt.Errorf("parse item template: %w", err)
	}
	picker, err := template.New("picker").Parse(pickerTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse picker template: %w", err)
	}
	empty, err := template.New("empty").Parse(emptyTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse empty template: %w", err)
	}

	return &Templates{item: item, picker: picker, empty: empty}, nil
}
