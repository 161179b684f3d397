package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/shunshunshopify/solstar-horizon/internal/catalog"
	"github.com/shunshunshopify/solstar-horizon/internal/domain"
	"github.com/shunshunshopify/solstar-horizon/internal/gallery"
	"github.com/shunshunshopify/solstar-horizon/internal/money"
	"github.com/shunshunshopify/solstar-horizon/internal/variant"
)

var (
	renderPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wishlist_render_passes_total",
		Help: "Completed render passes over a shopper's saved list",
	})
	renderDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wishlist_render_degraded_items_total",
		Help: "Items rendered from stored fields because catalog resolution failed",
	})
)

// Lister supplies the saved list and accepts the consolidated re-save.
type Lister interface {
	List(ctx context.Context, shopperID string) ([]domain.WishlistItem, error)
	Replace(ctx context.Context, shopperID string, items []domain.WishlistItem) error
}

// Resolver supplies catalog data per handle.
type Resolver interface {
	Resolve(ctx context.Context, handle string) (*domain.ProductData, error)
}

// ItemResult is the outcome of rendering one saved item.
type ItemResult struct {
	HTML      template.HTML
	NeedsSave bool
	HasPicker bool
}

// Result is a full render pass: the concatenated fragment plus per-item
// outcomes in list order.
type Result struct {
	HTML  template.HTML
	Items []ItemResult
	Saved bool
}

// Config tunes a pipeline.
type Config struct {
	Concurrency  int
	HoverPreview bool
}

// Pipeline renders the saved-items view: fan out catalog resolution per item,
// fan in fragments in list order, then re-save the list once if resolution
// corrected any stored field.
type Pipeline struct {
	lister    Lister
	resolver  Resolver
	templates *Templates
	format    money.Formatter
	logger    *slog.Logger

	concurrency  int
	galleryLimit int
}

// NewPipeline creates a render pipeline.
func NewPipeline(lister Lister, resolver Resolver, templates *Templates, format money.Formatter, cfg Config, logger *slog.Logger) *Pipeline {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	galleryLimit := 1
	if cfg.HoverPreview {
		galleryLimit = 2
	}
	return &Pipeline{
		lister:       lister,
		resolver:     resolver,
		templates:    templates,
		format:       format,
		logger:       logger,
		concurrency:  concurrency,
		galleryLimit: galleryLimit,
	}
}

// Render produces the fragment for the shopper's saved list. A failure
// resolving one item never aborts the others; that item degrades to its
// stored fields with no picker.
func (p *Pipeline) Render(ctx context.Context, shopperID string) (*Result, error) {
	items, err := p.lister.List(ctx, shopperID)
	if err != nil {
		return nil, err
	}

	defer renderPasses.Inc()

	if len(items) == 0 {
		html, err := p.renderEmpty()
		if err != nil {
			return nil, err
		}
		return &Result{HTML: html}, nil
	}

	results := make([]ItemResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range items {
		g.Go(func() error {
			// Workers report per-item outcomes; they never fail the group.
			results[i] = p.renderItem(gctx, &items[i])
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	saved := false
	for _, r := range results {
		b.WriteString(string(r.HTML))
		if r.NeedsSave {
			saved = true
		}
	}

	// One consolidated save for the whole pass, not one per corrected item.
	if saved {
		if err := p.lister.Replace(ctx, shopperID, items); err != nil {
			p.logger.ErrorContext(ctx, "post-render save failed",
				slog.String("shopper_id", shopperID),
				slog.String("error", err.Error()),
			)
			saved = false
		}
	}

	return &Result{
		HTML:  template.HTML(b.String()),
		Items: results,
		Saved: saved,
	}, nil
}

func (p *Pipeline) renderItem(ctx context.Context, item *domain.WishlistItem) ItemResult {
	handle := catalog.HandleOf(*item)
	if handle == "" {
		p.logger.WarnContext(ctx, "item has no resolvable handle, rendering stored fields",
			slog.String("product_id", item.ID),
		)
		renderDegraded.Inc()
		return p.renderStored(item)
	}

	product, err := p.resolver.Resolve(ctx, handle)
	if err != nil {
		renderDegraded.Inc()
		return p.renderStored(item)
	}

	sel := variant.SelectionFor(item, product)
	chosen, states, repaired := variant.Choose(product, sel)

	needsSave := variant.Apply(item, product, chosen, p.format)

	hasPicker := chosen != nil && chosen.Available && len(product.Options) > 1

	var picker template.HTML
	if hasPicker {
		picker, err = p.renderPicker(item.ID, chosen, product.Options, states, repaired)
		if err != nil {
			p.logger.ErrorContext(ctx, "picker render failed",
				slog.String("product_id", item.ID),
				slog.String("error", err.Error()),
			)
			hasPicker = false
		}
	}

	images := gallery.Compose(product, chosen, item.Image, p.galleryLimit)

	html, err := p.renderFragment(item, images, picker)
	if err != nil {
		p.logger.ErrorContext(ctx, "item render failed",
			slog.String("product_id", item.ID),
			slog.String("error", err.Error()),
		)
		renderDegraded.Inc()
		return p.renderStored(item)
	}

	return ItemResult{HTML: html, NeedsSave: needsSave, HasPicker: hasPicker}
}

// renderStored builds the degraded fragment from last-known stored fields.
func (p *Pipeline) renderStored(item *domain.WishlistItem) ItemResult {
	var images []gallery.Image
	if item.Image != "" {
		images = []gallery.Image{{URL: item.Image}}
	}

	html, err := p.renderFragment(item, images, "")
	if err != nil {
		p.logger.Error("stored-field render failed",
			slog.String("product_id", item.ID),
			slog.String("error", err.Error()),
		)
		return ItemResult{}
	}
	return ItemResult{HTML: html}
}

func (p *Pipeline) renderFragment(item *domain.WishlistItem, images []gallery.Image, picker template.HTML) (template.HTML, error) {
	var buf bytes.Buffer
	err := p.templates.item.Execute(&buf, ItemData{
		ProductID: item.ID,
		Title:     item.Title,
		URL:       item.URL,
		Price:     item.Price,
		Available: item.Available,
		VariantID: item.VariantID,
		Images:    images,
		Picker:    picker,
	})
	if err != nil {
		return "", fmt.Errorf("execute item template: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func (p *Pipeline) renderPicker(productID string, chosen *domain.ProductVariant, options []domain.ProductOption, states [][]variant.ValueState, sel variant.Selection) (template.HTML, error) {
	data := pickerData{
		ProductID: productID,
		Available: chosen != nil && chosen.Available,
		Options:   make([]PickerOption, 0, len(options)),
	}
	for i, opt := range options {
		row := PickerOption{Name: opt.Name, Position: opt.Position}
		if i < len(states) {
			row.Values = states[i]
		}
		if i < len(sel) {
			row.Selected = sel[i]
		}
		data.Options = append(data.Options, row)
	}

	var buf bytes.Buffer
	if err := p.templates.picker.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute picker template: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func (p *Pipeline) renderEmpty() (template.HTML, error) {
	var buf bytes.Buffer
	if err := p.templates.empty.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("execute empty template: %w", err)
	}
	return template.HTML(buf.String()), nil
}
