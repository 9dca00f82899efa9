// Package engine prices cabinet order items against a manufacturer's
// catalog. It is pure: no I/O, no mutation of its inputs, output order
// mirrors input order.
package engine

import (
	"cabquote/internal"
)

type Engine struct {
	conf Confusions
}

func New() *Engine {
	return &Engine{conf: DefaultConfusions()}
}

// NewWithConfusions builds an engine around a manufacturer-specific OCR
// confusion table.
func NewWithConfusions(conf Confusions) *Engine {
	return &Engine{conf: conf}
}

// Price runs the full pipeline for every item: garbage rows are dropped,
// everything else resolves through the cascade and composes into a line
// item. A code that matches nothing yields a $0 line marked NOT FOUND; a
// single bad item never aborts the rest.
func (e *Engine) Price(items []internal.CabinetItem, mfr internal.Manufacturer, tierID string, specs *internal.ProjectSpecs) []internal.PricingLineItem {
	tier, tierName := selectTier(mfr, tierID, specs)
	active := activeOptions(mfr, specs)

	results := make([]internal.PricingLineItem, 0, len(items))
	for _, item := range items {
		if IsGarbage(item) {
			continue
		}
		results = append(results, e.composeLine(item, mfr, tier, tierName, active))
	}
	return results
}

// selectTier resolves the requested tier id, falling back to the
// manufacturer's first tier, then to a synthetic Standard tier (named after
// the specs price group when one is given).
func selectTier(mfr internal.Manufacturer, tierID string, specs *internal.ProjectSpecs) (internal.PricingTier, string) {
	for _, t := range mfr.Tiers {
		if t.ID == tierID {
			return t, t.Name
		}
	}
	if len(mfr.Tiers) > 0 {
		t := mfr.Tiers[0]
		return t, t.Name
	}

	name := "Standard"
	if specs != nil && specs.PriceGroup != "" {
		name = specs.PriceGroup
	}
	return internal.PricingTier{ID: "default", Name: name, Multiplier: 1.0}, name
}

func activeOptions(mfr internal.Manufacturer, specs *internal.ProjectSpecs) []internal.ManufacturerOption {
	if specs == nil || len(specs.SelectedOptions) == 0 {
		return nil
	}
	out := make([]internal.ManufacturerOption, 0, len(mfr.Options))
	for _, opt := range mfr.Options {
		if specs.SelectedOptions[opt.ID] {
			out = append(out, opt)
		}
	}
	return out
}
