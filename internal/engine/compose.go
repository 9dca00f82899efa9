package engine

import (
	"fmt"
	"math"
	"strings"

	"cabquote/internal"
)

const sourceNotFound = "NOT FOUND"
const sourceExtracted = "Extracted from Document"

// composeLine prices a single item. The order of the steps is load-bearing:
// fixed charges accumulate before the base price is known, percentage options
// need the resolved base, multipliers apply after, and each monetary output
// is rounded independently at the very end.
func (e *Engine) composeLine(item internal.CabinetItem, mfr internal.Manufacturer, tier internal.PricingTier, tierName string, active []internal.ManufacturerOption) internal.PricingLineItem {
	var optionsPrice float64
	applied := []internal.AppliedOption{}

	// 1. Item-level modifications captured during extraction.
	for _, mod := range item.Modifications {
		price := mod.Price
		if price < 0 {
			price = 0
		}
		optionsPrice += price
		applied = append(applied, internal.AppliedOption{
			Name:          mod.Description,
			Price:         price,
			SourceSection: "Document Extraction",
		})
	}

	// 2. Fixed-price manufacturer options that apply to this item type.
	for _, opt := range active {
		if !optionApplies(opt, item.Type) {
			continue
		}
		if opt.PricingType != internal.PricingFixed || opt.Price <= 0 {
			continue
		}
		optionsPrice += opt.Price
		applied = append(applied, internal.AppliedOption{
			Name:          opt.Name,
			Price:         opt.Price,
			SourceSection: opt.Section,
		})
	}

	// 3. Base price: the item's own code through the full cascade first,
	// then every generated candidate, first success wins.
	basePrice := 0.0
	source := sourceNotFound
	matchedSKU := item.OriginalCode

	match := ResolveCode(item.OriginalCode, mfr.Catalog, tierName)
	if match == nil {
		for _, key := range e.Candidates(item) {
			if match = ResolveCode(key, mfr.Catalog, tierName); match != nil {
				match.Source = fmt.Sprintf("Catalog (Similar '%s')", key)
				break
			}
		}
	}

	switch {
	case match != nil:
		basePrice = match.Price
		source = match.Source
		matchedSKU = match.MatchedSKU
	case item.ExtractedPrice > 0:
		basePrice = item.ExtractedPrice
		source = sourceExtracted
	}

	// 4. Percentage options (and finish upgrades priced as a fraction of
	// base) apply regardless of item type.
	for _, opt := range active {
		if opt.Section != internal.SectionFinish && opt.PricingType != internal.PricingPercentage {
			continue
		}
		add := basePrice * opt.Price
		optionsPrice += add
		applied = append(applied, internal.AppliedOption{
			Name:          opt.Name + " (%)",
			Price:         add,
			SourceSection: opt.Section,
		})
	}

	quantity := item.Quantity
	if quantity < 1 {
		quantity = 1
	}

	adjustedBase := basePrice * mfr.BasePricingMultiplier
	finalUnitPrice := (adjustedBase + optionsPrice) * tier.Multiplier
	totalPrice := finalUnitPrice * float64(quantity)

	line := internal.PricingLineItem{
		CabinetItem:    item,
		BasePrice:      math.Round(adjustedBase),
		OptionsPrice:   math.Round(optionsPrice),
		TierMultiplier: tier.Multiplier,
		FinalUnitPrice: math.Round(finalUnitPrice),
		TotalPrice:     math.Round(totalPrice),
		TierName:       tier.Name,
		Source:         source,
		AppliedOptions: applied,
	}
	line.NormalizedCode = matchedSKU
	line.Quantity = quantity
	return line
}

// optionApplies tests an option against an item type by section and by name
// keyword. Drawer upgrades only make sense on base cabinets; hinge upgrades
// never apply to fillers or panels; a name carrying "wall" or "base" binds
// the option to that family.
func optionApplies(opt internal.ManufacturerOption, itemType internal.CabinetType) bool {
	if opt.Section == internal.SectionDrawer && itemType != internal.TypeBase {
		return false
	}
	if opt.Section == internal.SectionHinge && (itemType == internal.TypeFiller || itemType == internal.TypePanel) {
		return false
	}

	name := strings.ToLower(opt.Name)
	if strings.Contains(name, "wall") && itemType != internal.TypeWall {
		return false
	}
	if strings.Contains(name, "base") && itemType != internal.TypeBase {
		return false
	}
	return true
}
