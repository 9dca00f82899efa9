package internal

type CabinetType string

const (
	TypeBase         CabinetType = "Base"
	TypeWall         CabinetType = "Wall"
	TypeTall         CabinetType = "Tall"
	TypePanel        CabinetType = "Panel"
	TypeFiller       CabinetType = "Filler"
	TypeAccessory    CabinetType = "Accessory"
	TypeModification CabinetType = "Modification"
)

type ItemSource string

const (
	SourceVisionJSON     ItemSource = "vision_json"
	SourceEmailText      ItemSource = "email_text"
	SourceEmailHTMLTable ItemSource = "email_html_table"
	SourceXLSX           ItemSource = "xlsx"
	SourcePDF            ItemSource = "pdf"
)

type CabinetModification struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// CabinetItem is one extracted order line. Dimensions are inches, 0 meaning
// unknown. NormalizedCode is an optional pre-computed canonical form supplied
// by the extraction step.
type CabinetItem struct {
	ID             string                `json:"id"`
	OriginalCode   string                `json:"originalCode"`
	NormalizedCode string                `json:"normalizedCode,omitempty"`
	Type           CabinetType           `json:"type"`
	Description    string                `json:"description"`
	Width          float64               `json:"width"`
	Height         float64               `json:"height"`
	Depth          float64               `json:"depth"`
	Quantity       int                   `json:"quantity"`
	Notes          string                `json:"notes,omitempty"`
	ExtractedPrice float64               `json:"extractedPrice,omitempty"`
	Modifications  []CabinetModification `json:"modifications,omitempty"`
}

// PricingTier names a catalog price column (material/finish grade).
type PricingTier struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

type OptionPricing string

const (
	PricingFixed      OptionPricing = "fixed"
	PricingPercentage OptionPricing = "percentage"
	PricingIncluded   OptionPricing = "included"
)

// Workbook sections an option can be discovered in. The section doubles as
// the applicability tag during composition.
const (
	SectionSeries       = "B-Series"
	SectionDoor         = "C-Door"
	SectionFinish       = "D-Finish"
	SectionDrawer       = "E-Drawer"
	SectionHinge        = "F-Hinge"
	SectionConstruction = "G-Construction"
	SectionWallPrice    = "H-WallPrice"
	SectionBasePrice    = "I-BasePrice"
	SectionTallPrice    = "J-TallPrice"
	SectionAccessory    = "K-Accessory"
	SectionPrintedEnds  = "M-PrintedEnds"
	SectionUnknown      = "Unknown"
)

// ManufacturerOption is a selectable upgrade. Price is dollars when fixed, a
// fraction in [0,1] when percentage, 0 when included.
type ManufacturerOption struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Category     string        `json:"category"`
	Section      string        `json:"section"`
	PricingType  OptionPricing `json:"pricingType"`
	Price        float64       `json:"price"`
	Availability string        `json:"availability,omitempty"`
	SourceSheet  string        `json:"sourceSheet,omitempty"`
}

// Catalog maps canonical SKU (upper-case, no whitespace) to tier-name → price.
type Catalog map[string]map[string]float64

type Manufacturer struct {
	ID                    string               `json:"id"`
	Name                  string               `json:"name"`
	BasePricingMultiplier float64              `json:"basePricingMultiplier"`
	Tiers                 []PricingTier        `json:"tiers"`
	Options               []ManufacturerOption `json:"options"`
	Catalog               Catalog              `json:"catalog,omitempty"`
	SKUCount              int                  `json:"skuCount,omitempty"`
	UpdatedAt             string               `json:"updatedAt,omitempty"`
}

type AppliedOption struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	SourceSection string  `json:"sourceSection,omitempty"`
}

// PricingLineItem is a CabinetItem after pricing. BasePrice carries the
// manufacturer multiplier; all monetary fields are rounded to whole dollars
// independently so displayed sub-totals stay additively consistent.
type PricingLineItem struct {
	CabinetItem
	BasePrice      float64         `json:"basePrice"`
	OptionsPrice   float64         `json:"optionsPrice"`
	TierMultiplier float64         `json:"tierMultiplier"`
	FinalUnitPrice float64         `json:"finalUnitPrice"`
	TotalPrice     float64         `json:"totalPrice"`
	TierName       string          `json:"tierName"`
	Source         string          `json:"source"`
	AppliedOptions []AppliedOption `json:"appliedOptions"`
}

// ProjectSpecs carries the selections made for a quote. SelectedOptions maps
// option id to an on/off flag.
type ProjectSpecs struct {
	PriceGroup      string          `json:"priceGroup,omitempty"`
	SelectedOptions map[string]bool `json:"selectedOptions,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// ProjectFinancials are the quote-level charges applied after line pricing.
// Rates are percentages (7.5 means 7.5%), the rest fixed dollar amounts.
type ProjectFinancials struct {
	TaxRate       float64 `json:"taxRate"`
	ShippingCost  float64 `json:"shippingCost"`
	DiscountRate  float64 `json:"discountRate"`
	FuelSurcharge float64 `json:"fuelSurcharge"`
	MiscCharge    float64 `json:"miscCharge"`
}

type Project struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	ClientName     string             `json:"clientName"`
	DateCreated    string             `json:"dateCreated"`
	Status         string             `json:"status"`
	ManufacturerID string             `json:"manufacturerId,omitempty"`
	SelectedTierID string             `json:"selectedTierId,omitempty"`
	Items          []CabinetItem      `json:"items"`
	Specs          *ProjectSpecs      `json:"specs,omitempty"`
	Financials     *ProjectFinancials `json:"financials,omitempty"`
	Pricing        []PricingLineItem  `json:"pricing,omitempty"`
}

// ExtractedItem wraps a CabinetItem with extraction provenance.
type ExtractedItem struct {
	LineNo  int         `json:"lineNo"`
	Source  ItemSource  `json:"source"`
	RawLine string      `json:"rawLine"`
	Item    CabinetItem `json:"item"`
}

// QuoteRequest is one intake document (usually an email) awaiting pricing.
type QuoteRequest struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

// StoredQuote is a priced request as persisted: the line items plus the
// rolled-up totals, kept as JSON in storage.
type StoredQuote struct {
	RequestID      int               `json:"requestId"`
	ManufacturerID string            `json:"manufacturerId"`
	TierID         string            `json:"tierId"`
	Lines          []PricingLineItem `json:"lines"`
	TotalsJSON     string            `json:"-"`
	CreatedAt      string            `json:"createdAt,omitempty"`
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
