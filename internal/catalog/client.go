package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cabquote/internal"
	"cabquote/internal/config"
	"cabquote/internal/util"
)

// Client talks to the upstream pricing service that hosts manufacturer
// price books. Large catalogs page through a scroll cursor.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type scrollPayload struct {
	Entries  []map[string]any `json:"entries"`
	ScrollID *string          `json:"scrollId"`
	Total    *int             `json:"total"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.CatalogTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.CatalogRateLimitRPS),
	}
}

func (c *Client) ListManufacturers(ctx context.Context) ([]internal.Manufacturer, error) {
	body, err := c.fetchJSON(ctx, "manufacturers", map[string]string{})
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}

	out := make([]internal.Manufacturer, 0, len(rows))
	for _, raw := range rows {
		m, err := toManufacturer(raw)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// GetCatalog scrolls through every price entry of one manufacturer.
func (c *Client) GetCatalog(ctx context.Context, manufacturerID string) (internal.Catalog, error) {
	catalog := internal.Catalog{}
	seen := map[string]struct{}{}
	var scrollID string

	for {
		query := map[string]string{}
		if scrollID != "" {
			query["scrollId"] = scrollID
		}

		body, err := c.fetchJSON(ctx, "manufacturers/"+url.PathEscape(manufacturerID)+"/catalog", query)
		if err != nil {
			return nil, err
		}

		var payload scrollPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}

		for _, raw := range payload.Entries {
			sku, prices, ok := toCatalogEntry(raw)
			if !ok {
				continue
			}
			catalog[sku] = prices
		}

		if payload.ScrollID == nil || *payload.ScrollID == "" || len(payload.Entries) == 0 {
			break
		}
		if _, ok := seen[*payload.ScrollID]; ok {
			break
		}
		seen[*payload.ScrollID] = struct{}{}
		scrollID = *payload.ScrollID
	}

	return catalog, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.CatalogAPIToken) == "" {
		return nil, errors.New("missing CATALOG_API_TOKEN")
	}

	baseURL := strings.TrimRight(c.cfg.CatalogAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.CatalogAPIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("catalog status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("catalog api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("catalog api unsuccessful: %s", string(apiResp.Errors))
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("catalog request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func toManufacturer(raw map[string]any) (internal.Manufacturer, error) {
	id := strings.TrimSpace(util.ToString(raw["id"]))
	name := strings.TrimSpace(util.ToString(raw["name"]))
	if id == "" || name == "" {
		return internal.Manufacturer{}, errors.New("manufacturer missing id or name")
	}

	m := internal.Manufacturer{
		ID:                    id,
		Name:                  name,
		BasePricingMultiplier: util.ToFloat(raw["basePricingMultiplier"], 1.0),
		SKUCount:              util.ToInt(raw["skuCount"], 0),
		UpdatedAt:             util.ToString(raw["updatedAt"]),
	}
	if m.BasePricingMultiplier <= 0 {
		m.BasePricingMultiplier = 1.0
	}

	if tiers, ok := raw["tiers"].([]any); ok {
		for _, t := range tiers {
			tm, ok := t.(map[string]any)
			if !ok {
				continue
			}
			tier := internal.PricingTier{
				ID:         util.ToString(tm["id"]),
				Name:       util.ToString(tm["name"]),
				Multiplier: util.ToFloat(tm["multiplier"], 1.0),
			}
			if tier.Name == "" {
				continue
			}
			if tier.ID == "" {
				tier.ID = tier.Name
			}
			m.Tiers = append(m.Tiers, tier)
		}
	}

	if opts, ok := raw["options"].([]any); ok {
		for _, o := range opts {
			om, ok := o.(map[string]any)
			if !ok {
				continue
			}
			opt := internal.ManufacturerOption{
				ID:          util.ToString(om["id"]),
				Name:        util.ToString(om["name"]),
				Category:    util.ToString(om["category"]),
				Section:     util.ToString(om["section"]),
				PricingType: internal.OptionPricing(util.ToString(om["pricingType"])),
				Price:       util.ToFloat(om["price"], 0),
			}
			if opt.Name == "" {
				continue
			}
			if opt.Section == "" {
				opt.Section = internal.SectionUnknown
			}
			if opt.PricingType == "" {
				opt.PricingType = internal.PricingFixed
			}
			m.Options = append(m.Options, opt)
		}
	}

	return m, nil
}

func toCatalogEntry(raw map[string]any) (string, map[string]float64, bool) {
	sku := util.CollapseKey(util.ToString(raw["sku"]))
	if sku == "" {
		return "", nil, false
	}

	pricesRaw, ok := raw["prices"].(map[string]any)
	if !ok || len(pricesRaw) == 0 {
		return "", nil, false
	}

	prices := make(map[string]float64, len(pricesRaw))
	for tier, v := range pricesRaw {
		price := util.ToFloat(v, -1)
		if price < 0 {
			continue
		}
		prices[tier] = price
	}
	if len(prices) == 0 {
		return "", nil, false
	}
	return sku, prices, true
}
