package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"cabquote/internal"
	"cabquote/internal/config"
	"cabquote/internal/engine"
	"cabquote/internal/storage"
)

// ProcessingService drives a request through extraction, detection and
// pricing, persisting each stage.
type ProcessingService struct {
	db     *storage.DB
	cfg    config.Config
	engine *engine.Engine
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, engine: engine.New()}
}

type ProcessResult struct {
	RequestID int
	Priced    int
	NotFound  int
	Skipped   bool
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (ProcessResult, error) {
	request, err := s.db.MustRequestByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessRequest(request)
}

func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListRequestsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	processedRequests := 0
	pricedLines := 0
	for _, request := range pending {
		if provider != "" && request.Provider != provider {
			continue
		}
		res, err := s.ProcessRequest(request)
		if err != nil {
			return processedRequests, pricedLines, err
		}
		processedRequests++
		pricedLines += res.Priced
	}
	return processedRequests, pricedLines, nil
}

func (s *ProcessingService) ProcessRequest(request internal.QuoteRequest) (ProcessResult, error) {
	start := time.Now()
	raw, err := os.ReadFile(request.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	items, subject, text, attachmentNames, err := ExtractItemsFromEmailRaw(raw)
	if err != nil {
		return ProcessResult{}, err
	}

	detect := DetectOrderDocument(firstNonEmpty(subject, request.Subject), text, "", attachmentNames)
	if err := s.db.ClearRequestProcessing(request.ID); err != nil {
		return ProcessResult{}, err
	}

	if !detect.IsOrder {
		_ = s.db.UpdateRequestStatus(request.ID, "skipped")
		_ = s.db.InsertRun(traceID(), request.ID, map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, map[string]int{"extracted": 0, "priced": 0, "notFound": 0})
		return ProcessResult{RequestID: request.ID, Skipped: true}, nil
	}

	manufacturer, err := s.lookupManufacturer()
	if err != nil {
		return ProcessResult{}, err
	}

	cabinetItems := make([]internal.CabinetItem, 0, len(items))
	for _, item := range items {
		if _, err := s.db.InsertExtraction(request.ID, item); err != nil {
			return ProcessResult{}, err
		}
		cabinetItems = append(cabinetItems, item.Item)
	}

	lines := s.engine.Price(cabinetItems, *manufacturer, s.cfg.DefaultTierID, nil)
	totals := engine.Totals(lines, internal.ProjectFinancials{})
	totalsJSON, _ := json.Marshal(totals)

	if err := s.db.SaveQuote(request.ID, manufacturer.ID, s.cfg.DefaultTierID, lines, string(totalsJSON)); err != nil {
		return ProcessResult{}, err
	}

	notFound := 0
	for _, line := range lines {
		if line.Source == "NOT FOUND" {
			notFound++
		}
	}

	if err := s.db.UpdateRequestStatus(request.ID, "processed"); err != nil {
		return ProcessResult{}, err
	}
	_ = s.db.InsertRun(traceID(), request.ID, map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, map[string]int{"extracted": len(items), "priced": len(lines), "notFound": notFound})

	return ProcessResult{RequestID: request.ID, Priced: len(lines), NotFound: notFound}, nil
}

func (s *ProcessingService) lookupManufacturer() (*internal.Manufacturer, error) {
	id := s.cfg.DefaultManufacturerID
	if id != "" {
		m, err := s.db.GetManufacturer(id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, fmt.Errorf("manufacturer not found: %s", id)
		}
		return m, nil
	}

	all, err := s.db.ListManufacturers()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no manufacturers synced; run catalog:sync or catalog:import first")
	}
	return s.db.GetManufacturer(all[0].ID)
}

func traceID() string {
	return uuid.NewString()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
