package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cabquote/internal/config"
	"cabquote/internal/intake"
	gmailconnector "cabquote/internal/intake/gmail"
	imapconnector "cabquote/internal/intake/imap"
	"cabquote/internal/pipeline"
	"cabquote/internal/storage"
)

type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(); err != nil {
			fmt.Printf("listener cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle() error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := intake.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	processor := pipeline.NewProcessingService(s.db, s.cfg)
	processedRequests, _, err := processor.ProcessPending(s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return err
	}

	if s.cfg.MailListenerAutoExport {
		if err := s.exportProcessed(provider); err != nil {
			return err
		}
	}

	fmt.Printf("listener cycle done provider=%s fetched=%d stored=%d processed=%d\n", provider, fetchResult.Fetched, fetchResult.Stored, processedRequests)
	return nil
}

func (s *Service) exportProcessed(provider string) error {
	requests, err := s.db.ListRequestsByStatus("processed", 200)
	if err != nil {
		return err
	}

	for _, request := range requests {
		if request.Provider != provider {
			continue
		}
		quote, err := s.db.GetQuote(request.ID)
		if err != nil {
			return err
		}
		if quote == nil || len(quote.Lines) == 0 {
			continue
		}
		filename := fmt.Sprintf("%d_%s.xlsx", request.ID, sanitizeMessageID(request.MessageID))
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
		if err := pipeline.ExportQuoteToXLSX(quote, outputPath); err != nil {
			return err
		}
		_ = s.db.UpdateRequestStatus(request.ID, "exported")
	}
	return nil
}

func (s *Service) makeConnector(provider string) (intake.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
