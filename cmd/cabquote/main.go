package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"cabquote/internal"
	"cabquote/internal/catalog"
	"cabquote/internal/config"
	"cabquote/internal/engine"
	"cabquote/internal/intake"
	gmailconnector "cabquote/internal/intake/gmail"
	imapconnector "cabquote/internal/intake/imap"
	"cabquote/internal/listener"
	"cabquote/internal/pipeline"
	"cabquote/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:sync":
		svc := catalog.NewSyncService(db, cfg)
		count, err := svc.InitialSync(context.Background())
		must(err)
		fmt.Printf("catalog sync complete: %d entries\n", count)
	case "catalog:refresh":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		manufacturerID := fs.String("manufacturer", "", "manufacturer id")
		force := fs.Bool("force", false, "refresh even if fresh")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*manufacturerID) == "" {
			must(fmt.Errorf("--manufacturer is required"))
		}
		svc := catalog.NewSyncService(db, cfg)
		count, err := svc.RefreshCatalog(context.Background(), *manufacturerID, *force)
		must(err)
		fmt.Printf("catalog refresh complete manufacturer=%s entries=%d\n", *manufacturerID, count)
	case "catalog:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "price book xlsx path")
		id := fs.String("id", "", "manufacturer id")
		name := fs.String("name", "", "manufacturer name")
		multiplier := fs.Float64("multiplier", 1.0, "base pricing multiplier")
		_ = fs.Parse(os.Args[2:])
		if *file == "" || *id == "" {
			must(fmt.Errorf("--file and --id are required"))
		}
		f, err := os.Open(*file)
		must(err)
		defer f.Close()
		result, err := catalog.ImportPriceBook(f)
		must(err)
		mfr := internal.Manufacturer{
			ID:                    *id,
			Name:                  firstNonEmpty(*name, *id),
			BasePricingMultiplier: *multiplier,
			Tiers:                 result.Tiers,
			Options:               result.Options,
		}
		must(db.UpsertManufacturer(mfr))
		must(db.UpsertCatalogEntries(mfr.ID, result.Catalog))
		fmt.Printf("price book imported manufacturer=%s sheets=%d skus=%d tiers=%d options=%d\n",
			mfr.ID, result.SheetsParsed, result.SKUCount, len(result.Tiers), len(result.Options))
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "gmail", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := intake.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "gmail", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed request id=%d priced=%d notFound=%d skipped=%v\n", res.RequestID, res.Priced, res.NotFound, res.Skipped)
			return
		}
		processedRequests, pricedLines, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending requests=%d lines=%d\n", processedRequests, pricedLines)
	case "mail:listen":
		s := listener.NewService(db, cfg)
		must(s.Run(context.Background()))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		requestID := fs.Int("requestId", 0, "internal request id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *requestID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--requestId and --out are required"))
		}
		quote, err := db.GetQuote(*requestID)
		must(err)
		if quote == nil {
			must(fmt.Errorf("no quote for requestId=%d", *requestID))
		}
		must(pipeline.ExportQuoteToXLSX(quote, *out))
		fmt.Printf("exported %d lines to %s\n", len(quote.Lines), *out)
	case "request:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		requestID := fs.Int("requestId", 0, "internal request id")
		_ = fs.Parse(os.Args[2:])
		if *requestID == 0 {
			must(fmt.Errorf("--requestId is required"))
		}
		request, err := db.GetRequestByID(*requestID)
		must(err)
		if request == nil {
			must(fmt.Errorf("request not found: %d", *requestID))
		}
		fmt.Printf("request id=%d provider=%s messageId=%s status=%s subject=%q\n",
			request.ID, request.Provider, request.MessageID, request.Status, request.Subject)
		items, err := db.ListExtractions(*requestID)
		must(err)
		for _, item := range items {
			fmt.Printf("  line %d [%s] code=%s qty=%d raw=%q\n", item.LineNo, item.Source, item.Item.OriginalCode, item.Item.Quantity, item.RawLine)
		}
		quote, err := db.GetQuote(*requestID)
		must(err)
		if quote != nil {
			fmt.Printf("quote: manufacturer=%s tier=%s lines=%d\n", quote.ManufacturerID, quote.TierID, len(quote.Lines))
		}
	case "project:price":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "project json path")
		id := fs.String("id", "", "saved project id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])

		var project *internal.Project
		switch {
		case *file != "":
			blob, err := os.ReadFile(*file)
			must(err)
			var p internal.Project
			must(json.Unmarshal(blob, &p))
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			project = &p
		case *id != "":
			p, err := db.GetProject(*id)
			must(err)
			if p == nil {
				must(fmt.Errorf("project not found: %s", *id))
			}
			project = p
		default:
			must(fmt.Errorf("--file or --id is required"))
		}

		mfr, err := db.GetManufacturer(firstNonEmpty(project.ManufacturerID, cfg.DefaultManufacturerID))
		must(err)
		if mfr == nil {
			must(fmt.Errorf("manufacturer not found; run catalog:sync or catalog:import first"))
		}

		eng := engine.New()
		lines := eng.Price(project.Items, *mfr, firstNonEmpty(project.SelectedTierID, cfg.DefaultTierID), project.Specs)
		fin := internal.ProjectFinancials{}
		if project.Financials != nil {
			fin = *project.Financials
		}
		totals := engine.Totals(lines, fin)
		must(db.SaveProject(*project))

		if strings.TrimSpace(*out) != "" {
			quote := &internal.StoredQuote{ManufacturerID: mfr.ID, TierID: project.SelectedTierID, Lines: lines}
			must(pipeline.ExportQuoteToXLSX(quote, *out))
		}
		fmt.Printf("project priced id=%s lines=%d subtotal=%.2f grandTotal=%.2f\n", project.ID, len(lines), totals.Subtotal, totals.GrandTotal)
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "raw email (.eml) path")
		manufacturerID := fs.String("manufacturer", "", "manufacturer id")
		tierID := fs.String("tier", "", "pricing tier id")
		output := fs.String("output", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *output == "" {
			must(fmt.Errorf("--input and --output are required"))
		}

		raw, err := os.ReadFile(*input)
		must(err)
		items, _, _, _, err := pipeline.ExtractItemsFromEmailRaw(raw)
		must(err)

		mfr, err := db.GetManufacturer(firstNonEmpty(*manufacturerID, cfg.DefaultManufacturerID))
		must(err)
		if mfr == nil {
			must(fmt.Errorf("manufacturer not found; run catalog:sync or catalog:import first"))
		}

		cabinetItems := make([]internal.CabinetItem, 0, len(items))
		for _, item := range items {
			cabinetItems = append(cabinetItems, item.Item)
		}
		eng := engine.New()
		lines := eng.Price(cabinetItems, *mfr, firstNonEmpty(*tierID, cfg.DefaultTierID), nil)
		totals := engine.Totals(lines, internal.ProjectFinancials{})

		quote := &internal.StoredQuote{ManufacturerID: mfr.ID, Lines: lines}
		must(pipeline.ExportQuoteToXLSX(quote, *output))
		fmt.Printf("run done lines=%d subtotal=%.2f grandTotal=%.2f output=%s\n", len(lines), totals.Subtotal, totals.GrandTotal, *output)
	default:
		usage()
		os.Exit(1)
	}
}

func makeConnector(cfg config.Config, provider string) (intake.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func usage() {
	fmt.Println("usage: cabquote <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:sync")
	fmt.Println("  catalog:refresh --manufacturer=... [--force]")
	fmt.Println("  catalog:import --file=pricebook.xlsx --id=... [--name=...] [--multiplier=1.0]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  export:xlsx --requestId=1 --out=./out/result.xlsx")
	fmt.Println("  request:show --requestId=1")
	fmt.Println("  project:price --file=project.json|--id=... [--out=quote.xlsx]")
	fmt.Println("  run --input=order.eml --output=quote.xlsx [--manufacturer=...] [--tier=...]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
