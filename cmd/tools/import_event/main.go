package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/david/event-finder/internal/ai"
	"github.com/david/event-finder/internal/db"
	"github.com/david/event-finder/internal/importer"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
)

func main() {
	rawURL := flag.String("url", "", "Event page URL to import")
	force := flag.Bool("force", false, "Re-import and overwrite an existing event")
	skipAI := flag.Bool("skip-ai", false, "Skip AI enrichment even if OPENAI_API_KEY is set")
	flag.Parse()

	if *rawURL == "" {
		log.Fatal("Please provide an event URL using -url flag")
	}

	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	store := db.NewStore(pool)

	var aiClient importer.AI
	if !*skipAI {
		if c := ai.NewClientFromEnv(); c != nil {
			aiClient = c
		} else {
			log.Print("OPENAI_API_KEY not set; importing without AI enrichment")
		}
	}

	location := &importer.LocationResolver{AI: aiClient}
	chain := importer.NewFetchChain(importer.NewCollyFetcher(), importer.NewChromeRenderer(), location)
	enricher := &importer.Enricher{Store: store, AI: aiClient}
	coordinator := importer.NewCoordinator(store, chain, enricher)

	result, err := coordinator.Import(ctx, importer.ImportRequest{URL: *rawURL, ForceUpdate: *force})
	if err != nil {
		if ie, ok := importer.AsImportError(err); ok {
			log.Fatalf("Import failed: %s", ie.Message)
		}
		log.Fatalf("Import failed: %v", err)
	}

	ev := result.Event

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"ID", ev.ID})
	t.AppendRow(table.Row{"Title", ev.Title})
	t.AppendRow(table.Row{"Date", ev.Date})
	t.AppendRow(table.Row{"Time", ev.Time})
	t.AppendRow(table.Row{"Location", ev.Location})
	t.AppendRow(table.Row{"City", ev.City})
	t.AppendRow(table.Row{"Organizer", ev.Organizer})
	t.AppendRow(table.Row{"Platform", ev.Platform})
	t.AppendRow(table.Row{"Platform ID", ev.PlatformID})
	t.AppendRow(table.Row{"Event Type", ev.AIEventType})
	t.AppendRow(table.Row{"Summary", importer.TruncateText(ev.AISummary, 80)})
	t.Render()

	if ev.NeedsCityConfirmation {
		log.Printf("⚠️ City could not be resolved with confidence; record flagged for review")
	}
	log.Printf("✅ %s", result.Message)
}
