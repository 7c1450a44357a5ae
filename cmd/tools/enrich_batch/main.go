package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/david/event-finder/internal/ai"
	"github.com/david/event-finder/internal/db"
	"github.com/david/event-finder/internal/importer"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
)

// Retries AI enrichment for events whose categorization or summary
// stage previously failed (or was skipped because no AI client was
// configured at import time).
func main() {
	limit := flag.Int("limit", 50, "Max events to process")
	rateLimitMs := flag.Int("rate-limit-ms", 500, "Delay between events in milliseconds")
	dryRun := flag.Bool("dry-run", false, "List pending events without enriching")
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	store := db.NewStore(pool)

	aiClient := ai.NewClientFromEnv()
	if aiClient == nil && !*dryRun {
		log.Fatal("OPENAI_API_KEY is required for enrichment (use -dry-run to list pending events)")
	}

	var enricher *importer.Enricher
	if aiClient != nil {
		enricher = &importer.Enricher{Store: store, AI: aiClient}
	}

	pending, err := store.ListPendingEnrichment(ctx, *limit)
	if err != nil {
		log.Fatalf("Failed to list pending events: %v", err)
	}
	if len(pending) == 0 {
		log.Print("Nothing to enrich")
		return
	}

	log.Printf("Found %d events pending enrichment", len(pending))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Title", "City", "Categorized", "Summarized", "Result"})

	categorized := 0
	summarized := 0
	failures := 0

	for idx, ev := range pending {
		result := "dry-run"
		if !*dryRun {
			result = "ok"
			if !ev.AICategorized {
				if err := enricher.Categorize(ctx, ev.ID); err != nil {
					log.Printf("Categorize failed for %s: %v", ev.ID, err)
					result = "failed"
					failures++
				} else {
					categorized++
				}
			}
			if !ev.AISummarized {
				if err := enricher.Summarize(ctx, ev.ID); err != nil {
					log.Printf("Summarize failed for %s: %v", ev.ID, err)
					result = "failed"
					failures++
				} else {
					summarized++
				}
			}
		}

		t.AppendRow(table.Row{
			importer.TruncateText(ev.Title, 40),
			ev.City,
			ev.AICategorized,
			ev.AISummarized,
			result,
		})

		if idx < len(pending)-1 && *rateLimitMs > 0 {
			time.Sleep(time.Duration(*rateLimitMs) * time.Millisecond)
		}
	}

	t.Render()
	log.Printf("Done. categorized=%d summarized=%d failures=%d", categorized, summarized, failures)
}
