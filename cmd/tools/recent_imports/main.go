package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/david/event-finder/internal/db"
	"github.com/jedib0t/go-pretty/v6/table"
)

func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT title, city, platform, ai_categorized, ai_summarized, needs_city_confirmation, created_at FROM events ORDER BY created_at DESC LIMIT 15")
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Title", "City", "Platform", "Categorized", "Summarized", "Review", "Imported At"})

	for rows.Next() {
		var title, city, platform string
		var categorized, summarized, needsReview bool
		var createdAt time.Time

		if err := rows.Scan(&title, &city, &platform, &categorized, &summarized, &needsReview, &createdAt); err != nil {
			log.Printf("Scan error: %v", err)
			continue
		}

		if len(title) > 40 {
			title = title[:37] + "..."
		}

		t.AppendRow(table.Row{title, city, platform, categorized, summarized, needsReview, createdAt.Format("Jan 02 15:04")})
	}
	t.Render()
}
