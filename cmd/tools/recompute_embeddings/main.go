package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/david/event-finder/internal/ai"
	"github.com/david/event-finder/internal/db"
	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
)

// Backfills the embedding column for events that were summarized while
// the embedding call failed, so related-event lookups start working
// for them again.
func main() {
	limit := flag.Int("limit", 200, "Max events to backfill")
	rateLimitMs := flag.Int("rate-limit-ms", 250, "Delay between embedding calls in milliseconds")
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	aiClient := ai.NewClientFromEnv()
	if aiClient == nil {
		log.Fatal("OPENAI_API_KEY is required to compute embeddings")
	}

	rows, err := pool.Query(ctx,
		"SELECT id, title, ai_summary FROM events WHERE ai_summarized = TRUE AND embedding IS NULL ORDER BY created_at DESC LIMIT $1",
		*limit)
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}

	type pending struct {
		id      string
		title   string
		summary string
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.title, &p.summary); err != nil {
			log.Printf("Scan error: %v", err)
			continue
		}
		todo = append(todo, p)
	}
	rows.Close()

	if len(todo) == 0 {
		log.Print("No events need embedding backfill")
		return
	}

	log.Printf("Backfilling embeddings for %d events", len(todo))

	updated := 0
	failures := 0
	for idx, p := range todo {
		embedding, err := aiClient.GenerateEmbedding(ctx, p.title+"\n"+p.summary)
		if err != nil {
			log.Printf("Embedding failed for %q: %v", p.title, err)
			failures++
			continue
		}

		if _, err := pool.Exec(ctx,
			"UPDATE events SET embedding = $1, updated_at = NOW() WHERE id = $2",
			pgvector.NewVector(embedding), p.id); err != nil {
			log.Printf("Update failed for %q: %v", p.title, err)
			failures++
			continue
		}
		updated++

		if idx < len(todo)-1 && *rateLimitMs > 0 {
			time.Sleep(time.Duration(*rateLimitMs) * time.Millisecond)
		}
	}

	log.Printf("Done. updated=%d failures=%d", updated, failures)
}
