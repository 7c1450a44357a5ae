package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Fires an import request against a running server, for smoke-testing
// the admin endpoint end to end.
func main() {
	baseURL := flag.String("base-url", "http://localhost:8081", "API base URL")
	eventURL := flag.String("url", "", "Event page URL to import")
	force := flag.Bool("force", false, "Re-import and overwrite an existing event")
	sync := flag.Bool("sync", false, "Wait for AI enrichment instead of progressive import")
	flag.Parse()

	if *eventURL == "" {
		fmt.Println("Missing -url flag")
		os.Exit(1)
	}

	adminSecret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
	if adminSecret == "" {
		fmt.Println("Missing ADMIN_SECRET environment variable")
		os.Exit(1)
	}

	progressive := !*sync
	body, err := json.Marshal(map[string]any{
		"url":          *eventURL,
		"force_update": *force,
		"progressive":  progressive,
	})
	if err != nil {
		fmt.Printf("Error encoding request: %v\n", err)
		os.Exit(1)
	}

	req, err := http.NewRequest("POST", strings.TrimRight(*baseURL, "/")+"/api/v1/import", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Secret", adminSecret)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response Status: %s\n", resp.Status)
	fmt.Println(string(payload))
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
