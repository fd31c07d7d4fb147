package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// trigger starts the server-side analysis job and polls it until it ends.
func main() {
	_ = godotenv.Load()

	baseURL := flag.String("base-url", "http://localhost:8081", "API base URL")
	poll := flag.Duration("poll", 2*time.Second, "Job status poll interval")
	flag.Parse()

	adminSecret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
	if adminSecret == "" {
		fmt.Println("Missing ADMIN_SECRET environment variable")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var started struct {
		JobID string `json:"job_id"`
		Error string `json:"error"`
	}
	status, err := call(client, http.MethodPost, *baseURL+"/api/v1/admin/analyze", adminSecret, &started)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusAccepted {
		fmt.Printf("Response Status: %d %s\n", status, started.Error)
		os.Exit(1)
	}
	fmt.Printf("Started job %s\n", started.JobID)

	for {
		time.Sleep(*poll)

		var job map[string]any
		if _, err := call(client, http.MethodGet, *baseURL+"/api/v1/admin/job/"+started.JobID, adminSecret, &job); err != nil {
			fmt.Printf("Error polling job: %v\n", err)
			os.Exit(1)
		}
		switch job["status"] {
		case "running":
			continue
		case "completed":
			fmt.Printf("Job completed in %v\n", job["duration"])
			return
		default:
			fmt.Printf("Job %v: %v\n", job["status"], job["error"])
			os.Exit(1)
		}
	}
}

func call(client *http.Client, method, url, secret string, out any) (int, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Admin-Secret", secret)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
