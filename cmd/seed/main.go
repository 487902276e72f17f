// Command seed populates a running ladder instance with leaderboard
// records, either from flags or through interactive prompts.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"

	"github.com/playforge/ladder/pkg/logger"
)

const (
	defaultBaseURL = "http://localhost:9080"
	defaultCount   = 100
	maxScore       = 100_000
)

type options struct {
	baseURL     string
	apiKey      string
	count       int
	timeout     time.Duration
	interactive bool
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", defaultBaseURL, "base URL of the service")
	flag.StringVar(&opts.apiKey, "key", "", "API key for mutating routes")
	flag.IntVar(&opts.count, "count", defaultCount, "number of records to create")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP request timeout")
	flag.BoolVar(&opts.interactive, "interactive", false, "prompt for record values instead of generating them")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &http.Client{Timeout: opts.timeout}

	if opts.interactive {
		if err := runInteractive(ctx, client, opts); err != nil {
			log.Error(ctx, "interactive seeding failed", logger.Error(err))
			os.Exit(1)
		}
		return
	}

	created := 0
	for i := 0; i < opts.count; i++ {
		guid := uuid.New().String()
		body := map[string]any{
			"name":  fmt.Sprintf("player-%04d", i+1),
			"tag":   fmt.Sprintf("T%03d", rand.Intn(1000)),
			"score": float64(rand.Intn(maxScore)),
		}
		if err := createRecord(ctx, client, opts, guid, body); err != nil {
			log.Warn(ctx, "create failed", logger.String("guid", guid), logger.Error(err))
			continue
		}
		created++
	}

	log.Info(ctx, "seeding done",
		logger.Int("requested", opts.count),
		logger.Int("created", created),
	)
}

// runInteractive prompts for one record's fields plus a copy count.
func runInteractive(ctx context.Context, client *http.Client, opts options) error {
	namePrompt := promptui.Prompt{Label: "name", Default: "player"}
	name, err := namePrompt.Run()
	if err != nil {
		return fmt.Errorf("read name: %w", err)
	}

	tagPrompt := promptui.Prompt{Label: "tag", Default: ""}
	tag, err := tagPrompt.Run()
	if err != nil {
		return fmt.Errorf("read tag: %w", err)
	}

	scorePrompt := promptui.Prompt{
		Label: "score",
		Validate: func(s string) error {
			_, err := strconv.ParseFloat(s, 64)
			return err
		},
	}
	scoreStr, err := scorePrompt.Run()
	if err != nil {
		return fmt.Errorf("read score: %w", err)
	}
	score, _ := strconv.ParseFloat(scoreStr, 64)

	countPrompt := promptui.Prompt{
		Label:   "how many copies",
		Default: "1",
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	countStr, err := countPrompt.Run()
	if err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	count, _ := strconv.Atoi(countStr)

	log := logger.Get()
	for i := 0; i < count; i++ {
		guid := uuid.New().String()
		body := map[string]any{"name": name, "tag": tag, "score": score}
		if err := createRecord(ctx, client, opts, guid, body); err != nil {
			return err
		}
		log.Info(ctx, "record created", logger.String("guid", guid))
	}
	return nil
}

// createRecord POSTs one record to /leaderboard/{guid}.
func createRecord(ctx context.Context, client *http.Client, opts options, guid string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}

	url := opts.baseURL + "/leaderboard/" + guid
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.apiKey != "" {
		req.Header.Set("X-Api-Key", opts.apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, guid)
	}
	return nil
}
