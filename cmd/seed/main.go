// Command seed posts synthetic attendee profiles and check-in triggers
// to a running instance, for demos and manual load testing.
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
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Default configuration constants.
const (
	defaultNumProfiles = 100
	defaultWorkers     = 4
	defaultTimeout     = 10 * time.Second
	defaultRunTimeout  = 5 * time.Minute
	maxExpertiseLevel  = 10
)

// Interest pools the generator samples from. Two interests per profile
// keeps the signature space small enough that groups actually form.
var interestPools = [][]string{
	{"ai", "web3"},
	{"ai", "robotics"},
	{"biotech", "health"},
	{"fintech", "payments"},
	{"climate", "energy"},
	{"gaming", "vr"},
}

type profilePayload struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"display_name"`
	Bio             string   `json:"bio"`
	Interests       []string `json:"interests"`
	ExpertiseLevels []int    `json:"expertise_levels"`
}

type triggerPayload struct {
	ID         string `json:"id"`
	AttendeeID string `json:"attendee_id"`
	Reason     string `json:"reason"`
	TS         string `json:"ts"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		count    = flag.Int("count", defaultNumProfiles, "Number of profiles to generate and submit")
		workers  = flag.Int("workers", defaultWorkers, "Number of concurrent submitters")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seedFlag = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible runs")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	client := &http.Client{Timeout: *timeout}
	rng := rand.New(rand.NewSource(*seedFlag))

	// Generate up front so the submit phase is pure I/O.
	profiles := make([]profilePayload, *count)
	for i := range profiles {
		pool := interestPools[rng.Intn(len(interestPools))]
		profiles[i] = profilePayload{
			ID:              fmt.Sprintf("seed-%s", uuid.NewString()),
			DisplayName:     fmt.Sprintf("Attendee %d", i+1),
			Bio:             "Generated by cmd/seed",
			Interests:       pool,
			ExpertiseLevels: []int{rng.Intn(maxExpertiseLevel) + 1},
		}
	}

	var submitted, failed atomic.Int64
	jobs := make(chan profilePayload)

	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if err := submit(ctx, client, *baseURL, p); err != nil {
					failed.Add(1)
					os.Stderr.WriteString("submit " + p.ID + ": " + err.Error() + "\n")
					continue
				}
				submitted.Add(1)
			}
		}()
	}

	start := time.Now()
	for _, p := range profiles {
		select {
		case jobs <- p:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			os.Stderr.WriteString("run cancelled: " + ctx.Err().Error() + "\n")
			return
		}
	}
	close(jobs)
	wg.Wait()

	fmt.Printf("submitted %d profiles (%d failed) in %s\n",
		submitted.Load(), failed.Load(), time.Since(start).Round(time.Millisecond))
}

// submit posts one profile and the check-in trigger that nudges the
// engine to run a matching pass for it.
func submit(ctx context.Context, client *http.Client, baseURL string, p profilePayload) error {
	if err := post(ctx, client, baseURL+"/profiles", p, http.StatusCreated); err != nil {
		return fmt.Errorf("profile: %w", err)
	}

	t := triggerPayload{
		ID:         uuid.NewString(),
		AttendeeID: p.ID,
		Reason:     "checkin",
		TS:         time.Now().UTC().Format(time.RFC3339),
	}
	// 202 on accept, 200 when the service flags a duplicate id.
	if err := post(ctx, client, baseURL+"/triggers", t, http.StatusAccepted, http.StatusOK); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}
	return nil
}

func post(ctx context.Context, client *http.Client, url string, payload any, okStatuses ...int) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	for _, ok := range okStatuses {
		if resp.StatusCode == ok {
			return nil
		}
	}
	return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
}
