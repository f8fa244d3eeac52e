// Package ingest implements the ingestion conductor: it polls a configured
// list of community feeds, normalizes posts into the canonical envelope,
// and delivers each one to the admission endpoint, which dedupes on
// (source, platform_id).
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Envelope is the canonical post shape posted to the admission endpoint.
type Envelope struct {
	Source     string                 `json:"source"`
	PlatformID string                 `json:"platform_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Text       string                 `json:"text"`
	URL        string                 `json:"url,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// Feed identifies one community feed to poll.
type Feed struct {
	Name string // community name, e.g. a subreddit
}

// FeedClient fetches recent posts from one community feed. Implementations
// wrap the specific feed provider's HTTP API; this repo ships one built on
// a generic JSON listing endpoint.
type FeedClient interface {
	FetchRecent(feedName string, limit int) ([]Envelope, error)
}

// HTTPFeedClient is the default FeedClient: a resty client against a
// configurable base URL, one GET per feed.
type HTTPFeedClient struct {
	client *resty.Client
}

func NewHTTPFeedClient(baseURL string, timeout time.Duration) *HTTPFeedClient {
	return &HTTPFeedClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("User-Agent", "eva-finance-ingest/1"),
	}
}

type feedListing struct {
	Posts []struct {
		ID        string                 `json:"id"`
		CreatedAt time.Time              `json:"created_at"`
		Body      string                 `json:"body"`
		URL       string                 `json:"url,omitempty"`
		Author    string                 `json:"author_hash,omitempty"`
		Meta      map[string]interface{} `json:"meta,omitempty"`
	} `json:"posts"`
}

func (c *HTTPFeedClient) FetchRecent(feedName string, limit int) ([]Envelope, error) {
	resp, err := c.client.R().
		SetQueryParam("feed", feedName).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		Get("/v1/listing")
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch %s: %w", feedName, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ingest: fetch %s: status %d", feedName, resp.StatusCode())
	}

	var listing feedListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, fmt.Errorf("ingest: parse %s: %w", feedName, err)
	}

	envelopes := make([]Envelope, 0, len(listing.Posts))
	for _, p := range listing.Posts {
		meta := p.Meta
		if meta == nil {
			meta = map[string]interface{}{}
		}
		meta["community"] = feedName
		meta["original_id"] = p.ID
		if p.Author != "" {
			meta["author_hash"] = p.Author
		}
		envelopes = append(envelopes, Envelope{
			Source:     "community-feed",
			PlatformID: p.ID,
			Timestamp:  p.CreatedAt.UTC(),
			Text:       p.Body,
			URL:        p.URL,
			Meta:       meta,
		})
	}
	return envelopes, nil
}

// AdmissionClient posts an envelope to the admission endpoint.
type AdmissionClient struct {
	client *resty.Client
	url    string
}

func NewAdmissionClient(admissionURL string, timeout time.Duration) *AdmissionClient {
	return &AdmissionClient{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		url: admissionURL,
	}
}

type admissionResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ID        uint64 `json:"id"`
}

// Admit posts one envelope. A duplicate response is not an error; it is
// the expected outcome of re-polling a feed.
func (c *AdmissionClient) Admit(env Envelope) (duplicate bool, err error) {
	resp, err := c.client.R().
		SetBody(env).
		Post(c.url)
	if err != nil {
		return false, fmt.Errorf("ingest: admission call failed: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("ingest: admission rejected with status %d", resp.StatusCode())
	}
	var parsed admissionResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return false, fmt.Errorf("ingest: malformed admission response: %w", err)
	}
	return parsed.Duplicate, nil
}

// MinBodyLength is the minimum body length an admissible post must have.
const MinBodyLength = 10

var removalPlaceholders = []string{"[removed]", "[deleted]"}

// Admissible implements the filter policy: reject removal placeholders,
// link-only posts, and bodies shorter than MinBodyLength.
func Admissible(env Envelope) bool {
	text := strings.TrimSpace(env.Text)
	if len(text) < MinBodyLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, placeholder := range removalPlaceholders {
		if lower == placeholder {
			return false
		}
	}
	if isLinkOnly(text) {
		return false
	}
	return true
}

func isLinkOnly(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://")
}

// Conductor runs the ingestion poll cycle over the configured feeds.
type Conductor struct {
	feedClient FeedClient
	admission  *AdmissionClient
	feeds      []string
	postLimit  int
	paceDelay  time.Duration
}

func NewConductor(feedClient FeedClient, admission *AdmissionClient, feeds []string, postLimit int, paceDelay time.Duration) *Conductor {
	return &Conductor{
		feedClient: feedClient,
		admission:  admission,
		feeds:      feeds,
		postLimit:  postLimit,
		paceDelay:  paceDelay,
	}
}

// CycleSummary is the per-cycle outcome reported by RunCycle.
type CycleSummary struct {
	Fetched   int
	Filtered  int
	Posted    int
	Duplicate int
	Failed    int
}

// RunCycle fetches from every configured feed, filters, and admits each
// surviving post. Feed-level errors are logged and the conductor moves on
// to the next feed rather than aborting the cycle.
func (c *Conductor) RunCycle() CycleSummary {
	var summary CycleSummary

	for i, feed := range c.feeds {
		posts, err := c.feedClient.FetchRecent(feed, c.postLimit)
		if err != nil {
			log.Printf("[INGEST] feed %q failed: %v", feed, err)
			summary.Failed++
			continue
		}
		summary.Fetched += len(posts)

		for _, post := range posts {
			if !Admissible(post) {
				summary.Filtered++
				continue
			}
			duplicate, err := c.admission.Admit(post)
			if err != nil {
				log.Printf("[INGEST] admission failed for %s/%s: %v", post.Source, post.PlatformID, err)
				summary.Failed++
				continue
			}
			if duplicate {
				summary.Duplicate++
			} else {
				summary.Posted++
			}
		}

		if i < len(c.feeds)-1 {
			time.Sleep(c.paceDelay)
		}
	}

	log.Printf("[INGEST] cycle complete: fetched=%d filtered=%d posted=%d duplicate=%d failed=%d",
		summary.Fetched, summary.Filtered, summary.Posted, summary.Duplicate, summary.Failed)
	return summary
}

// Run is the conductor's long-lived poll loop, firing RunCycle on the
// configured wall-clock interval until ctx is cancelled.
func (c *Conductor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.RunCycle()
	for {
		select {
		case <-ctx.Done():
			log.Println("[INGEST] shutting down")
			return
		case <-ticker.C:
			c.RunCycle()
		}
	}
}
