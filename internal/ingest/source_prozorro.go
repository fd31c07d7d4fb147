package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Poster issues a POST whose parameters are already encoded in the URL.
type Poster interface {
	Post(ctx context.Context, url string) (*FetchedDocument, error)
}

// SearchParams are the Prozorro tender search filters.
type SearchParams struct {
	Text    string
	Region  string // e.g. "61-64"
	Page    int
	PerPage int
}

// SearchResponse is one page of Prozorro search results.
type SearchResponse struct {
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Total   int             `json:"total"`
	Data    []TenderSummary `json:"data"`
}

// TenderSummary is the subset of a search hit the pipeline uses.
type TenderSummary struct {
	TenderID string `json:"tenderID"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Value    struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"value"`
	ProcuringEntity struct {
		Name string `json:"name"`
	} `json:"procuringEntity"`
}

const defaultPerPage = 20

var (
	// ErrInvalidTenderID is returned for ids that cannot name a page file.
	ErrInvalidTenderID = errors.New("invalid tender id")

	validTenderID = regexp.MustCompile(`^UA-\d{4}-\d{2}-\d{2}-\d{6}-\w$`)
)

// ProzorroClient searches tenders and downloads tender detail pages.
type ProzorroClient struct {
	Poster   Poster
	Pages    Fetcher
	BaseURL  string
	PageURL  string // fmt template taking the tender id
	PerPage  int
	MaxPages int // 0 = all
	Delay    time.Duration
}

// NewProzorroClient builds a client from a registry source entry.
func NewProzorroClient(cfg SourceConfig, poster Poster, pages Fetcher) *ProzorroClient {
	c := &ProzorroClient{
		Poster:   poster,
		Pages:    pages,
		BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		PageURL:  cfg.PageURL,
		PerPage:  cfg.Search.PerPage,
		MaxPages: cfg.Search.MaxPages,
		Delay:    time.Duration(cfg.Search.DelaySeconds) * time.Second,
	}
	if c.PageURL == "" {
		c.PageURL = "https://prozorro.gov.ua/tender/%s"
	}
	if c.PerPage <= 0 {
		c.PerPage = defaultPerPage
	}
	return c
}

func (c *ProzorroClient) searchURL(p SearchParams) string {
	q := url.Values{}
	if p.Text != "" {
		q.Set("text", p.Text)
	}
	if p.Region != "" {
		q.Set("region", p.Region)
	}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("per_page", strconv.Itoa(p.PerPage))
	return c.BaseURL + "/search/tenders?" + q.Encode()
}

func (c *ProzorroClient) perPage() int {
	if c.PerPage > 0 {
		return c.PerPage
	}
	return defaultPerPage
}

// Search fetches a single page of results.
func (c *ProzorroClient) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	if p.PerPage <= 0 {
		p.PerPage = c.perPage()
	}

	doc, err := c.Poster.Post(ctx, c.searchURL(p))
	if err != nil {
		return nil, fmt.Errorf("search page %d: %w", p.Page, err)
	}
	defer doc.Body.Close()

	var resp SearchResponse
	if err := json.NewDecoder(doc.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search page %d: %w", p.Page, err)
	}
	return &resp, nil
}

// SearchAll walks result pages starting at page 1 until the reported total
// is exhausted or MaxPages is reached, pausing Delay between requests.
func (c *ProzorroClient) SearchAll(ctx context.Context, text, region string) ([]TenderSummary, error) {
	var results []TenderSummary
	perPage := c.perPage()
	totalPages := 1

	for page := 1; page <= totalPages; page++ {
		if page > 1 && c.Delay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(c.Delay):
			}
		}

		resp, err := c.Search(ctx, SearchParams{Text: text, Region: region, Page: page, PerPage: perPage})
		if err != nil {
			return results, err
		}
		results = append(results, resp.Data...)

		if page == 1 {
			totalPages = (resp.Total + perPage - 1) / perPage
		}
		log.Printf("[Prozorro] Retrieved page %d/%d with %d tenders", page, totalPages, len(resp.Data))

		if len(resp.Data) == 0 {
			break
		}
		if c.MaxPages > 0 && page >= c.MaxPages {
			log.Printf("[Prozorro] Reached maximum number of pages (%d)", c.MaxPages)
			break
		}
	}

	return results, nil
}

// TenderPageURL returns the public detail page for a tender id.
func (c *ProzorroClient) TenderPageURL(tenderID string) string {
	return fmt.Sprintf(c.PageURL, url.PathEscape(tenderID))
}

// DownloadTender saves the detail page of tenderID as <dir>/<tenderID>.html
// and returns the written path. Ids that are not UA-YYYY-MM-DD-NNNNNN-X are
// rejected before anything is fetched or written.
func (c *ProzorroClient) DownloadTender(ctx context.Context, tenderID, dir string) (string, error) {
	if !validTenderID.MatchString(tenderID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTenderID, tenderID)
	}

	doc, err := c.Pages.Fetch(ctx, c.TenderPageURL(tenderID))
	if err != nil {
		return "", fmt.Errorf("fetch tender %s: %w", tenderID, err)
	}
	defer doc.Body.Close()

	body, err := io.ReadAll(doc.Body)
	if err != nil {
		return "", fmt.Errorf("read tender %s: %w", tenderID, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, tenderID+".html")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write tender %s: %w", tenderID, err)
	}
	return path, nil
}
