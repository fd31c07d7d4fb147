package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/david/tender-tracker/internal/ingest"
	"github.com/david/tender-tracker/internal/models"
	"github.com/david/tender-tracker/internal/store"
)

const linkPrefix = "https://t.me/"

// Scraper fetches post embed pages, caching each parsed post by link.
type Scraper struct {
	Fetcher ingest.Fetcher
	Cache   *store.FileCache // nil disables caching
}

func NewScraper(fetcher ingest.Fetcher, cacheDir string) *Scraper {
	s := &Scraper{Fetcher: fetcher}
	if cacheDir != "" {
		s.Cache = store.NewFileCache(cacheDir, 0)
	}
	return s
}

// IsPostLink reports whether a source URL points at a public Telegram post.
func IsPostLink(link string) bool {
	return strings.HasPrefix(link, linkPrefix)
}

// Fetch returns the post behind link. A link may list several comma
// separated posts; their media are combined and the last text wins.
// cached reports whether the result came from the cache.
func (s *Scraper) Fetch(ctx context.Context, link string) (result models.TelegramPost, cached bool, err error) {
	key := store.MD5Key(link)
	if s.Cache != nil {
		if data, ok := s.Cache.Get(key); ok {
			if err := json.Unmarshal(data, &result); err == nil {
				return result, true, nil
			}
		}
	}

	var p post
	for _, part := range strings.Split(link, ",") {
		embed := strings.TrimSpace(part) + "?embed=1&mode=tme"
		doc, err := s.Fetcher.Fetch(ctx, embed)
		if err != nil {
			return models.TelegramPost{}, false, fmt.Errorf("fetch %s: %w", embed, err)
		}
		err = p.parse(doc.Body)
		doc.Body.Close()
		if err != nil {
			return models.TelegramPost{}, false, err
		}
	}

	result = p.result(link)
	if s.Cache != nil {
		data, err := json.MarshalIndent(result, "", "  ")
		if err == nil {
			err = s.Cache.Put(key, data)
		}
		if err != nil {
			log.Printf("[Telegram] cache write for %s failed: %v", link, err)
		}
	}
	return result, false, nil
}

// Stats counts links processed by ExtendSources.
type Stats struct {
	Items   int
	Fetched int
	Cached  int
	Failed  int
}

// ExtendSources attaches the content of every t.me source to its incident.
// Failed links are logged and left out.
func (s *Scraper) ExtendSources(ctx context.Context, items []models.CleanedIncident) Stats {
	var stats Stats
	for i := range items {
		if ctx.Err() != nil {
			break
		}
		item := &items[i]
		stats.Items++
		log.Printf("[Telegram] %d/%d: %s", i+1, len(items), item.Bellingcat.ID)

		extended := []models.TelegramPost{}
		for _, link := range item.Bellingcat.Sources {
			if !IsPostLink(link) {
				continue
			}
			p, cached, err := s.Fetch(ctx, link)
			if err != nil {
				log.Printf("[Telegram]   - FAILED: %s: %v", link, err)
				stats.Failed++
				continue
			}
			if cached {
				log.Printf("[Telegram]   - CACHED: %s", link)
				stats.Cached++
			} else {
				log.Printf("[Telegram]   - FETCHED: %s", link)
				stats.Fetched++
			}
			extended = append(extended, p)
		}
		item.SourcesExtended = extended
	}
	return stats
}
