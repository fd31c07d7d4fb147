// Package geocode resolves coordinates to addresses through a MapKit-style
// reverse geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/david/tender-tracker/internal/models"
)

var ErrNoResults = errors.New("reverse geocode returned no results")

// Config configures a Client. Either AccessToken or a Signer is required.
type Config struct {
	BaseURL     string
	AccessToken string // used as-is when set
	Signer      *TokenSigner
	Language    string
	Timeout     time.Duration
	RetryCount  int
}

// Client calls the reverse geocoding endpoint with a cached access token.
type Client struct {
	http     *resty.Client
	signer   *TokenSigner
	language string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
	static      bool
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" && cfg.Signer == nil {
		return nil, errors.New("geocode: access token or token signer required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://maps-api.apple.com/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = 3
	}
	if cfg.Language == "" {
		cfg.Language = "en-GB"
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &Client{
		http:        httpClient,
		signer:      cfg.Signer,
		language:    cfg.Language,
		accessToken: cfg.AccessToken,
		static:      cfg.AccessToken != "",
	}, nil
}

type tokenResponse struct {
	AccessToken      string `json:"accessToken"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.static || (c.accessToken != "" && time.Now().Before(c.expiresAt)) {
		return c.accessToken, nil
	}

	mapsToken, err := c.signer.Sign()
	if err != nil {
		return "", err
	}

	var tr tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(mapsToken).
		Get("/token")
	if err != nil {
		return "", fmt.Errorf("exchange maps token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("exchange maps token: status %d: %s", resp.StatusCode(), resp.String())
	}
	// The body is decoded regardless of the Content-Type the server sends.
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return "", fmt.Errorf("decode maps token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("exchange maps token: empty access token")
	}

	ttl := time.Duration(tr.ExpiresInSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c.accessToken = tr.AccessToken
	// Refresh a minute early so in-flight requests don't race expiry.
	c.expiresAt = time.Now().Add(ttl - time.Minute)
	return c.accessToken, nil
}

type structuredAddress struct {
	AdministrativeArea    string  `json:"administrativeArea"`
	SubAdministrativeArea *string `json:"subAdministrativeArea"`
	Locality              string  `json:"locality"`
	PostCode              string  `json:"postCode"`
	Thoroughfare          *string `json:"thoroughfare"`
	FullThoroughfare      *string `json:"fullThoroughfare"`
}

type place struct {
	FormattedAddressLines []string `json:"formattedAddressLines"`
	structuredAddress
	StructuredAddress *structuredAddress `json:"structuredAddress"`
}

type reverseGeocodeResponse struct {
	Results []place `json:"results"`
}

// ReverseGeocode returns the first address at the given point.
func (c *Client) ReverseGeocode(ctx context.Context, lon, lat float64) (*models.Address, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var rg reverseGeocodeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(tok).
		SetQueryParams(map[string]string{
			"loc":  strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64),
			"lang": c.language,
		}).
		Get("/reverseGeocode")
	if err != nil {
		return nil, fmt.Errorf("reverse geocode (%v, %v): %w", lat, lon, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reverse geocode (%v, %v): status %d", lat, lon, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), &rg); err != nil {
		return nil, fmt.Errorf("decode reverse geocode (%v, %v): %w", lat, lon, err)
	}
	if len(rg.Results) == 0 {
		return nil, fmt.Errorf("%w at (%v, %v)", ErrNoResults, lat, lon)
	}

	return toAddress(rg.Results[0], lon, lat), nil
}

func toAddress(p place, lon, lat float64) *models.Address {
	sa := p.structuredAddress
	if p.StructuredAddress != nil && sa.AdministrativeArea == "" && sa.Locality == "" {
		sa = *p.StructuredAddress
	}
	return &models.Address{
		DisplayName:           strings.Join(p.FormattedAddressLines, ", "),
		AdministrativeArea:    sa.AdministrativeArea,
		SubAdministrativeArea: sa.SubAdministrativeArea,
		Locality:              sa.Locality,
		PostCode:              sa.PostCode,
		Thoroughfare:          sa.Thoroughfare,
		FullThoroughfare:      sa.FullThoroughfare,
		Longitude:             lon,
		Latitude:              lat,
	}
}
