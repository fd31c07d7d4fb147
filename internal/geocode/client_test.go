package geocode

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestReverseGeocodeWithSignedToken(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer := &TokenSigner{TeamID: "TEAM123", KeyID: "KEY456", Key: key, TTL: time.Minute}

	tokenCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		switch r.URL.Path {
		case "/token":
			tokenCalls++
			parsed, err := jwt.Parse(auth, func(tok *jwt.Token) (interface{}, error) {
				if tok.Header["kid"] != "KEY456" {
					t.Errorf("kid header = %v", tok.Header["kid"])
				}
				return &key.PublicKey, nil
			}, jwt.WithValidMethods([]string{"ES256"}))
			if err != nil || !parsed.Valid {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if iss, _ := parsed.Claims.GetIssuer(); iss != "TEAM123" {
				t.Errorf("issuer = %q", iss)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"accessToken": "access-1", "expiresInSeconds": 1800})
		case "/reverseGeocode":
			if auth != "access-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if got := r.URL.Query().Get("loc"); got != "49.99,36.23" {
				t.Errorf("loc = %q, want lat,lon", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"results":[{
				"formattedAddressLines":["вулиця Сумська, 1","Харків","Україна"],
				"administrativeArea":"Харківська область",
				"locality":"Харків",
				"postCode":"61000",
				"thoroughfare":"вулиця Сумська"
			}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Signer: signer, Language: "uk-UA"})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		addr, err := c.ReverseGeocode(context.Background(), 36.23, 49.99)
		if err != nil {
			t.Fatalf("ReverseGeocode: %v", err)
		}
		if addr.DisplayName != "вулиця Сумська, 1, Харків, Україна" {
			t.Errorf("DisplayName = %q", addr.DisplayName)
		}
		if addr.Locality != "Харків" || addr.PostCode != "61000" {
			t.Errorf("address = %+v", addr)
		}
		if addr.Thoroughfare == nil || *addr.Thoroughfare != "вулиця Сумська" {
			t.Errorf("Thoroughfare = %v", addr.Thoroughfare)
		}
		if addr.SubAdministrativeArea != nil || addr.FullThoroughfare != nil {
			t.Errorf("absent fields should stay nil: %+v", addr)
		}
		if addr.Longitude != 36.23 || addr.Latitude != 49.99 {
			t.Errorf("coordinates = (%v, %v)", addr.Longitude, addr.Latitude)
		}
	}
	if tokenCalls != 1 {
		t.Errorf("token exchanged %d times, want 1 (cached)", tokenCalls)
	}
}

func TestReverseGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, AccessToken: "static"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.ReverseGeocode(context.Background(), 30.5, 50.4)
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestReverseGeocodeDecodesAnyContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     bool
	}{
		{"text/plain", "text/plain; charset=utf-8", `{"results":[{"locality":"Київ","administrativeArea":"Київ"}]}`, false},
		{"octet-stream", "application/octet-stream", `{"results":[{"locality":"Київ","administrativeArea":"Київ"}]}`, false},
		{"malformed", "application/json", `{"results":[`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Accept"); got != "application/json" {
					t.Errorf("Accept = %q", got)
				}
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(Config{BaseURL: srv.URL, AccessToken: "static"})
			if err != nil {
				t.Fatal(err)
			}
			addr, err := c.ReverseGeocode(context.Background(), 30.52, 50.45)
			if tt.wantErr {
				if err == nil || errors.Is(err, ErrNoResults) {
					t.Fatalf("expected decode error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReverseGeocode: %v", err)
			}
			if addr.Locality != "Київ" {
				t.Errorf("Locality = %q, want Київ", addr.Locality)
			}
		})
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without token or signer")
	}
}
