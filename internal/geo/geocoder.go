// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/thrifttags/internal/cache"
	"github.com/tomtom215/thrifttags/internal/config"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/metrics"
)

const geocoderBreakerName = "nominatim"

// ErrGeocoderDisabled is returned by Lookup when reverse geocoding is off.
var ErrGeocoderDisabled = errors.New("reverse geocoding disabled")

// Place is the result of a reverse geocode.
type Place struct {
	Label       string `json:"label"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	Approximate bool   `json:"approximate"`
	Message     string `json:"message,omitempty"`
}

// nominatimResponse is the subset of the Nominatim reverse response we read.
type nominatimResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
	Error string `json:"error"`
}

// Geocoder reverse-geocodes coordinates through a Nominatim endpoint.
// Outbound calls are rate limited, guarded by a circuit breaker and cached
// per coordinate rounded to three decimals.
type Geocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
	enabled   bool
	limiter   *rate.Limiter
	cb        *gobreaker.CircuitBreaker[interface{}]
	cache     *cache.TTL[string, Place]
}

// NewGeocoder builds a Geocoder from cfg.
func NewGeocoder(cfg config.GeoConfig, breaker config.BreakerConfig) *Geocoder {
	timeout := cfg.GeocoderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	perSecond := cfg.GeocoderRate
	if perSecond <= 0 {
		perSecond = 1
	}
	ttl := cfg.GeocoderCacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	threshold := breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(geocoderBreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        geocoderBreakerName,
		MaxRequests: breaker.MaxRequests,
		Interval:    breaker.Interval,
		Timeout:     breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Geocoder{
		client:    &http.Client{Timeout: timeout},
		baseURL:   cfg.GeocoderURL,
		userAgent: cfg.GeocoderUserAgent,
		enabled:   cfg.GeocoderEnabled && cfg.GeocoderURL != "",
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
		cb:        cb,
		cache:     cache.New[string, Place](ttl),
	}
}

// Cache exposes the result cache so the caller can schedule its cleanup.
func (g *Geocoder) Cache() *cache.TTL[string, Place] {
	return g.cache
}

// Describe returns a label for p and never fails: when the lookup cannot be
// completed the label is "Near <lat>, <lng>".
func (g *Geocoder) Describe(ctx context.Context, p Point) Place {
	place, err := g.Lookup(ctx, p)
	if err == nil {
		return place
	}
	if !errors.Is(err, ErrGeocoderDisabled) {
		logging.Ctx(ctx).Debug().Err(err).Str("point", p.String()).Msg("Reverse geocode failed, using coordinates")
	}
	return Place{
		Label:       nearLabel(p),
		Approximate: true,
		Message:     "Couldn't retrieve address. Using coordinates instead.",
	}
}

// Lookup reverse-geocodes p.
func (g *Geocoder) Lookup(ctx context.Context, p Point) (Place, error) {
	if !p.Valid() {
		return Place{}, fmt.Errorf("invalid coordinates %s", p)
	}
	if !g.enabled {
		return Place{}, ErrGeocoderDisabled
	}

	key := cacheKey(p)
	if place, ok := g.cache.Get(key); ok {
		metrics.GeocoderRequests.WithLabelValues("cache_hit").Inc()
		return place, nil
	}

	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.fetch(ctx, p)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.GeocoderRequests.WithLabelValues("rejected").Inc()
			metrics.CircuitBreakerRequests.WithLabelValues(geocoderBreakerName, "rejected").Inc()
		} else {
			metrics.GeocoderRequests.WithLabelValues("error").Inc()
			metrics.CircuitBreakerRequests.WithLabelValues(geocoderBreakerName, "failure").Inc()
		}
		return Place{}, err
	}
	metrics.GeocoderRequests.WithLabelValues("success").Inc()
	metrics.CircuitBreakerRequests.WithLabelValues(geocoderBreakerName, "success").Inc()

	place := buildPlace(p, res.(*nominatimResponse))
	g.cache.Set(key, place)
	return place, nil
}

func (g *Geocoder) fetch(ctx context.Context, p Point) (*nominatimResponse, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nominatim returned status %d: %s", resp.StatusCode, body)
	}

	var out nominatimResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("nominatim: %s", out.Error)
	}
	return &out, nil
}

// buildPlace formats the label: "City, State", else "City, Country", else
// "State, Country", else the coordinates.
func buildPlace(p Point, r *nominatimResponse) Place {
	a := r.Address
	city := firstNonEmpty(a.City, a.Town, a.Village, a.County)

	place := Place{City: city, State: a.State, Country: a.Country}
	switch {
	case city != "" && a.State != "":
		place.Label = city + ", " + a.State
	case city != "":
		place.Label = joinNonEmpty(city, a.Country)
	case a.State != "":
		place.Label = joinNonEmpty(a.State, a.Country)
	default:
		place.Label = nearLabel(p)
		place.Approximate = true
	}
	return place
}

func nearLabel(p Point) string {
	return "Near " + p.String()
}

func cacheKey(p Point) string {
	return fmt.Sprintf("%.3f,%.3f", p.Lat, p.Lng)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(a, b string) string {
	if b == "" {
		return a
	}
	return a + ", " + b
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
