package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/pkg/logger"
	"github.com/okian/vireo/pkg/metrics"
)

// Default eBird client configuration constants.
const (
	defaultBaseURL      = "https://api.ebird.org/v2"
	defaultMaxResults   = 1000
	defaultFetchWorkers = 4
	defaultRequestRate  = rate.Limit(2) // requests per second
	defaultBurst        = 1
	defaultHTTPTimeout  = 30 * time.Second

	apiTokenHeader = "X-eBirdApiToken"
)

// EBird retrieves observation data from the eBird API. Responses are cached
// (the data is historical and immutable) and outbound requests pass through
// a rate limiter respecting the API's request quota.
type EBird struct {
	apiKey     string
	baseURL    string
	maxResults int
	workers    int

	client  *http.Client
	limiter *rate.Limiter
	cache   Cache
	log     logger.Logger

	// Taxonomy is expensive to fetch and immutable; loaded at most once
	// per process. The mutex gives single-flight semantics on first access.
	taxonomyMu sync.Mutex
	taxonomy   map[string]string
}

// EBirdOption applies a configuration option to the EBird client.
type EBirdOption func(*EBird)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) EBirdOption {
	return func(e *EBird) {
		if u != "" {
			e.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) EBirdOption {
	return func(e *EBird) {
		if c != nil {
			e.client = c
		}
	}
}

// WithCache sets the response cache.
func WithCache(c Cache) EBirdOption {
	return func(e *EBird) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithRateLimit sets the outbound request rate and burst.
func WithRateLimit(perSecond float64, burst int) EBirdOption {
	return func(e *EBird) {
		if perSecond > 0 && burst > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithFetchWorkers bounds the per-date fan-out concurrency.
func WithFetchWorkers(n int) EBirdOption {
	return func(e *EBird) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMaxResults caps observation results per date.
func WithMaxResults(n int) EBirdOption {
	return func(e *EBird) {
		if n > 0 {
			e.maxResults = n
		}
	}
}

// WithEBirdLogger sets the logger.
func WithEBirdLogger(log logger.Logger) EBirdOption {
	return func(e *EBird) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEBird creates an eBird API client.
func NewEBird(apiKey string, opts ...EBirdOption) (*EBird, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: eBird API key must not be empty", model.ErrInvalidArgument)
	}
	e := &EBird{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxResults: defaultMaxResults,
		workers:    defaultFetchWorkers,
		client:     &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    rate.NewLimiter(defaultRequestRate, defaultBurst),
		cache:      NopCache(),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// regionOf maps a target area to an eBird region code. Coordinate-based
// targeting has no region endpoint and is unsupported.
func regionOf(area model.TargetArea) (string, error) {
	if err := area.Validate(); err != nil {
		return "", err
	}
	if area.Kind == model.AreaLatLong {
		return "", fmt.Errorf("%w: %s", model.ErrUnsupportedArea, area)
	}
	return area.AreaID, nil
}

// get fetches a URL through the cache and rate limiter.
func (e *EBird) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	full := e.baseURL + path
	if len(params) > 0 {
		full += "?" + params.Encode()
	}
	sum := sha256.Sum256([]byte(full))
	key := hex.EncodeToString(sum[:])

	if body, ok, err := e.cache.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		metrics.RecordCacheHit()
		e.log.Debug(ctx, "cache hit", logger.String("url", full))
		return body, nil
	}
	metrics.RecordCacheMiss()

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrService, err)
	}
	req.Header.Set(apiTokenHeader, e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(endpoint, "error")
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordProviderRequest(endpoint, "error")
		return nil, fmt.Errorf("%w: read body: %v", ErrService, err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordProviderRequest(endpoint, "error")
		return nil, fmt.Errorf("%w: status %d from %s", ErrService, resp.StatusCode, path)
	}
	metrics.RecordProviderRequest(endpoint, "ok")

	if err := e.cache.Put(ctx, key, body); err != nil {
		// A dead cache degrades performance, not correctness.
		e.log.Warn(ctx, "response cache write failed", logger.Error(err))
	}
	return body, nil
}

// observation mirrors the eBird historic-observations response entry.
type observation struct {
	ComName         string `json:"comName"`
	SciName         string `json:"sciName"`
	SpeciesCode     string `json:"speciesCode"`
	LocID           string `json:"locId"`
	LocationPrivate bool   `json:"locationPrivate"`
}

// observationsOnDate fetches the observations recorded in a region on one day.
func (e *EBird) observationsOnDate(ctx context.Context, region string, d time.Time) ([]observation, error) {
	path := fmt.Sprintf("/data/obs/%s/historic/%d/%d/%d", region, d.Year(), int(d.Month()), d.Day())
	params := url.Values{}
	params.Set("maxResults", fmt.Sprint(e.maxResults))
	params.Set("detail", "full")

	body, err := e.get(ctx, "observations", path, params)
	if err != nil {
		return nil, err
	}
	var obs []observation
	if err := json.Unmarshal(body, &obs); err != nil {
		return nil, fmt.Errorf("%w: decode observations: %v", ErrService, err)
	}
	return obs, nil
}

// SpeciesSeenOnDates fans out one request per date (bounded) and merges the
// per-date sightings. Privacy-flagged observations contribute neither
// species nor location entries.
func (e *EBird) SpeciesSeenOnDates(ctx context.Context, area model.TargetArea, dates []time.Time) (model.Sightings, error) {
	region, err := regionOf(area)
	if err != nil {
		return nil, err
	}
	return fanOutDates(ctx, e.workers, dates, func(ctx context.Context, d time.Time) (model.Sightings, error) {
		obs, err := e.observationsOnDate(ctx, region, d)
		if err != nil {
			return nil, err
		}
		part := make(model.Sightings)
		for _, o := range obs {
			if o.LocationPrivate {
				continue
			}
			part.Add(model.Species{
				CommonName:     o.ComName,
				SpeciesCode:    o.SpeciesCode,
				ScientificName: o.SciName,
			}, o.LocID)
		}
		return part, nil
	})
}

// taxonEntry mirrors the eBird taxonomy response entry.
type taxonEntry struct {
	SciName     string `json:"sciName"`
	SpeciesCode string `json:"speciesCode"`
}

// SciNameToCode returns the scientific-name-to-code map, fetching the
// taxonomy on first use only. Concurrent first callers block on one fetch;
// the map is never partially published.
func (e *EBird) SciNameToCode(ctx context.Context) (map[string]string, error) {
	e.taxonomyMu.Lock()
	defer e.taxonomyMu.Unlock()

	if e.taxonomy != nil {
		return e.taxonomy, nil
	}

	params := url.Values{}
	params.Set("fmt", "json")
	body, err := e.get(ctx, "taxonomy", "/ref/taxonomy/ebird", params)
	if err != nil {
		return nil, err
	}
	var entries []taxonEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode taxonomy: %v", ErrService, err)
	}

	taxonomy := make(map[string]string, len(entries))
	for _, t := range entries {
		taxonomy[t.SciName] = t.SpeciesCode
	}
	e.taxonomy = taxonomy
	metrics.UpdateTaxonomySize(len(taxonomy))
	e.log.Info(ctx, "taxonomy loaded", logger.Int("entries", len(taxonomy)))
	return taxonomy, nil
}

// hotspot mirrors the eBird hotspot reference entry.
type hotspot struct {
	LocID string `json:"locId"`
}

// HotspotsInArea lists the hotspot location ids in the area.
func (e *EBird) HotspotsInArea(ctx context.Context, area model.TargetArea) ([]string, error) {
	region, err := regionOf(area)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("fmt", "json")
	body, err := e.get(ctx, "hotspots", "/ref/hotspot/"+region, params)
	if err != nil {
		return nil, err
	}
	var spots []hotspot
	if err := json.Unmarshal(body, &spots); err != nil {
		return nil, fmt.Errorf("%w: decode hotspots: %v", ErrService, err)
	}
	ids := make([]string, 0, len(spots))
	for _, h := range spots {
		ids = append(ids, h.LocID)
	}
	return ids, nil
}
