// Package horizons fetches osculating orbital elements from the JPL Horizons
// API. It is the external ephemeris gateway behind the position calculator:
// the cache calls into it only when a record is stale or missing.
package horizons

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/elements"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/frame"
)

const defaultBaseURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

// maxResponseBytes caps how much of a response is read. Element output for a
// single epoch is a few KB; anything near the limit is a server problem.
const maxResponseBytes = 4 << 20

// ErrUnsupportedObject reports a body with no Horizons identifier in the
// relationship table. Such objects can only be served from the fallback table.
var ErrUnsupportedObject = errors.New("no horizons identifier for object")

// Gateway fetches element sets over HTTP.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGateway creates a Gateway for the given API base URL. An empty baseURL
// selects the public Horizons endpoint.
func NewGateway(baseURL string, logger *slog.Logger) *Gateway {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Gateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// BaseURL returns the configured API base URL.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// FetchElements requests osculating elements for object relative to center
// at the given time. Elements are requested in the ecliptic J2000 frame in
// km and seconds, so they enter the cache pre-normalized.
func (g *Gateway) FetchElements(ctx context.Context, object, center string, asOf time.Time) (*elements.Set, error) {
	objBody := frame.Lookup(object)
	ctrBody := frame.Lookup(center)
	if objBody == nil || objBody.HorizonsID == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedObject, object)
	}
	if ctrBody == nil || ctrBody.HorizonsID == "" {
		return nil, fmt.Errorf("%w: center %s", ErrUnsupportedObject, center)
	}

	q := url.Values{}
	q.Set("format", "text")
	q.Set("COMMAND", quote(objBody.HorizonsID))
	q.Set("EPHEM_TYPE", "ELEMENTS")
	q.Set("CENTER", quote("@"+ctrBody.HorizonsID))
	q.Set("REF_PLANE", "ECLIPTIC")
	q.Set("REF_SYSTEM", "J2000")
	q.Set("OUT_UNITS", quote("KM-S"))
	q.Set("OBJ_DATA", quote("NO"))
	q.Set("TLIST", quote(fmt.Sprintf("%.9f", julian.TimeToJD(asOf.UTC()))))

	reqURL := g.baseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching elements for %s@%s: %w", object, center, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, g.baseURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", maxResponseBytes)
	}

	set, err := ParseElements(body, objBody.Name, ctrBody.Name)
	if err != nil {
		return nil, fmt.Errorf("parsing elements for %s@%s: %w", object, center, err)
	}

	g.logger.Debug("fetched osculating elements",
		"object", object,
		"center", center,
		"epoch", set.Epoch.UTC().Format(time.RFC3339),
		"eccentricity", set.Eccentricity,
	)
	return set, nil
}

// quote wraps a value in single quotes as the Horizons API expects.
func quote(v string) string {
	return "'" + v + "'"
}
