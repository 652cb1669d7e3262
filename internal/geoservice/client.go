package geoservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/i474232898/emission-dashboard/internal/common"
	"github.com/i474232898/emission-dashboard/internal/faults"
)

const (
	pathReduceRegion    = "/v1/collections:reduceRegion"
	pathZonalStatistics = "/v1/images:zonalStatistics"
	pathExport          = "/v1/images:export"
)

// SeriesRequest asks for the per-image spatial mean of one band over a region.
type SeriesRequest struct {
	Collection string
	Band       string
	Start      time.Time
	End        time.Time
	Region     json.RawMessage
}

// ImageReduction is one image of a reduced collection. Value is nil when the
// reduction over the region produced no data.
type ImageReduction struct {
	ID        string
	TimeStart int64 // milliseconds since epoch
	Value     *float64
}

// ZonalRequest asks for the percentage-of-area statistic per class of a
// categorical raster clipped to a region.
type ZonalRequest struct {
	Collection    string
	Band          string
	Region        json.RawMessage
	Denominator   float64
	DecimalPlaces int
}

// ClassShare is the area share of one land-cover class.
type ClassShare struct {
	Class int     `json:"class"`
	Value float64 `json:"value"`
}

// ExportRequest asks for the clipped raster itself.
type ExportRequest struct {
	Collection string
	Band       string
	Region     json.RawMessage
	Scale      float64
}

// Client talks to the remote geospatial compute API.
type Client struct {
	baseURL string
	token   string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient builds a client for baseURL. maxRetries of zero disables retries.
func NewClient(httpClient *http.Client, baseURL, token string, maxRetries int) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "geoservice",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpCfg: HTTPClientConfig{
			Client: httpClient,
			Backoff: BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// ReduceSeries returns every image of the collection in [Start, End) reduced to
// its mean over the region, following pagination until the service is done.
func (c *Client) ReduceSeries(ctx context.Context, r SeriesRequest) ([]ImageReduction, error) {
	params := map[string]string{
		"collection": r.Collection,
		"band":       r.Band,
		"start":      r.Start.Format(time.DateOnly),
		"end":        r.End.Format(time.DateOnly),
	}

	type reqBody struct {
		Collection string          `json:"collection"`
		Bands      []string        `json:"bands"`
		Start      string          `json:"start"`
		End        string          `json:"end"`
		Region     json.RawMessage `json:"region"`
		Reducer    string          `json:"reducer"`
		DropNulls  bool            `json:"dropNulls"`
		PageToken  string          `json:"pageToken,omitempty"`
	}

	var (
		out       []ImageReduction
		pageToken string
		seen      = make(map[string]struct{})
	)
	for {
		body := reqBody{
			Collection: r.Collection,
			Bands:      []string{r.Band},
			Start:      params["start"],
			End:        params["end"],
			Region:     r.Region,
			Reducer:    "mean",
			DropNulls:  true,
			PageToken:  pageToken,
		}

		var payload struct {
			Images []struct {
				ID        string              `json:"id"`
				TimeStart *int64              `json:"time_start"`
				Values    map[string]*float64 `json:"values"`
			} `json:"images"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := c.postJSON(ctx, pathReduceRegion, body, &payload); err != nil {
			return nil, c.wrap("reduceRegion", params, err)
		}

		for _, img := range payload.Images {
			if img.TimeStart == nil {
				return nil, c.wrap("reduceRegion", params, fmt.Errorf("image %q has no time_start", img.ID))
			}
			out = append(out, ImageReduction{
				ID:        img.ID,
				TimeStart: *img.TimeStart,
				Value:     img.Values[r.Band],
			})
		}

		tok := payload.NextPageToken
		if tok == "" {
			return out, nil
		}
		if _, ok := seen[tok]; ok {
			return nil, c.wrap("reduceRegion", params, fmt.Errorf("page token %q repeated", tok))
		}
		seen[tok] = struct{}{}
		pageToken = tok
	}
}

// ZonalPercentages returns the per-class area shares, keyed by class value.
func (c *Client) ZonalPercentages(ctx context.Context, r ZonalRequest) ([]ClassShare, error) {
	params := map[string]string{
		"collection":  r.Collection,
		"band":        r.Band,
		"statistic":   "PERCENTAGE",
		"denominator": strconv.FormatFloat(r.Denominator, 'f', -1, 64),
	}

	body := struct {
		Collection    string          `json:"collection"`
		Band          string          `json:"band"`
		Region        json.RawMessage `json:"region"`
		Statistic     string          `json:"statistic"`
		Denominator   float64         `json:"denominator"`
		DecimalPlaces int             `json:"decimalPlaces"`
	}{
		Collection:    r.Collection,
		Band:          r.Band,
		Region:        r.Region,
		Statistic:     "PERCENTAGE",
		Denominator:   r.Denominator,
		DecimalPlaces: r.DecimalPlaces,
	}

	var payload struct {
		Groups []ClassShare `json:"groups"`
	}
	if err := c.postJSON(ctx, pathZonalStatistics, body, &payload); err != nil {
		return nil, c.wrap("zonalStatistics", params, err)
	}
	if len(payload.Groups) == 0 {
		return nil, c.wrap("zonalStatistics", params, errors.New("response has no class groups"))
	}
	return payload.Groups, nil
}

// ExportImage streams the clipped, unmasked raster as a single GeoTIFF into w.
func (c *Client) ExportImage(ctx context.Context, r ExportRequest, w io.Writer) (int64, error) {
	params := map[string]string{
		"collection": r.Collection,
		"band":       r.Band,
		"scale":      strconv.FormatFloat(r.Scale, 'f', -1, 64),
	}

	body := struct {
		Collection  string          `json:"collection"`
		Band        string          `json:"band"`
		Region      json.RawMessage `json:"region"`
		Scale       float64         `json:"scale"`
		Unmask      bool            `json:"unmask"`
		Format      string          `json:"format"`
		FilePerBand bool            `json:"filePerBand"`
	}{
		Collection:  r.Collection,
		Band:        r.Band,
		Region:      r.Region,
		Scale:       r.Scale,
		Unmask:      true,
		Format:      "GEO_TIFF",
		FilePerBand: false,
	}

	resp, err := c.post(ctx, pathExport, body)
	if err != nil {
		return 0, c.wrap("export", params, err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, c.wrap("export", params, fmt.Errorf("read raster: %w", err))
	}
	return n, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		return req, nil
	}

	return doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
}

func (c *Client) wrap(op string, params map[string]string, err error) error {
	return &faults.ExternalServiceError{
		Operation: op,
		Params:    params,
		Auth:      isAuthFailure(err),
		Err:       err,
	}
}

func isAuthFailure(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	if statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden {
		return true
	}
	return common.HasAnyFold(statusErr.Body, "unauthenticated", "invalid token", "invalid authentication", "permission denied")
}
