package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/woozymasta/clustermap/internal/config"
)

// Request limits what a layer search returns.
type Request struct {
	// Bound restricts hits to a geo bounding box when set.
	Bound        *orb.Bound
	GeoFieldName string
	Fields       []string
	Size         int
}

// Searcher runs a layer search against an index.
type Searcher interface {
	Search(ctx context.Context, index string, req Request) ([]Document, error)
}

// Client talks to the OpenSearch _search API.
type Client struct {
	http     *http.Client
	baseURL  string
	username string
	password string
}

// NewClient returns a client for the cluster at baseURL. Empty username
// disables basic auth.
func NewClient(httpClient *http.Client, baseURL, username, password string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:     httpClient,
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
	}
}

// NewHTTPClient returns the HTTP client used for cluster requests.
func NewHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
	}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// FromConfig returns a searcher for the configured cluster, or nil when no
// cluster URL is set.
func FromConfig(o config.OpenSearch) Searcher {
	if o.URL == "" {
		return nil
	}
	client := NewHTTPClient(time.Duration(o.Timeout), o.Insecure)
	return NewClient(client, o.URL, o.Username, o.Password)
}

// Search returns the hits of index carrying the geo field.
func (c *Client) Search(ctx context.Context, index string, req Request) ([]Document, error) {
	body, err := json.Marshal(buildQuery(req))
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/" + url.PathEscape(index) + "/_search"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	return DecodeDocuments(resp.Body)
}

func buildQuery(req Request) map[string]interface{} {
	includes := append([]string{req.GeoFieldName}, req.Fields...)

	filters := []interface{}{
		map[string]interface{}{"exists": map[string]interface{}{"field": req.GeoFieldName}},
	}
	if req.Bound != nil {
		filters = append(filters, map[string]interface{}{
			"geo_bounding_box": map[string]interface{}{
				req.GeoFieldName: map[string]interface{}{
					"top_left":     map[string]float64{"lat": req.Bound.Top(), "lon": req.Bound.Left()},
					"bottom_right": map[string]float64{"lat": req.Bound.Bottom(), "lon": req.Bound.Right()},
				},
			},
		})
	}

	return map[string]interface{}{
		"size":    req.Size,
		"_source": map[string]interface{}{"includes": includes},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
	}
}
