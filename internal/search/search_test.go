package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/clustermap/internal/config"
	"github.com/woozymasta/clustermap/internal/layer"
)

const responseBody = `{
	"took": 3,
	"hits": {
		"total": {"value": 2, "relation": "eq"},
		"hits": [
			{"_index": "stations", "_id": "1", "_source": {"geo": {"lat": 40.7, "lon": -74.0}}},
			{"_index": "stations", "_id": "2", "_source": {"geo": "POINT (30 10)"}}
		]
	}
}`

func TestDecodeDocuments(t *testing.T) {
	docs, err := DecodeDocuments(strings.NewReader(responseBody))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "1", docs[0].ID)
	assert.Equal(t, "stations", docs[0].Index)
	assert.Equal(t, "POINT (30 10)", docs[1].Source["geo"])

	docs, err = DecodeDocuments(strings.NewReader(`[{"_source":{"shape":"POINT (1 2)"}}]`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "POINT (1 2)", docs[0].Source["shape"])

	docs, err = DecodeDocuments(strings.NewReader("  "))
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = DecodeDocuments(strings.NewReader(`{"hits":{}}`))
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)

	_, err = DecodeDocuments(strings.NewReader(`[{"_source":`))
	assert.Error(t, err)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.json")
	in := []Document{{ID: "a", Source: map[string]interface{}{"geo": "1,2"}}}

	require.NoError(t, SaveFile(path, in))
	out, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestClientSearch(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/stations/_search", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responseBody))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/", "admin", "secret")
	bound := orb.Bound{Min: orb.Point{-10, -5}, Max: orb.Point{20, 15}}
	docs, err := c.Search(context.Background(), "stations", Request{
		GeoFieldName: "geo",
		Fields:       []string{"name"},
		Size:         50,
		Bound:        &bound,
	})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	want := `{
		"size": 50,
		"_source": {"includes": ["geo", "name"]},
		"query": {"bool": {"filter": [
			{"exists": {"field": "geo"}},
			{"geo_bounding_box": {"geo": {
				"top_left": {"lat": 15, "lon": -10},
				"bottom_right": {"lat": -5, "lon": 20}
			}}}
		]}}
	}`
	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, want, string(b))
}

func TestClientSearchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["Authorization"]
		assert.False(t, ok)
		http.Error(w, "no such index", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(nil, srv.URL, "", "")
	_, err := c.Search(context.Background(), "missing", Request{GeoFieldName: "geo", Size: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

type fakeSearcher struct {
	docs map[string][]Document
	reqs chan Request
}

func (f *fakeSearcher) Search(_ context.Context, index string, req Request) ([]Document, error) {
	if f.reqs != nil {
		f.reqs <- req
	}
	docs, ok := f.docs[index]
	if !ok {
		return nil, errors.New("status 404")
	}
	return docs, nil
}

func TestRequestFor(t *testing.T) {
	spec := layer.ClusterLayerSpecification{Source: layer.Source{
		GeoFieldName:          "geo",
		TooltipFields:         []string{"name"},
		DocumentRequestNumber: 10,
	}}
	bound := orb.Bound{Max: orb.Point{1, 1}}

	req := RequestFor(spec, &bound)
	assert.Nil(t, req.Bound)
	assert.Equal(t, 10, req.Size)
	assert.Equal(t, []string{"name"}, req.Fields)

	spec.Source.UseGeoBoundingBoxFilter = true
	req = RequestFor(spec, &bound)
	assert.Equal(t, &bound, req.Bound)
}

func TestFetchLayers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "parks.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"_source":{"shape":"POINT (1 2)"}}]`), 0o644))

	s := &fakeSearcher{
		docs: map[string][]Document{
			"stations": {{ID: "1"}, {ID: "2"}},
		},
		reqs: make(chan Request, 4),
	}

	specs := []layer.ClusterLayerSpecification{
		{ID: "stations", Source: layer.Source{Index: "stations", GeoFieldName: "geo", DocumentRequestNumber: 5}},
		{ID: "parks", Source: layer.Source{Index: "ignored", Documents: file}},
		{ID: "broken", Source: layer.Source{Index: "missing"}},
		{ID: "empty"},
	}

	got, err := FetchLayers(context.Background(), s, specs, 2, nil)
	require.NoError(t, err)

	assert.Len(t, got["stations"], 2)
	assert.Len(t, got["parks"], 1)
	assert.Empty(t, got["empty"])
	_, ok := got["broken"]
	assert.False(t, ok)

	close(s.reqs)
	var sizes []int
	for r := range s.reqs {
		sizes = append(sizes, r.Size)
	}
	assert.ElementsMatch(t, []int{5, 0}, sizes)
}

func TestFetchLayersCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FetchLayers(ctx, &fakeSearcher{}, []layer.ClusterLayerSpecification{{ID: "a"}}, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromConfig(t *testing.T) {
	assert.Nil(t, FromConfig(config.OpenSearch{}))

	s := FromConfig(config.OpenSearch{
		URL:      "https://search.local:9200/",
		Username: "admin",
		Timeout:  config.Duration(3 * time.Second),
		Insecure: true,
	})
	c, ok := s.(*Client)
	require.True(t, ok)
	assert.Equal(t, "https://search.local:9200", c.baseURL)
	assert.Equal(t, 3*time.Second, c.http.Timeout)

	transport, ok := c.http.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}
