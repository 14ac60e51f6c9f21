// Package batch is a client for the batch processing API: it creates,
// monitors and manages asynchronous processing requests and their output
// collections. Scheduling, tiling, retries and storage all happen on the
// service side; this package shapes requests, parses responses and
// paginates through the result feeds.
package batch

import (
	"context"
	"fmt"
	"net/http"
	neturl "net/url"
	"strconv"

	"github.com/airbusgeo/sentinelhub-batch-go/common"
	"github.com/airbusgeo/sentinelhub-batch-go/interface/transport"
)

const batchPath = "/api/v1/batch"

// Client performs operations against the batch service endpoints
type Client struct {
	t *transport.Client
}

// NewClient wraps a transport client
func NewClient(t *transport.Client) *Client {
	return &Client{t: t}
}

func (c *Client) batchURL() string {
	return c.t.BaseURL() + batchPath
}

func (c *Client) processURL(requestID string) string {
	url := c.batchURL() + "/process"
	if requestID != "" {
		return url + "/" + requestID
	}
	return url
}

func (c *Client) tilingGridsURL(gridID string) string {
	url := c.batchURL() + "/tilinggrids"
	if gridID != "" {
		return url + "/" + gridID
	}
	return url
}

func (c *Client) collectionsURL(collectionID string) string {
	url := c.batchURL() + "/collections"
	if collectionID != "" {
		return url + "/" + collectionID
	}
	return url
}

// QueryOption adds a query parameter to a listing request
type QueryOption func(neturl.Values)

// UserID filters requests by the user who created them
func UserID(id string) QueryOption {
	return func(v neturl.Values) { v.Set("userid", id) }
}

// Search filters a feed with a search query
func Search(query string) QueryOption {
	return func(v neturl.Values) { v.Set("search", query) }
}

// Sort orders a feed, e.g. "created:desc"
func Sort(sort string) QueryOption {
	return func(v neturl.Values) { v.Set("sort", sort) }
}

// Count limits the number of items per page
func Count(n int) QueryOption {
	return func(v neturl.Values) { v.Set("count", strconv.Itoa(n)) }
}

// QueryParam sets any other query parameter
func QueryParam(key, value string) QueryOption {
	return func(v neturl.Values) { v.Set(key, value) }
}

func queryValues(opts []QueryOption) neturl.Values {
	params := neturl.Values{}
	for _, opt := range opts {
		opt(params)
	}
	return params
}

// PayloadProvider is implemented by processing request builders whose first
// sub-request carries a Process API payload.
type PayloadProvider interface {
	ProcessPayload() common.Map
}

// Create creates a new batch processing request. processRequest is either a
// common.Map with the raw Process API payload or a PayloadProvider;
// tilingGrid can be built with TilingGrid. Unset options are omitted from
// the payload entirely.
func (c *Client) Create(ctx context.Context, processRequest interface{}, tilingGrid common.Map, opts ...PayloadOption) (*Job, error) {
	payload, err := createPayload(processRequest, tilingGrid, opts...)
	if err != nil {
		return nil, err
	}
	var desc common.JobDescription
	if err := c.t.FetchJSON(ctx, http.MethodPost, c.processURL(""), nil, payload, &desc); err != nil {
		return nil, err
	}
	return NewJob(c, "", &desc)
}

func createPayload(processRequest interface{}, tilingGrid common.Map, opts ...PayloadOption) (common.Map, error) {
	var request common.Map
	switch r := processRequest.(type) {
	case common.Map:
		request = r
	case map[string]interface{}:
		request = r
	case PayloadProvider:
		request = r.ProcessPayload()
	default:
		return nil, fmt.Errorf("%w: processRequest should be a map with a request payload or implement PayloadProvider, got %T", ErrInvalidArgument, processRequest)
	}
	payload := common.Map{
		"processRequest": request,
		"tilingGrid":     tilingGrid,
	}
	for _, opt := range opts {
		opt(payload)
	}
	return common.RemoveUndefined(payload), nil
}

// JobIterator lazily instantiates a handle for each batch request of a feed
type JobIterator struct {
	it     *FeatureIterator
	client *Client
	cur    *Job
	err    error
}

// IterRequests iterates over existing batch requests
func (c *Client) IterRequests(opts ...QueryOption) *JobIterator {
	return c.iterRequests("", opts...)
}

func (c *Client) iterRequests(emptyMessage string, opts ...QueryOption) *JobIterator {
	return &JobIterator{
		it:     newFeatureIterator(c.t, c.processURL(""), queryValues(opts), emptyMessage),
		client: c,
	}
}

// Next advances to the next batch request, fetching a new page when needed
func (ji *JobIterator) Next(ctx context.Context) bool {
	if ji.err != nil || !ji.it.Next(ctx) {
		return false
	}
	var desc common.JobDescription
	if err := ji.it.Decode(&desc); err != nil {
		ji.err = err
		return false
	}
	job, err := NewJob(ji.client, "", &desc)
	if err != nil {
		ji.err = err
		return false
	}
	ji.cur = job
	return true
}

// Job returns the handle of the current batch request
func (ji *JobIterator) Job() *Job { return ji.cur }

// Err returns the first error encountered during iteration
func (ji *JobIterator) Err() error {
	if ji.err != nil {
		return ji.err
	}
	return ji.it.Err()
}

// GetLatestRequest returns the most recently created batch request. An
// empty feed is an error.
func (c *Client) GetLatestRequest(ctx context.Context) (*Job, error) {
	ji := c.iterRequests("no batch request is available", Sort("created:desc"), Count(1))
	if !ji.Next(ctx) {
		if err := ji.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no batch request is available: %w", ErrNoData)
	}
	return ji.Job(), nil
}

// IterTilingGrids iterates over the tiling grids offered by the service
func (c *Client) IterTilingGrids(opts ...QueryOption) *FeatureIterator {
	return newFeatureIterator(c.t, c.tilingGridsURL(""), queryValues(opts),
		"failed to obtain information about available tiling grids")
}

// GetTilingGrid returns a single tiling grid definition
func (c *Client) GetTilingGrid(ctx context.Context, gridID int) (*common.TilingGridInfo, error) {
	var grid common.TilingGridInfo
	if err := c.t.FetchJSON(ctx, http.MethodGet, c.tilingGridsURL(strconv.Itoa(gridID)), nil, nil, &grid); err != nil {
		return nil, err
	}
	return &grid, nil
}
