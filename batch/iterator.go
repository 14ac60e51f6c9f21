package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	neturl "net/url"

	"github.com/airbusgeo/sentinelhub-batch-go/interface/transport"
)

// FeatureIterator is a lazy, single-pass iterator over a paged feed
// endpoint. A new page is fetched from the service only once the consumer
// has advanced past the buffered one; items are yielded in the exact order
// the service returns them. It is not safe for concurrent use and cannot be
// restarted.
type FeatureIterator struct {
	t            *transport.Client
	url          string
	params       neturl.Values
	emptyMessage string

	page     []json.RawMessage
	index    int
	token    string
	total    int
	hasTotal bool
	fetched  bool
	done     bool
	err      error
}

type featureFeed struct {
	Data  []json.RawMessage `json:"data"`
	Links struct {
		NextToken string `json:"nextToken"`
	} `json:"links"`
	TotalCount *int `json:"totalCount"`
}

// newFeatureIterator wraps a feed endpoint. If emptyMessage is not empty,
// an empty first page fails the iteration with that message: the call site
// signals that an empty result is unexpected.
func newFeatureIterator(t *transport.Client, url string, params neturl.Values, emptyMessage string) *FeatureIterator {
	return &FeatureIterator{
		t:            t,
		url:          url,
		params:       params,
		emptyMessage: emptyMessage,
		index:        -1,
	}
}

// Next advances to the next feature, fetching a new page when the buffered
// one is exhausted. It returns false at the end of the feed or on error;
// Err reports the latter.
func (it *FeatureIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	it.index++
	for it.index >= len(it.page) {
		if it.done && it.fetched {
			return false
		}
		if err := it.fetchPage(ctx); err != nil {
			it.err = err
			return false
		}
		it.index = 0
	}
	return true
}

func (it *FeatureIterator) fetchPage(ctx context.Context) error {
	params := neturl.Values{}
	for key, values := range it.params {
		params[key] = values
	}
	if it.token != "" {
		params.Set("viewtoken", it.token)
	}
	var feed featureFeed
	if err := it.t.FetchJSON(ctx, http.MethodGet, it.url, params, nil, &feed); err != nil {
		return err
	}
	first := !it.fetched
	it.fetched = true
	it.page = feed.Data
	it.token = feed.Links.NextToken
	it.done = it.token == ""
	if feed.TotalCount != nil {
		it.total = *feed.TotalCount
		it.hasTotal = true
	}
	if first && len(feed.Data) == 0 && it.emptyMessage != "" {
		return fmt.Errorf("%s: %w", it.emptyMessage, ErrNoData)
	}
	return nil
}

// Feature returns the current raw feature
func (it *FeatureIterator) Feature() json.RawMessage {
	if it.index < 0 || it.index >= len(it.page) {
		return nil
	}
	return it.page[it.index]
}

// Decode unmarshals the current feature into v
func (it *FeatureIterator) Decode(v interface{}) error {
	raw := it.Feature()
	if raw == nil {
		return fmt.Errorf("FeatureIterator.Decode: no current feature")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("FeatureIterator.Decode: %w", err)
	}
	return nil
}

// Err returns the first error encountered during iteration
func (it *FeatureIterator) Err() error { return it.err }

// TotalCount returns the feed size as reported by the service, if it
// reported one. Valid after the first page has been fetched.
func (it *FeatureIterator) TotalCount() (int, bool) { return it.total, it.hasTotal }
