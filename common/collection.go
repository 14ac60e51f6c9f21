package common

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/araddon/dateparse"
)

// Collection is a named, user-owned grouping of batch output tiles. It is a
// top-level resource of the service, not owned by any single request.
// Unset fields are never serialized.
type Collection struct {
	ID             string                    `json:"id,omitempty"`
	Name           string                    `json:"name,omitempty"`
	S3Bucket       string                    `json:"s3Bucket,omitempty"`
	UserID         string                    `json:"userId,omitempty"`
	Created        string                    `json:"created,omitempty"`
	NoData         *float64                  `json:"noData,omitempty"`
	AdditionalData *CollectionAdditionalData `json:"additionalData,omitempty"`
	BatchData      *CollectionBatchData      `json:"batchData,omitempty"`
}

// CollectionAdditionalData holds the per-band metadata of a collection
type CollectionAdditionalData struct {
	Bands map[string]json.RawMessage `json:"bands,omitempty"`
}

// CollectionBatchData links a collection back to the tiling grid its tiles
// were produced on
type CollectionBatchData struct {
	TilingGridID *int `json:"tilingGridId,omitempty"`
}

// CreatedTime parses the creation stamp of the collection
func (c *Collection) CreatedTime() (time.Time, error) {
	return dateparse.ParseAny(c.Created)
}

// BandNames returns the names of the collection bands, sorted
func (c *Collection) BandNames() []string {
	if c.AdditionalData == nil {
		return nil
	}
	names := make([]string, 0, len(c.AdditionalData.Bands))
	for name := range c.AdditionalData.Bands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
