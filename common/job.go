package common

import (
	"encoding/json"
	"time"

	"github.com/araddon/dateparse"
)

// JobDescription is the description of a batch processing request as
// returned by the service. It is always replaced wholesale by a fresh
// fetch, never patched field by field.
type JobDescription struct {
	ID             string  `json:"id"`
	Created        string  `json:"created,omitempty"`
	Description    string  `json:"description,omitempty"`
	BucketName     string  `json:"bucketName,omitempty"`
	Status         Status  `json:"status,omitempty"`
	Error          string  `json:"error,omitempty"`
	UserAction     string  `json:"userAction,omitempty"`
	ValueEstimate  float64 `json:"valueEstimate,omitempty"`
	TileCount      int     `json:"tileCount,omitempty"`
	ProcessRequest Map     `json:"processRequest,omitempty"`
	TilingGrid     Map     `json:"tilingGrid,omitempty"`
	Output         Map     `json:"output,omitempty"`
}

// CreatedTime parses the creation stamp of the request (the service is not
// consistent about the timestamp format)
func (d *JobDescription) CreatedTime() (time.Time, error) {
	return dateparse.ParseAny(d.Created)
}

// TileInfo is the per-tile record of a batch processing request
type TileInfo struct {
	ID     int64           `json:"id"`
	Status string          `json:"status,omitempty"`
	Cost   float64         `json:"cost,omitempty"`
	Origin json.RawMessage `json:"origin,omitempty"`
}

// TilingGridInfo is a service-defined specification of how an area of
// interest is partitioned into tiles. Read-only for the client.
type TilingGridInfo struct {
	ID         int             `json:"id"`
	Name       string          `json:"name,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}
