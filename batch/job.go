package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	neturl "net/url"
	"strconv"

	"github.com/airbusgeo/sentinelhub-batch-go/common"
	"github.com/airbusgeo/sentinelhub-batch-go/service/geometry"
)

// Job is a handle on one remote batch processing request. It caches the
// request description and only ever replaces it wholesale with a fresh
// fetch. A handle is not designed to be shared between goroutines.
type Job struct {
	ID string

	client *Client
	desc   *common.JobDescription
}

// NewJob builds a handle from a known request id or an already fetched
// description. Exactly one of the two must be given.
func NewJob(client *Client, id string, desc *common.JobDescription) (*Job, error) {
	if (id == "") == (desc == nil) {
		return nil, fmt.Errorf("%w: exactly one of id and description has to be given", ErrInvalidArgument)
	}
	if id == "" {
		id = desc.ID
	}
	return &Job{ID: id, client: client, desc: desc}, nil
}

// Refresh fetches the current description of the request and replaces the
// cached one.
func (j *Job) Refresh(ctx context.Context) error {
	var desc common.JobDescription
	if err := j.client.t.FetchJSON(ctx, http.MethodGet, j.client.processURL(j.ID), nil, nil, &desc); err != nil {
		return err
	}
	j.desc = &desc
	return nil
}

// Description returns the cached description of the request, fetching it
// from the service the first time it is needed.
func (j *Job) Description(ctx context.Context) (*common.JobDescription, error) {
	if j.desc == nil {
		if err := j.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return j.desc, nil
}

// Evalscript returns the evalscript of the processing request
func (j *Job) Evalscript(ctx context.Context) (string, error) {
	desc, err := j.Description(ctx)
	if err != nil {
		return "", err
	}
	evalscript, ok := desc.ProcessRequest["evalscript"].(string)
	if !ok {
		return "", fmt.Errorf("%w: evalscript is not defined for this batch request", ErrNoData)
	}
	return evalscript, nil
}

// boundsPayload returns the bounds section of the processing request and
// its CRS
func (j *Job) boundsPayload(ctx context.Context) (map[string]interface{}, geometry.CRS, error) {
	desc, err := j.Description(ctx)
	if err != nil {
		return nil, "", err
	}
	input, _ := desc.ProcessRequest["input"].(map[string]interface{})
	bounds, ok := input["bounds"].(map[string]interface{})
	if !ok {
		return nil, "", fmt.Errorf("%w: bounds are not defined for this batch request", ErrNoData)
	}
	crs := geometry.WGS84
	if properties, ok := bounds["properties"].(map[string]interface{}); ok {
		if urn, ok := properties["crs"].(string); ok {
			crs = geometry.ParseCRS(urn)
		}
	}
	return bounds, crs, nil
}

// BBox returns the area bounding box of the request together with its CRS
func (j *Job) BBox(ctx context.Context) (geometry.BBox, error) {
	bounds, crs, err := j.boundsPayload(ctx)
	if err != nil {
		return geometry.BBox{}, err
	}
	raw, ok := bounds["bbox"].([]interface{})
	if !ok {
		return geometry.BBox{}, fmt.Errorf("%w: bounding box is not defined for this batch request", ErrNoData)
	}
	coords := make([]float64, 0, len(raw))
	for _, c := range raw {
		f, ok := c.(float64)
		if !ok {
			return geometry.BBox{}, fmt.Errorf("%w: malformed bounding box coordinate %v", ErrNoData, c)
		}
		coords = append(coords, f)
	}
	return geometry.NewBBox(coords, crs)
}

// Geometry returns the area geometry of the request together with its CRS
func (j *Job) Geometry(ctx context.Context) (geometry.Geometry, error) {
	bounds, crs, err := j.boundsPayload(ctx)
	if err != nil {
		return geometry.Geometry{}, err
	}
	g, ok := bounds["geometry"]
	if !ok {
		return geometry.Geometry{}, fmt.Errorf("%w: geometry is not defined for this batch request", ErrNoData)
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return geometry.Geometry{}, fmt.Errorf("Geometry.Marshal: %w", err)
	}
	return geometry.NewGeometry(raw, crs)
}

// callAction makes a POST request to the service that triggers a
// processing action. It does not mutate the cached description.
func (j *Job) callAction(ctx context.Context, action string) (common.Map, error) {
	var response common.Map
	if err := j.client.t.FetchJSON(ctx, http.MethodPost, j.client.processURL(j.ID)+"/"+action, nil, nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// StartAnalysis asks the service to analyse the request
func (j *Job) StartAnalysis(ctx context.Context) (common.Map, error) {
	return j.callAction(ctx, "analyse")
}

// Start starts running the batch request
func (j *Job) Start(ctx context.Context) (common.Map, error) {
	return j.callAction(ctx, "start")
}

// Cancel cancels the batch request
func (j *Job) Cancel(ctx context.Context) (common.Map, error) {
	return j.callAction(ctx, "cancel")
}

// RestartPartial restarts only the parts of the request that failed
func (j *Job) RestartPartial(ctx context.Context) (common.Map, error) {
	return j.callAction(ctx, "restartpartial")
}

// Update sends the given fields to the service and replaces the cached
// description with the service response.
func (j *Job) Update(ctx context.Context, opts ...PayloadOption) error {
	payload := common.Map{}
	for _, opt := range opts {
		opt(payload)
	}
	var desc common.JobDescription
	if err := j.client.t.FetchJSON(ctx, http.MethodPut, j.client.processURL(j.ID), nil, common.RemoveUndefined(payload), &desc); err != nil {
		return err
	}
	j.desc = &desc
	return nil
}

// Delete removes the batch request and returns the service acknowledgement
func (j *Job) Delete(ctx context.Context) (common.Map, error) {
	var response common.Map
	if err := j.client.t.FetchJSON(ctx, http.MethodDelete, j.client.processURL(j.ID), nil, nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// CheckStatus returns a StatusError if the status of the request is one of
// the given failure statuses. The description is fetched if it has not been
// cached yet.
func (j *Job) CheckStatus(ctx context.Context, failing ...common.Status) error {
	desc, err := j.Description(ctx)
	if err != nil {
		return err
	}
	for _, status := range failing {
		if desc.Status == status {
			return &StatusError{JobID: j.ID, Status: desc.Status, Message: desc.Error}
		}
	}
	return nil
}

func (j *Job) tilesURL(tileID int64) string {
	url := j.client.processURL(j.ID) + "/tiles"
	if tileID != 0 {
		return url + "/" + strconv.FormatInt(tileID, 10)
	}
	return url
}

// IterTiles iterates over the tiles of the request. A non-empty status
// keeps only the tiles with that status.
func (j *Job) IterTiles(status string) *FeatureIterator {
	params := neturl.Values{}
	if status != "" {
		params.Set("status", status)
	}
	return newFeatureIterator(j.client.t, j.tilesURL(0), params,
		"no tiles found, please run analysis on batch request before calling this method")
}

// GetTile returns a single tile of the request
func (j *Job) GetTile(ctx context.Context, tileID int64) (*common.TileInfo, error) {
	var tile common.TileInfo
	if err := j.client.t.FetchJSON(ctx, http.MethodGet, j.tilesURL(tileID), nil, nil, &tile); err != nil {
		return nil, err
	}
	return &tile, nil
}

// ReprocessTile reprocesses a single failed tile
func (j *Job) ReprocessTile(ctx context.Context, tileID int64) error {
	_, err := j.callAction(ctx, fmt.Sprintf("tiles/%d/restart", tileID))
	return err
}
