package batch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/airbusgeo/sentinelhub-batch-go/common"
	"github.com/airbusgeo/sentinelhub-batch-go/interface/dataset"
)

// collectionData is the envelope of the collection endpoints
type collectionData struct {
	Data common.Collection `json:"data"`
}

// IterCollections iterates over the batch collections of the user
func (c *Client) IterCollections(opts ...QueryOption) *FeatureIterator {
	return newFeatureIterator(c.t, c.collectionsURL(""), queryValues(opts),
		"failed to obtain information about available batch collections")
}

// GetCollection returns a batch collection by its id
func (c *Client) GetCollection(ctx context.Context, collectionID string) (*common.Collection, error) {
	var envelope collectionData
	if err := c.t.FetchJSON(ctx, http.MethodGet, c.collectionsURL(collectionID), nil, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// CreateCollection creates a new batch collection from a common.Collection
// or a common.Map definition and returns the created collection.
func (c *Client) CreateCollection(ctx context.Context, collection interface{}) (*common.Collection, error) {
	payload, err := collectionPayload(collection)
	if err != nil {
		return nil, err
	}
	var envelope collectionData
	if err := c.t.FetchJSON(ctx, http.MethodPost, c.collectionsURL(""), nil, payload, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// UpdateCollection updates an existing batch collection. collection is a
// *common.Collection, a common.Map or a bare collection id.
func (c *Client) UpdateCollection(ctx context.Context, collection interface{}) (common.Map, error) {
	collectionID, err := ResolveCollectionID(collection)
	if err != nil {
		return nil, err
	}
	payload, err := collectionPayload(collection)
	if err != nil {
		return nil, err
	}
	var response common.Map
	if err := c.t.FetchJSON(ctx, http.MethodPut, c.collectionsURL(collectionID), nil, payload, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// DeleteCollection deletes an existing batch collection. collection is a
// *common.Collection, a common.Map or a bare collection id.
func (c *Client) DeleteCollection(ctx context.Context, collection interface{}) (common.Map, error) {
	collectionID, err := ResolveCollectionID(collection)
	if err != nil {
		return nil, err
	}
	var response common.Map
	if err := c.t.FetchJSON(ctx, http.MethodDelete, c.collectionsURL(collectionID), nil, nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// ResolveCollectionID normalizes the accepted collection forms (a
// Collection or DataCollection object, a mapping, or a bare id string) to
// the collection id.
func ResolveCollectionID(collection interface{}) (string, error) {
	switch v := collection.(type) {
	case string:
		return v, nil
	case *common.Collection:
		return v.ID, nil
	case common.Collection:
		return v.ID, nil
	case dataset.DataCollection:
		return v.CollectionID, nil
	case common.Map:
		return collectionIDFromMap(v)
	case map[string]interface{}:
		return collectionIDFromMap(v)
	}
	return "", fmt.Errorf("%w: expected a Collection, a map or a string, got %T", ErrInvalidArgument, collection)
}

func collectionIDFromMap(m map[string]interface{}) (string, error) {
	id, ok := m["id"].(string)
	if !ok {
		return "", fmt.Errorf("%w: collection map has no id", ErrInvalidArgument)
	}
	return id, nil
}

func collectionPayload(collection interface{}) (interface{}, error) {
	switch v := collection.(type) {
	case *common.Collection, common.Collection, common.Map, map[string]interface{}:
		return v, nil
	case string:
		return common.Map{"id": v}, nil
	case dataset.DataCollection:
		return common.Map{"id": v.CollectionID}, nil
	}
	return nil, fmt.Errorf("%w: expected a Collection, a map or a string, got %T", ErrInvalidArgument, collection)
}
