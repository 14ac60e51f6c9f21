package dataset

import (
	"fmt"

	"github.com/airbusgeo/sentinelhub-batch-go/common"
)

// DataCollection describes a data source that can be referenced as the
// input of a processing request.
type DataCollection struct {
	Type         string
	Name         string
	CollectionID string
	Bands        []string
}

// DefineByoc defines a "bring your own collection" data source backed by a
// batch collection.
func DefineByoc(collectionID string, bands ...string) DataCollection {
	return DataCollection{
		Type:         "byoc",
		Name:         "BYOC_" + collectionID,
		CollectionID: collectionID,
		Bands:        bands,
	}
}

// FromBatchCollection converts a batch collection into a data source
// descriptor, carrying over its band names when the collection has per-band
// metadata.
func FromBatchCollection(c *common.Collection) (DataCollection, error) {
	if c.ID == "" {
		return DataCollection{}, fmt.Errorf("FromBatchCollection: collection has no id")
	}
	return DefineByoc(c.ID, c.BandNames()...), nil
}
