package batch

import "github.com/airbusgeo/sentinelhub-batch-go/common"

// PayloadOption sets one field of a payload under construction. Options
// that were not passed leave their key absent from the payload entirely.
type PayloadOption func(common.Map)

// TilingGrid builds the tilingGrid section of a batch request payload. It
// performs no I/O.
func TilingGrid(gridID int, resolution float64, opts ...PayloadOption) common.Map {
	payload := common.Map{
		"id":         gridID,
		"resolution": resolution,
	}
	for _, opt := range opts {
		opt(payload)
	}
	return common.RemoveUndefined(payload)
}

// Buffer adds a per-tile buffer in pixels in the horizontal and vertical
// directions
func Buffer(x, y int) PayloadOption {
	return func(m common.Map) {
		m["bufferX"] = x
		m["bufferY"] = y
	}
}

// Output builds the output section of a batch request payload. It performs
// no I/O.
func Output(opts ...PayloadOption) common.Map {
	payload := common.Map{}
	for _, opt := range opts {
		opt(payload)
	}
	return common.RemoveUndefined(payload)
}

// DefaultTilePath sets the path or template on the bucket where results are
// stored
func DefaultTilePath(path string) PayloadOption {
	return func(m common.Map) { m["defaultTilePath"] = path }
}

// Overwrite specifies whether the request can overwrite existing outputs
// without failing
func Overwrite(overwrite bool) PayloadOption {
	return func(m common.Map) { m["overwrite"] = overwrite }
}

// SkipExisting specifies whether existing outputs should be skipped
func SkipExisting(skip bool) PayloadOption {
	return func(m common.Map) { m["skipExisting"] = skip }
}

// CogOutput specifies whether outputs are written as cloud-optimized
// GeoTIFFs
func CogOutput(cog bool) PayloadOption {
	return func(m common.Map) { m["cogOutput"] = cog }
}

// CogParameters sets the COG creation parameters
func CogParameters(params common.Map) PayloadOption {
	return func(m common.Map) { m["cogParameters"] = params }
}

// AsCollection specifies whether the results should be written as COGs
// into a new batch collection
func AsCollection(create bool) PayloadOption {
	return func(m common.Map) { m["createCollection"] = create }
}

// CollectionID adds the results to an existing collection
func CollectionID(id string) PayloadOption {
	return func(m common.Map) { m["collectionId"] = id }
}

// Responses sets the path templates of individual outputs
func Responses(responses []common.Map) PayloadOption {
	return func(m common.Map) { m["responses"] = responses }
}

// WithOutput sets the output section of a request payload, built with
// Output
func WithOutput(output common.Map) PayloadOption {
	return func(m common.Map) { m["output"] = output }
}

// WithBucketName sets the name of the s3 bucket where results are saved.
// Alternatively WithOutput can specify more output parameters.
func WithBucketName(name string) PayloadOption {
	return func(m common.Map) { m["bucketName"] = name }
}

// WithDescription sets the description of a batch request
func WithDescription(description string) PayloadOption {
	return func(m common.Map) { m["description"] = description }
}

// WithParam sets any other field of a request payload
func WithParam(key string, value interface{}) PayloadOption {
	return func(m common.Map) { m[key] = value }
}
