package geometry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
)

// CRS identifies a coordinate reference system by its EPSG-style authority
// code, e.g. "4326".
type CRS string

const WGS84 CRS = "4326"

// ParseCRS extracts the CRS code from a URN-style identifier such as
// "http://www.opengis.net/def/crs/EPSG/0/4326", keeping the final path
// segment. A bare code is returned unchanged.
func ParseCRS(s string) CRS {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return CRS(s)
}

// EPSG returns the numeric EPSG code of the CRS
func (c CRS) EPSG() (int, error) {
	code, err := strconv.Atoi(string(c))
	if err != nil {
		return 0, fmt.Errorf("CRS.EPSG: not a numeric code: %s", c)
	}
	return code, nil
}

func (c CRS) String() string { return string(c) }

// BBox is an area bounding box together with its CRS
type BBox struct {
	Extent *geom.Extent
	CRS    CRS
}

// NewBBox builds a BBox from [minx, miny, maxx, maxy] coordinates
func NewBBox(coords []float64, crs CRS) (BBox, error) {
	if len(coords) != 4 {
		return BBox{}, fmt.Errorf("NewBBox: expecting 4 coordinates, got %d", len(coords))
	}
	extent := geom.Extent{coords[0], coords[1], coords[2], coords[3]}
	return BBox{Extent: &extent, CRS: crs}, nil
}

// Coords returns the bounding box as [minx, miny, maxx, maxy]
func (b BBox) Coords() []float64 {
	if b.Extent == nil {
		return nil
	}
	return b.Extent[:]
}

// Geometry is an area geometry together with its CRS
type Geometry struct {
	Geometry geom.Geometry
	CRS      CRS
}

// NewGeometry builds a Geometry from a raw GeoJSON geometry
func NewGeometry(raw json.RawMessage, crs CRS) (Geometry, error) {
	var g geojson.Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return Geometry{}, fmt.Errorf("NewGeometry.Unmarshal: %w", err)
	}
	return Geometry{Geometry: g.Geometry, CRS: crs}, nil
}
