package batch

import (
	"reflect"
	"testing"

	"github.com/airbusgeo/sentinelhub-batch-go/common"
)

func TestTilingGridPayload(t *testing.T) {
	grid := TilingGrid(2, 120.0)
	expected := common.Map{"id": 2, "resolution": 120.0}
	if !reflect.DeepEqual(grid, expected) {
		t.Errorf("expecting %v, got %v", expected, grid)
	}

	grid = TilingGrid(2, 120.0, Buffer(64, 32))
	if grid["bufferX"] != 64 || grid["bufferY"] != 32 {
		t.Errorf("expecting bufferX=64 bufferY=32, got %v", grid)
	}
}

func TestOutputPayloadOmitsUnset(t *testing.T) {
	output := Output(DefaultTilePath("tiles/<tileId>/<outputId>.tif"), CogOutput(true))
	if _, ok := output["overwrite"]; ok {
		t.Error("expecting no overwrite key when the option is unset")
	}
	if _, ok := output["skipExisting"]; ok {
		t.Error("expecting no skipExisting key when the option is unset")
	}
	if output["defaultTilePath"] != "tiles/<tileId>/<outputId>.tif" {
		t.Errorf("unexpected defaultTilePath: %v", output["defaultTilePath"])
	}
	if output["cogOutput"] != true {
		t.Errorf("expecting cogOutput=true, got %v", output["cogOutput"])
	}
}

func TestOutputPayloadKeepsExplicitZeroValues(t *testing.T) {
	output := Output(Overwrite(false), SkipExisting(false), AsCollection(false), CollectionID(""))
	for _, key := range []string{"overwrite", "skipExisting", "createCollection", "collectionId"} {
		if _, ok := output[key]; !ok {
			t.Errorf("expecting an explicit %s key", key)
		}
	}
	if output["overwrite"] != false {
		t.Errorf("expecting overwrite=false, got %v", output["overwrite"])
	}
	if output["collectionId"] != "" {
		t.Errorf("expecting an empty collectionId, got %v", output["collectionId"])
	}
}

func TestCreatePayloadOmitsUnset(t *testing.T) {
	payload, err := createPayload(common.Map{"evalscript": "//"}, TilingGrid(0, 60.0))
	if err != nil {
		t.Fatalf("createPayload: %v", err)
	}
	for _, key := range []string{"output", "bucketName", "description"} {
		if _, ok := payload[key]; ok {
			t.Errorf("expecting no %s key when the option is unset", key)
		}
	}

	payload, err = createPayload(common.Map{"evalscript": "//"}, TilingGrid(0, 60.0),
		WithOutput(Output(CogOutput(false))),
		WithParam("custom", nil),
	)
	if err != nil {
		t.Fatalf("createPayload: %v", err)
	}
	output, ok := payload["output"].(common.Map)
	if !ok {
		t.Fatalf("expecting an output payload, got %v", payload["output"])
	}
	if output["cogOutput"] != false {
		t.Errorf("expecting cogOutput=false, got %v", output["cogOutput"])
	}
	if _, ok := payload["custom"]; ok {
		t.Error("expecting a nil parameter to be removed from the payload")
	}
}

func TestResponsesOption(t *testing.T) {
	responses := []common.Map{
		{"identifier": "default", "format": common.Map{"type": "image/tiff"}},
	}
	output := Output(Responses(responses))
	got, ok := output["responses"].([]common.Map)
	if !ok || len(got) != 1 {
		t.Fatalf("expecting one response, got %v", output["responses"])
	}
	if got[0]["identifier"] != "default" {
		t.Errorf("unexpected response: %v", got[0])
	}
}
