package observability

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mohammed-shakir/mvt-bench/pkg/mvt"
)

func TestDecodeErrorKindLabels(t *testing.T) {
	before := testutil.ToFloat64(decodeErrorsTotal.WithLabelValues("malformed_geometry"))
	IncDecodeError(fmt.Errorf("layer %q: %w", "roads", mvt.ErrMalformedGeometry))
	IncDecodeError(nil)
	if got := testutil.ToFloat64(decodeErrorsTotal.WithLabelValues("malformed_geometry")); got != before+1 {
		t.Fatalf("malformed_geometry=%v want %v", got, before+1)
	}

	before = testutil.ToFloat64(decodeErrorsTotal.WithLabelValues("other"))
	IncDecodeError(errors.New("disk on fire"))
	if got := testutil.ToFloat64(decodeErrorsTotal.WithLabelValues("other")); got != before+1 {
		t.Fatalf("other=%v want %v", got, before+1)
	}
}

func TestInitCustomRegistryAndDisable(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)
	Init(reg, true) // second registration is tolerated
	t.Cleanup(func() { Init(nil, true) })

	ObserveTileDecode(12, 0.001)
	ObserveStoreOp("get", nil, 0.0002)
	ObserveStoreOp("get", errors.New("down"), 0.0002)
	IncTileCache("hit")

	n, err := testutil.GatherAndCount(reg, "mvt_tiles_decoded_total", "fixture_store_op_total", "tile_cache_results_total")
	if err != nil {
		t.Fatal(err)
	}
	if n < 4 {
		t.Fatalf("series=%d want >= 4", n)
	}

	Init(nil, false)
	before := testutil.ToFloat64(tilesDecodedTotal)
	ObserveTileDecode(5, 0.001)
	if got := testutil.ToFloat64(tilesDecodedTotal); got != before {
		t.Fatalf("disabled metrics still counted: %v -> %v", before, got)
	}
}
