package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/maptile"

	"github.com/mohammed-shakir/mvt-bench/internal/cache/tilecache"
	"github.com/mohammed-shakir/mvt-bench/internal/core/observability"
	"github.com/mohammed-shakir/mvt-bench/internal/fixtures"
	"github.com/mohammed-shakir/mvt-bench/internal/logger"
	"github.com/mohammed-shakir/mvt-bench/internal/render"
	"github.com/mohammed-shakir/mvt-bench/pkg/mvt"
)

// TileSource returns parsed tiles, usually from the tile cache.
type TileSource interface {
	Get(ctx context.Context, t maptile.Tile) (*tilecache.Entry, error)
}

type CellMapper interface {
	CellsForTile(t maptile.Tile, res int) ([]string, error)
}

type Handlers struct {
	Log   *slog.Logger
	Tiles TileSource
	// Cells is optional; without it summaries carry no H3 footprint.
	Cells CellMapper
	H3Res int
}

const (
	routeTile  = "/tiles/{z}/{x}/{y}"
	routeLayer = "/tiles/{z}/{x}/{y}/{layer}.geojson"
)

// Mount registers the tile routes on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Get(routeTile, h.instrument(routeTile, h.Tile))
	r.Get(routeLayer, h.instrument(routeLayer, h.LayerGeoJSON))
}

// Tile serves a JSON summary of one tile.
func (h *Handlers) Tile(w http.ResponseWriter, r *http.Request) {
	t, err := ParseTile(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := logger.WithTile(r.Context(), t)
	e, err := h.Tiles.Get(ctx, t)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	s := render.Summarize(t, e.Tile, len(e.Data), e.Hash)
	if h.Cells != nil {
		cells, err := h.Cells.CellsForTile(t, h.H3Res)
		if err != nil {
			h.Log.WarnContext(ctx, "h3 footprint failed", "err", err)
		} else {
			s.H3Res, s.H3Cells = h.H3Res, cells
		}
	}
	writeJSON(w, "application/json", s)
}

// LayerGeoJSON renders one layer as GeoJSON. The optional tolerance query
// parameter controls point decimation; simplify runs Douglas-Peucker.
func (h *Handlers) LayerGeoJSON(w http.ResponseWriter, r *http.Request) {
	t, err := ParseTile(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := parseRenderOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := logger.WithTile(r.Context(), t)
	e, err := h.Tiles.Get(ctx, t)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	l, err := e.Tile.Layer(chi.URLParam(r, "layer"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	fc, err := render.GeoJSON(l, t, opts)
	if err != nil {
		observability.IncDecodeError(err)
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, "application/geo+json", fc)
}

// ParseTile reads and range-checks the z/x/y path parameters.
func ParseTile(r *http.Request) (maptile.Tile, error) {
	z, err := parseUint(chi.URLParam(r, "z"), "z")
	if err != nil {
		return maptile.Tile{}, err
	}
	if z > 30 {
		return maptile.Tile{}, fmt.Errorf("z must be in [0,30] (got %d)", z)
	}
	x, err := parseUint(chi.URLParam(r, "x"), "x")
	if err != nil {
		return maptile.Tile{}, err
	}
	y, err := parseUint(chi.URLParam(r, "y"), "y")
	if err != nil {
		return maptile.Tile{}, err
	}
	n := uint32(1) << z
	if x >= n || y >= n {
		return maptile.Tile{}, fmt.Errorf("tile %d/%d/%d outside grid", z, x, y)
	}
	return maptile.New(x, y, maptile.Zoom(z)), nil
}

func parseUint(v, name string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return uint32(n), nil
}

func parseRenderOptions(r *http.Request) (render.Options, error) {
	opts := render.Options{Tolerance: mvt.NoSimplification}
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("tolerance")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid tolerance: %w", err)
		}
		opts.Tolerance = f
	}
	if v := strings.TrimSpace(q.Get("simplify")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return opts, fmt.Errorf("invalid simplify: %q", v)
		}
		opts.Simplify = f
	}
	return opts, nil
}

// StatusFor maps lookup and decode errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, fixtures.ErrNotFound), errors.Is(err, mvt.ErrLayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case mvt.ErrorKind(err) != "other":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (h *Handlers) fail(ctx context.Context, w http.ResponseWriter, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		h.Log.ErrorContext(ctx, "tile request failed", "err", err, "status", code)
	} else {
		h.Log.DebugContext(ctx, "tile request rejected", "err", err, "status", code)
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func (h *Handlers) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
