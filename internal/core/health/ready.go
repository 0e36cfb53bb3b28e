package health

import (
	"encoding/json"
	"net/http"
	"slices"
)

// ReadinessReporter is implemented by the tile invalidation consumer.
type ReadinessReporter interface {
	Readiness() (ready bool, partitions []int32)
}

type readiness struct {
	Status       string  `json:"status"`
	Invalidation string  `json:"invalidation"`
	Partitions   []int32 `json:"partitions,omitempty"`
}

// Readiness answers 503 until the invalidation consumer owns partitions, so
// an inspect server never serves cached decodes it cannot evict.
func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready, parts := rr.Readiness()
		out := readiness{Status: "not_ready", Invalidation: "unassigned"}
		code := http.StatusServiceUnavailable
		if ready {
			out = readiness{Status: "ready", Invalidation: "consuming", Partitions: slices.Sorted(slices.Values(parts))}
			code = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
