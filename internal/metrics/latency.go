// Package metrics keeps latency histograms for HTTP routes and collaborator
// calls.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyMicros = 1
	// one minute covers the 30s AI timeout with room to spare
	maxLatencyMicros = int64(time.Minute / time.Microsecond)
	sigFigs          = 3
)

type Summary struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Mean  float64 `json:"mean_ms"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
	Max   float64 `json:"max_ms"`
}

// Recorder is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	hists map[string]*hdrhistogram.Histogram
}

func NewRecorder() *Recorder {
	return &Recorder{hists: map[string]*hdrhistogram.Histogram{}}
}

// Record adds one observation under name. Values outside the histogram range
// are clamped. A nil Recorder discards everything.
func (r *Recorder) Record(name string, d time.Duration) {
	if r == nil {
		return
	}
	v := d.Microseconds()
	if v < minLatencyMicros {
		v = minLatencyMicros
	}
	if v > maxLatencyMicros {
		v = maxLatencyMicros
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hists[name]
	if !ok {
		h = hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs)
		r.hists[name] = h
	}
	// in range after clamping, so RecordValue cannot fail
	_ = h.RecordValue(v)
}

// Since records the time elapsed from start.
func (r *Recorder) Since(name string, start time.Time) {
	r.Record(name, time.Since(start))
}

// Snapshot returns one summary per name, sorted by name.
func (r *Recorder) Snapshot() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Summary, 0, len(r.hists))
	for name, h := range r.hists {
		out = append(out, Summary{
			Name:  name,
			Count: h.TotalCount(),
			Mean:  microsToMillis(h.Mean()),
			P50:   microsToMillis(float64(h.ValueAtQuantile(50))),
			P95:   microsToMillis(float64(h.ValueAtQuantile(95))),
			P99:   microsToMillis(float64(h.ValueAtQuantile(99))),
			Max:   microsToMillis(float64(h.Max())),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func microsToMillis(v float64) float64 {
	return v / 1000
}
