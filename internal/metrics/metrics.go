// Package metrics collects per-invocation counters and publishes them in
// CloudWatch embedded metric format.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names emitted by the handlers.
const (
	ColdStart           = "ColdStart"
	SuccessfulGreetings = "SuccessfulGreetings"
)

const unitCount = "Count"

// Recorder accumulates counters for one invocation. A nil *Recorder
// discards everything.
type Recorder struct {
	namespace string
	service   string
	registry  *prometheus.Registry
	now       func() time.Time

	mu       sync.Mutex
	counters map[string]prometheus.Counter
}

func NewRecorder(namespace, service string) *Recorder {
	return &Recorder{
		namespace: namespace,
		service:   service,
		registry:  prometheus.NewRegistry(),
		now:       time.Now,
		counters:  map[string]prometheus.Counter{},
	}
}

// Add increments the named counter by v.
func (r *Recorder) Add(name string, v float64) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: name})
		if err := r.registry.Register(c); err != nil {
			return fmt.Errorf("metrics: register %q: %w", name, err)
		}
		r.counters[name] = c
	}
	c.Add(v)
	return nil
}

type emfMetric struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type emfDirective struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []emfMetric `json:"Metrics"`
}

type emfMetadata struct {
	Timestamp         int64          `json:"Timestamp"`
	CloudWatchMetrics []emfDirective `json:"CloudWatchMetrics"`
}

// Flush writes the recorded counters as one EMF document to w. Nothing is
// written when no counter was recorded.
func (r *Recorder) Flush(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	if len(families) == 0 {
		return nil
	}

	doc := map[string]any{"service": r.service}
	directive := emfDirective{
		Namespace:  r.namespace,
		Dimensions: [][]string{{"service"}},
	}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		directive.Metrics = append(directive.Metrics, emfMetric{Name: mf.GetName(), Unit: unitCount})
		doc[mf.GetName()] = total
	}
	doc["_aws"] = emfMetadata{
		Timestamp:         r.now().UnixMilli(),
		CloudWatchMetrics: []emfDirective{directive},
	}

	line, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("metrics: marshal: %w", err)
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("metrics: write: %w", err)
	}
	return nil
}

type ctxKey struct{}

// WithRecorder returns a copy of ctx carrying r.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the recorder in ctx, or nil.
func FromContext(ctx context.Context) *Recorder {
	r, _ := ctx.Value(ctxKey{}).(*Recorder)
	return r
}
