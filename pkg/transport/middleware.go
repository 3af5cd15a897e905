package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Middleware wraps an http.Handler to add cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// Rank fixes the position of a stage in the pipeline. Lower ranks wrap
// higher ranks, so they run first on the way in and last on the way out.
type Rank int

const (
	RankRecovery Rank = (iota + 1) * 10
	RankRequestID
	RankAccessLog
	RankMetrics
	RankSecurityLog
	RankCORS
	RankBodyParser
)

// String returns the stage name for the rank.
func (r Rank) String() string {
	switch r {
	case RankRecovery:
		return "recovery"
	case RankRequestID:
		return "request-id"
	case RankAccessLog:
		return "access-log"
	case RankMetrics:
		return "metrics"
	case RankSecurityLog:
		return "security-log"
	case RankCORS:
		return "cors"
	case RankBodyParser:
		return "body-parser"
	}
	return fmt.Sprintf("rank(%d)", int(r))
}

// Stage is one declared step of the pipeline.
type Stage struct {
	Rank Rank
	Wrap Middleware
}

// Pipeline is a validated, ordered list of stages.
type Pipeline struct {
	stages []Stage
}

// ErrStageOrder is returned by NewPipeline for duplicate or out-of-order ranks.
var ErrStageOrder = errors.New("pipeline stages out of order")

// NewPipeline validates that stages are given in strictly increasing rank
// order. Stages may be omitted (metrics is optional) but never reordered.
func NewPipeline(stages ...Stage) (*Pipeline, error) {
	for i, s := range stages {
		if s.Wrap == nil {
			return nil, fmt.Errorf("stage %s has no middleware", s.Rank)
		}
		if i > 0 && s.Rank <= stages[i-1].Rank {
			return nil, fmt.Errorf("%w: %s declared after %s", ErrStageOrder, s.Rank, stages[i-1].Rank)
		}
	}
	return &Pipeline{stages: append([]Stage(nil), stages...)}, nil
}

// Then wraps h with every stage. The first stage is the outermost wrapper.
func (p *Pipeline) Then(h http.Handler) http.Handler {
	for i := len(p.stages) - 1; i >= 0; i-- {
		h = p.stages[i].Wrap(h)
	}
	return h
}

// String lists the stage names in execution order.
func (p *Pipeline) String() string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Rank.String()
	}
	return strings.Join(names, " > ")
}

// responseRecorder wraps http.ResponseWriter to capture the status code and
// the number of body bytes written.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *responseRecorder) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and counts the bytes written.
func (w *responseRecorder) Write(b []byte) (int, error) {
	w.written = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// finalStatus is the status a client sees once an outer Recovery stage has
// handled a panic: whatever was already written, otherwise 500.
func (w *responseRecorder) finalStatus(panicked bool) int {
	if panicked && !w.written {
		return http.StatusInternalServerError
	}
	return w.status
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
