package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	requestsSubmittedTotal atomic.Uint64
	progressUpdatesTotal   atomic.Uint64
	notificationsTotal     atomic.Uint64
	reorderRejectedTotal  atomic.Uint64

	verificationsTotal = newCounterVec()
	llmRequestsTotal   = newCounterVec()

	llmDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncRequestSubmitted counts new requests.
func IncRequestSubmitted() {
	requestsSubmittedTotal.Add(1)
}

// IncVerification counts a verification decision by its value.
func IncVerification(decision string) {
	verificationsTotal.Inc(decision)
}

// IncProgressUpdate counts manual progress edits.
func IncProgressUpdate() {
	progressUpdatesTotal.Add(1)
}

// AddNotifications counts persisted notifications.
func AddNotifications(n int) {
	if n > 0 {
		notificationsTotal.Add(uint64(n))
	}
}

// IncLLMRequest counts an LLM call by outcome ("ok", "fallback", "failed").
func IncLLMRequest(outcome string) {
	llmRequestsTotal.Inc(outcome)
}

// IncReorderRejected counts reorders rejected because the id set did not match the request.
func IncReorderRejected() {
	reorderRejectedTotal.Add(1)
}

// ObserveLLMDurationMs records an LLM round trip in milliseconds.
func ObserveLLMDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "requests_submitted_total", "Total requests submitted", requestsSubmittedTotal.Load())
	writeCounterVec(&buf, "verifications_total", "Verification decisions by outcome", "decision", verificationsTotal.Snapshot())
	writeCounter(&buf, "progress_updates_total", "Manual progress updates", progressUpdatesTotal.Load())
	writeCounter(&buf, "notifications_created_total", "Notifications persisted", notificationsTotal.Load())
	writeCounter(&buf, "activity_reorder_rejected_total", "Activity reorders rejected for a mismatched id set", reorderRejectedTotal.Load())
	writeCounterVec(&buf, "llm_requests_total", "LLM calls by outcome", "outcome", llmRequestsTotal.Snapshot())
	writeHistogram(&buf, "llm_duration_ms", "LLM round trip in milliseconds", llmDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: make(map[string]uint64)}
}

func (v *counterVec) Inc(label string) {
	v.mu.Lock()
	v.values[label]++
	v.mu.Unlock()
}

func (v *counterVec) Snapshot() map[string]uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	for k, n := range v.values {
		out[k] = n
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
