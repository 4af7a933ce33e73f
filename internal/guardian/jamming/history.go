package jamming

import (
	"sync"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

// Interference estimates returned when the history cannot support a real one.
const (
	interferenceInsufficient = 0.1
	interferenceNoSignal     = 0.5
)

// History is a bounded FIFO of signal samples, newest last.
type History struct {
	mu       sync.RWMutex
	capacity int
	samples  []model.SignalSample
}

// NewHistory creates a history holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity, samples: make([]model.SignalSample, 0, capacity)}
}

// Add appends s, evicting the oldest sample once over capacity.
func (h *History) Add(s model.SignalSample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.samples) == h.capacity {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:h.capacity-1]
	}
	h.samples = append(h.samples, s)
}

// Len returns the number of retained samples.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

// Recent returns a copy of the last n samples, oldest first.
func (h *History) Recent(n int) []model.SignalSample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n > len(h.samples) {
		n = len(h.samples)
	}
	if n <= 0 {
		return []model.SignalSample{}
	}
	return append([]model.SignalSample(nil), h.samples[len(h.samples)-n:]...)
}

// Last returns the newest sample.
func (h *History) Last() (model.SignalSample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.samples) == 0 {
		return model.SignalSample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// DropPercent compares the mean wifi strength of the last window samples
// with the window before it. Zero readings are ignored. ok is false until
// 2*window samples exist or when either window has no usable reading.
func (h *History) DropPercent(window int) (drop float64, ok bool) {
	samples := h.Recent(2 * window)
	if window < 1 || len(samples) < 2*window {
		return 0, false
	}
	older, okOlder := meanWiFi(samples[:window])
	recent, okRecent := meanWiFi(samples[window:])
	if !okOlder || !okRecent || older <= 0 {
		return 0, false
	}
	return (older - recent) / older * 100, true
}

// Interference estimates RF interference in [0, 1] from the population
// variance of the last window nonzero wifi readings.
func (h *History) Interference(window int) float64 {
	if h.Len() < window {
		return interferenceInsufficient
	}
	var values []float64
	for _, s := range h.Recent(window) {
		if s.WiFi != 0 {
			values = append(values, s.WiFi)
		}
	}
	if len(values) == 0 {
		return interferenceNoSignal
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	if level := variance / 100; level < 1 {
		return level
	}
	return 1
}

func meanWiFi(samples []model.SignalSample) (float64, bool) {
	var sum float64
	var n int
	for _, s := range samples {
		if s.WiFi != 0 {
			sum += s.WiFi
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
