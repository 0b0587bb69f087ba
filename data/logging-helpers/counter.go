package logginghelpers

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// CounterHook counts warnings and dropped records per source as they are
// logged, so a run can print a summary without every service keeping its
// own tally.
type CounterHook struct {
	mu       sync.Mutex
	warnings map[string]int
	skipped  map[string]int
}

func NewCounterHook() *CounterHook {
	return &CounterHook{
		warnings: map[string]int{},
		skipped:  map[string]int{},
	}
}

func (h *CounterHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel, log.WarnLevel}
}

func (h *CounterHook) Fire(entry *log.Entry) error {
	source, _ := entry.Data[FieldSource].(string)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.warnings[source]++
	if skipped, ok := entry.Data[FieldSkipped].(bool); ok && skipped {
		h.skipped[source]++
	}
	return nil
}

// Warnings is the count of warn level entries or worse for source.
func (h *CounterHook) Warnings(source string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.warnings[source]
}

func (h *CounterHook) Skipped(source string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.skipped[source]
}

func (h *CounterHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.warnings = map[string]int{}
	h.skipped = map[string]int{}
}
