package logginghelpers

import log "github.com/sirupsen/logrus"

// log fields shared by every job
const (
	FieldJob    = "job"
	FieldSource = "source"
	FieldRun    = "run"
	FieldTerm   = "term"
	// set on entries that drop a record so the counter can tell them apart
	FieldSkipped = "skipped"
)

const (
	// outgoing requests and their responses
	LevelReportIO = log.TraceLevel
)

// Skipped marks an entry as a dropped record.
func Skipped(logger *log.Entry) *log.Entry {
	return logger.WithField(FieldSkipped, true)
}
