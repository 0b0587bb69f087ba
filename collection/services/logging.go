package services

import (
	"net/http"
	"sync/atomic"

	logginghelpers "github.com/sipb/hydrant/data/logging-helpers"
	log "github.com/sirupsen/logrus"
)

const (
	LevelHttpReport = logginghelpers.LevelReportIO
)

type loggerRoundTripper struct {
	logger    *log.Entry
	transport http.RoundTripper
	requestID int32
}

func (rt *loggerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if !rt.logger.Logger.IsLevelEnabled(LevelHttpReport) {
		return rt.transport.RoundTrip(req)
	}

	// pages of one source are fetched in parallel, the id ties the two lines together
	currentID := atomic.AddInt32(&rt.requestID, 1)

	rt.logger.WithFields(log.Fields{"method": req.Method, "url": req.URL.String(), "id": currentID}).
		Log(LevelHttpReport, "outgoing request")

	resp, err := rt.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	rt.logger.WithFields(log.Fields{"status": resp.Status, "url": req.URL.String(), "id": currentID}).
		Log(LevelHttpReport, "response received")

	return resp, nil
}

func AddHttpReporting(client *http.Client, logger *log.Entry) {
	rt := &loggerRoundTripper{
		logger:    logger,
		requestID: 0,
	}
	if client.Transport == nil {
		rt.transport = http.DefaultTransport
	} else {
		rt.transport = client.Transport
	}
	client.Transport = rt
}

// wrapper make the logrus logger a LeveledLogger
type LogrusLogger struct {
	Entry *log.Entry
}

func (l LogrusLogger) Error(msg string, keysAndValues ...any) {
	l.Entry.Errorln(msg, keysAndValues)
}

func (l LogrusLogger) Info(msg string, keysAndValues ...any) {
	l.Entry.Infoln(msg, keysAndValues)
}

func (l LogrusLogger) Debug(msg string, keysAndValues ...any) {
	l.Entry.Debugln(msg, keysAndValues)
}

func (l LogrusLogger) Warn(msg string, keysAndValues ...any) {
	l.Entry.Warnln(msg, keysAndValues)
}

func (l LogrusLogger) Get() *log.Entry {
	return l.Entry
}
