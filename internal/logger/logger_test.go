package logger

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withCapturedOutput(t *testing.T, format, severity string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	mu.Lock()
	defaultLogger = slog.New(newHandler(&buf, programLevel, format))
	mu.Unlock()
	setLevel(severity)
	return &buf
}

func TestSeverityFiltering(t *testing.T) {
	buf := withCapturedOutput(t, "text", Warning)

	Infof("hidden %s", "message")
	assert.Empty(t, buf.String())

	Warnf("visible %s", "message")
	assert.Regexp(t, regexp.MustCompile(`severity=WARNING`), buf.String())
}

func TestOffSilencesEverything(t *testing.T) {
	buf := withCapturedOutput(t, "text", Off)

	Errorf("should not appear")
	assert.Empty(t, buf.String())
}

func TestJSONFormatUsesSeverityKey(t *testing.T) {
	buf := withCapturedOutput(t, "json", Trace)

	Tracef("hello")
	assert.Regexp(t, regexp.MustCompile(`"severity":"TRACE"`), buf.String())
}
