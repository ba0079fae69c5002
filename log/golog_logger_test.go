package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func newCapturedGologLogger() (*GologLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	glogger := golog.New()
	glogger.SetOutput(&buf)
	glogger.SetLevel("debug")
	return NewGologLogger(glogger), &buf
}

func TestGologLogger(t *testing.T) {
	t.Run("Defaults To Info", func(t *testing.T) {
		logger := NewGologLogger(golog.New())
		assert.Equal(t, LogLevelInfo, logger.GetLevel())
	})

	t.Run("Level Round Trip", func(t *testing.T) {
		logger, _ := newCapturedGologLogger()

		for _, level := range []LogLevel{LogLevelDebug, LogLevelWarn, LogLevelError, LogLevelNone} {
			logger.SetLevel(level)
			assert.Equal(t, level, logger.GetLevel())
		}
	})

	t.Run("Messages Reach The Sink", func(t *testing.T) {
		logger, buf := newCapturedGologLogger()
		logger.SetLevel(LogLevelDebug)

		logger.Debug("ingest started")
		logger.Info("created %d chunks", 7)
		logger.Warn("skipping a url")
		logger.Error("graph write failed")

		out := buf.String()
		assert.Contains(t, out, "ingest started")
		assert.Contains(t, out, "created %d chunks")
		assert.Contains(t, out, "skipping a url")
		assert.Contains(t, out, "graph write failed")
	})

	t.Run("Levels Below Threshold Filtered", func(t *testing.T) {
		logger, buf := newCapturedGologLogger()
		logger.SetLevel(LogLevelError)

		logger.Debug("quiet")
		logger.Info("quiet")
		logger.Warn("quiet")
		logger.Error("loud")

		out := buf.String()
		assert.NotContains(t, out, "quiet")
		assert.Contains(t, out, "loud")
	})

	t.Run("Wrapper Level Independent Of Golog Config", func(t *testing.T) {
		glogger := golog.New()
		glogger.SetLevel("error")
		glogger.SetPrefix("[elsewhere] ")

		logger := NewGologLogger(glogger)
		logger.SetLevel(LogLevelDebug)
		assert.Equal(t, LogLevelDebug, logger.GetLevel())
	})
}
