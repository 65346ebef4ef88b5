package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"followsync/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "chatty"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.WithField("run_id", "abc").
		WithFields(map[string]interface{}{"account": "octocat", "page": 2}).
		InfoWithFields("listing page fetched", map[string]interface{}{
			"count":   37,
			"partial": false,
			"delay":   2 * time.Second,
		})

	out := buf.String()
	assert.Contains(t, out, `"message":"listing page fetched"`)
	assert.Contains(t, out, `"run_id":"abc"`)
	assert.Contains(t, out, `"account":"octocat"`)
	assert.Contains(t, out, `"page":2`)
	assert.Contains(t, out, `"count":37`)
	assert.Contains(t, out, `"partial":false`)
	assert.Contains(t, out, `"app":"followsync"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown warn")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("boom")).Error("mutation failed")
	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestChildLoggersDoNotShareFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, zerolog.DebugLevel)

	_ = base.WithField("target", "alice")
	base.Info("plain")

	assert.NotContains(t, buf.String(), "alice")
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogMutation(tl, "follow", "alice", 1, true, nil)
	LogMutation(tl, "unfollow", "bob", 3, false, errors.New("server_error"))
	LogRateLimit(tl, "carol", time.Minute)
	LogPageFetched(tl, "octocat", "followers", 1, 100)
	LogMetrics(tl, "run", map[string]interface{}{"followed": 1})

	ok, found := tl.FindMessage("mutation succeeded")
	require.True(t, found)
	assert.Equal(t, "alice", ok.Fields["target"])

	failed, found := tl.FindMessage("mutation failed")
	require.True(t, found)
	assert.Equal(t, "ERROR", failed.Level)
	assert.EqualError(t, failed.Error, "server_error")
	assert.Equal(t, 3, failed.Fields["attempts"])

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "carol", warns[0].Fields["target"])

	assert.True(t, tl.HasMessage("listing page fetched"))
	assert.True(t, tl.HasMessageContaining("metrics"))
}

func TestTestLoggerScoping(t *testing.T) {
	tl := NewTestLogger()
	scoped := tl.WithField("run_id", "r1").WithError(errors.New("x"))
	scoped.WarnWithFields("partial fetch", map[string]interface{}{"page": 3})
	tl.Info("unscoped")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]interface{}{"run_id": "r1", "page": 3}, msgs[0].Fields)
	assert.Error(t, msgs[0].Error)
	assert.Nil(t, msgs[1].Fields)
	assert.Contains(t, tl.String(), "[WARN] partial fetch")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "disabled"}))
	t.Cleanup(func() { SetLogger(nil) })

	assert.NotNil(t, GetLogger())
	assert.NotNil(t, OrDefault(nil))

	tl := NewTestLogger()
	assert.Same(t, tl, OrDefault(tl))

	SetLogger(tl)
	WithField("k", "v").Info("via global")
	assert.True(t, tl.HasMessage("via global"))
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("a", 1).WithError(errors.New("x")).Error("ignored")
	assert.NotNil(t, l.GetZerolog())
}
