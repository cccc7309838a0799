package enginelog_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/enginelog"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := enginelog.New("test")
	l.SetFormatter(enginelog.TextFormatter{})
	l.AddOutput(&buf)
	l.SetLevel(enginelog.LevelWarn)

	l.Info("should not appear")
	require.Empty(t, buf.String())

	l.Warn("should appear")
	require.Contains(t, buf.String(), "should appear")
}

func TestJSONFormatterProducesValidJSON(t *testing.T) {
	var buf bytes.Buffer
	l := enginelog.New("dispatcher")
	l.SetFormatter(enginelog.JSONFormatter{})
	l.AddOutput(&buf)

	l.Info("resolved target")

	var entry enginelog.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "dispatcher", entry.Component)
	require.Equal(t, "resolved target", entry.Message)
	require.Equal(t, enginelog.LevelInfo, entry.Level)
}

func TestWithTxHashCarriesFieldIntoEntry(t *testing.T) {
	var buf bytes.Buffer
	base := enginelog.New("engine")
	base.SetFormatter(enginelog.TextFormatter{})
	base.AddOutput(&buf)

	scoped := base.WithTxHash("deadbeef")
	scoped.Info("submitted")
	require.Contains(t, buf.String(), "tx=deadbeef")

	buf.Reset()
	base.Info("unscoped")
	require.NotContains(t, buf.String(), "tx=deadbeef", "WithTxHash must not mutate the parent logger's own fields")
}

func TestErrorWithErrAttachesErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := enginelog.New("engine")
	l.SetFormatter(enginelog.JSONFormatter{})
	l.AddOutput(&buf)

	l.ErrorWithErr("transaction failed", errors.New("worktop not empty"))

	var entry enginelog.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "worktop not empty", entry.Error)
}

func TestGetReturnsSharedLoggerPerComponent(t *testing.T) {
	a := enginelog.Get("shared-component")
	b := enginelog.Get("shared-component")
	require.Same(t, a, b)
}
