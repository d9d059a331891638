package profiler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-xr/common"
)

func TestTickReportsAtInterval(t *testing.T) {
	var out bytes.Buffer
	clock := common.NewManualClock(time.Unix(0, 0))
	p := NewProfiler(
		WithClock(clock),
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewJSONHandler(&out, nil))),
	)

	for i := 0; i < 89; i++ {
		clock.Advance(10 * time.Millisecond)
		assert.False(t, p.Tick(FrameStats{Submitted: uint64(i + 1)}))
	}
	assert.Zero(t, out.Len())

	clock.Advance(110 * time.Millisecond)
	require.True(t, p.Tick(FrameStats{Submitted: 90, Skipped: 4, InFlight: 2}))

	var record map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "frame stats", record["msg"])
	assert.InDelta(t, 90, record["fps"], 1e-9)
	assert.EqualValues(t, 4, record["skipped"])
	assert.EqualValues(t, 2, record["in_flight"])
}

func TestSkippedIsReportedSinceLastReport(t *testing.T) {
	var out bytes.Buffer
	clock := common.NewManualClock(time.Unix(0, 0))
	p := NewProfiler(WithClock(clock), WithLogger(slog.New(slog.NewJSONHandler(&out, nil))))

	clock.Advance(time.Second)
	require.True(t, p.Tick(FrameStats{Skipped: 10}))
	out.Reset()

	clock.Advance(time.Second)
	require.True(t, p.Tick(FrameStats{Skipped: 13}))

	var record map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.EqualValues(t, 3, record["skipped"])
	assert.InDelta(t, 1, record["fps"], 1e-9)
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithInterval(-time.Second))
	assert.Equal(t, time.Second, p.updateInterval)
}
