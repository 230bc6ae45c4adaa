package ttylog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeConversions(t *testing.T) {
	cases := map[string]struct {
		microseconds int64
		seconds      float64
	}{
		"precision": {
			microseconds: 1,
			seconds:      1e-6,
		},
		"negative": {
			microseconds: -631119539e6,
			seconds:      -631119539,
		},
		"positive": {
			microseconds: 631119539e6,
			seconds:      631119539,
		},
		"bigprecise": {
			microseconds: 123456789987654,
			seconds:      123456789.987654,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s2m := secondsToMicroseconds(tc.seconds)
			m2s := microsecondsToSeconds(tc.microseconds)

			// Only allow delta to be to the NS
			assert.InDelta(t, m2s, tc.seconds, float64(time.Nanosecond)/float64(time.Second))
			assert.Equal(t, s2m, tc.microseconds)
		})
	}
}

func TestAsciicast_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sink := NewAsciicastLogSink(&buf)

	start := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC).UnixMicro()
	entries := []*Entry{
		{TimestampMicros: start, Fd: FDStdout, Data: []byte("iocsh> ")},
		{TimestampMicros: start + 1500000, Fd: FDStdin, Data: []byte("dbl\r")},
		{TimestampMicros: start + 2000000, Fd: FDStderr, Data: []byte("Command dbl not found.\r\n")},
		{TimestampMicros: start + 3000000, Closed: true},
	}
	for _, e := range entries {
		require.NoError(t, sink(e))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4, "header plus three I/O events")
	assert.Contains(t, lines[0], `"version":2`)
	assert.Equal(t, `[1.5,"i","dbl\r"]`, lines[2])

	var got []*Entry
	err := Replay(NewAsciicastLogSource(&buf), func(e *Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []*Entry{
		{TimestampMicros: 0, Fd: FDStdout, Data: []byte("iocsh> ")},
		{TimestampMicros: 1500000, Fd: FDStdin, Data: []byte("dbl\r")},
		{TimestampMicros: 2000000, Fd: FDStdout, Data: []byte("Command dbl not found.\r\n")},
	}, got)
}
