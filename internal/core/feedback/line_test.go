package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeviceLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		kind     LineKind
		readings []Reading
	}{
		{
			name:     "event with trailing partial group",
			line:     "i0201022c05",
			kind:     LineEvent,
			readings: []Reading{{DeviceID: 1, Hex: "022c"}},
		},
		{
			name:     "single event",
			line:     "i01040506\r",
			kind:     LineEvent,
			readings: []Reading{{DeviceID: 4, Hex: "0506"}},
		},
		{
			name: "poll snapshot",
			line: "m05019db60201c8036416043df6050000",
			kind: LinePoll,
			readings: []Reading{
				{DeviceID: 1, Hex: "9db6"},
				{DeviceID: 2, Hex: "01c8"},
				{DeviceID: 3, Hex: "6416"},
				{DeviceID: 4, Hex: "3df6"},
				{DeviceID: 5, Hex: "0000"},
			},
		},
		{
			name:     "count larger than groups",
			line:     "m03010001",
			kind:     LinePoll,
			readings: []Reading{{DeviceID: 1, Hex: "0001"}},
		},
		{
			name: "zero modules",
			line: "i00",
			kind: LineEvent,
		},
		{
			name: "version banner",
			line: "Ver. 0.62 / 12.08.08 / HSI-88-USB",
			kind: LineVersion,
		},
		{
			name: "lower case version",
			line: "v0.62",
			kind: LineVersion,
		},
		{
			name: "terminal mode ack",
			line: "t1",
			kind: LineUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl, err := ParseDeviceLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, dl.Kind)
			assert.Equal(t, tt.readings, dl.Readings)
		})
	}
}

func TestParseDeviceLine_Errors(t *testing.T) {
	for _, line := range []string{"", "  ", "i", "i0", "mxx010001"} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseDeviceLine(line)
			assert.Error(t, err)
		})
	}
}

func TestLineKind_String(t *testing.T) {
	assert.Equal(t, "event", LineEvent.String())
	assert.Equal(t, "poll", LinePoll.String())
	assert.Equal(t, "version", LineVersion.String())
	assert.Equal(t, "unknown", LineUnknown.String())
}
