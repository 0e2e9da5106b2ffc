package onewire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelbus/internal/transport"
)

func TestResetBytesMatchesFormula(t *testing.T) {
	custom := Timing{Name: "custom", OneHighNs: 800, ZeroHighNs: 400, BitPeriodNs: 1250, ResetNs: 280000, Pattern: ThreeStep}
	tests := []struct {
		timing  Timing
		clockHz uint32
		expect  int
	}{
		{custom, 2400000, 84},
		{Ws2812x, 2400000, 90},
		{Ws2811, 1200000, 8},
		{Sk6812, 2400000, 24},
		{Apa106, 2339181, 15},
		{Tm1814, 2400000, 60},
	}
	for _, tt := range tests {
		t.Run(tt.timing.Name, func(t *testing.T) {
			require.Equal(t, tt.clockHz, tt.timing.NominalClockHz())
			assert.Equal(t, tt.expect, tt.timing.ResetBytes(tt.timing.NominalClockHz()))

			// ceil(resetNs * clockHz / 1e9 / 8), computed independently
			bits := float64(tt.timing.ResetNs) * float64(tt.clockHz) / 1e9
			want := int(bits / 8)
			if float64(want*8) < bits {
				want++
			}
			assert.Equal(t, want, tt.expect)
		})
	}
}

func TestResetBytesExactMultiple(t *testing.T) {
	// 100us at 800kHz is exactly 80 bits
	assert.Equal(t, 10, ResetBytes(100000, 800000))
	assert.Equal(t, 0, ResetBytes(0, 2400000))
	assert.Equal(t, 1, ResetBytes(1, 1))
}

func TestNominalClock(t *testing.T) {
	assert.Equal(t, uint32(2400000), Ws2812x.NominalClockHz())
	assert.Equal(t, uint32(3200000), Gs1903.NominalClockHz())
	assert.Equal(t, uint32(0), Timing{}.NominalClockHz())
}

func TestLookup(t *testing.T) {
	got, ok := Lookup("WS2812X")
	require.True(t, ok)
	assert.Equal(t, Ws2812x, got)
	_, ok = Lookup("nope")
	assert.False(t, ok)
	assert.Len(t, Presets(), 12)
}

func TestEncoderDerivesClockAndWrapsFrame(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	enc, err := NewEncoder(rec, Sk6812)
	require.NoError(t, err)
	require.NoError(t, enc.Begin())

	assert.Equal(t, uint32(2400000), rec.ClockRateHz(), "unset clock is derived from timing")
	assert.Equal(t, 24, enc.ResetBytes())
	assert.Equal(t, transport.OneWire, enc.Capability())

	require.NoError(t, enc.BeginTransaction())
	require.NoError(t, enc.TransmitBytes([]byte{0xA5}))
	require.NoError(t, enc.TransmitBytes([]byte{0xFF, 0x00}))
	require.NoError(t, enc.EndTransaction())

	frame := rec.Last()
	require.Len(t, frame, 24+9+24)
	assert.Equal(t, make([]byte, 24), frame[:24])
	assert.Equal(t, []byte{0xD3, 0x49, 0xA6}, frame[24:27])
	assert.Equal(t, []byte{0xDB, 0x6D, 0xB6}, frame[27:30])
	assert.Equal(t, []byte{0x92, 0x49, 0x24}, frame[30:33])
	assert.Equal(t, make([]byte, 24), frame[33:])
	assert.Equal(t, 1, rec.Transactions)
}

func TestEncoderKeepsConfiguredClock(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	rec.SetClockRateHz(3000000)
	enc, err := NewEncoder(rec, Ws2812x)
	require.NoError(t, err)
	require.NoError(t, enc.Begin())
	assert.Equal(t, uint32(3000000), enc.ClockRateHz())
	assert.Equal(t, ResetBytes(300000, 3000000), enc.ResetBytes())
}

func TestEncoderFourStep(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	enc, err := NewEncoder(rec, Timing{Name: "t", BitPeriodNs: 1250, Pattern: FourStep})
	require.NoError(t, err)
	require.NoError(t, enc.Begin())

	// outside a transaction a call is a frame of its own
	require.NoError(t, enc.TransmitBytes([]byte{0xA5}))
	assert.Equal(t, []byte{0xE8, 0xE8, 0x8E, 0x8E}, rec.Last())
	assert.Equal(t, 4, enc.EncodedLen(1))
}

func TestEncoderInvertsThroughTransport(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	rec.Invert = true
	enc, err := NewEncoder(rec, Timing{Name: "t", BitPeriodNs: 1250, ResetNs: 10000, Pattern: ThreeStep})
	require.NoError(t, err)
	require.NoError(t, enc.Begin())
	require.Equal(t, 3, enc.ResetBytes())

	require.NoError(t, enc.TransmitBytes([]byte{0x00}))
	want := []byte{0xFF, 0xFF, 0xFF, ^byte(0x92), ^byte(0x49), ^byte(0x24), 0xFF, 0xFF, 0xFF}
	assert.True(t, bytes.Equal(want, rec.Last()), "got % x", rec.Last())
}

func TestEncoderRequiresClockedTransport(t *testing.T) {
	_, err := NewEncoder(transport.NewRecorder(transport.OneWire), Ws2812x)
	assert.ErrorIs(t, err, ErrNeedsClockedTransport)
}

func TestEncoderReserve(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	enc, err := NewEncoder(rec, Ws2812x)
	require.NoError(t, err)
	enc.Reserve(30)
	assert.Equal(t, 2*90+90, enc.EncodedLen(30))
	assert.GreaterOrEqual(t, cap(enc.buf), enc.EncodedLen(30))
}

func TestEncoderReadinessFollowsTransport(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	enc, err := NewEncoder(rec, Ws2812x)
	require.NoError(t, err)
	rec.NotReady = true
	assert.False(t, enc.IsReadyToUpdate())
	rec.NotReady = false
	assert.True(t, enc.IsReadyToUpdate())
}
