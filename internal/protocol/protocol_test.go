package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/onewire"
	"github.com/coreman2200/pixelbus/internal/transport"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestCapabilityCheckedAtConstruction(t *testing.T) {
	clocked := transport.NewRecorder(transport.Clocked)
	oneWire := transport.NewRecorder(transport.OneWire)

	_, err := NewWs2812x[uint8](clocked, Ws2812xSettings{Settings: Settings{Pixels: 1}})
	assert.ErrorIs(t, err, ErrIncompatibleTransport)
	_, err = NewTm1814[uint8](clocked, Tm1814Settings{Settings: Settings{Pixels: 1}})
	assert.ErrorIs(t, err, ErrIncompatibleTransport)
	_, err = NewDotStar[uint8](oneWire, DotStarSettings{Settings: Settings{Pixels: 1}})
	assert.ErrorIs(t, err, ErrIncompatibleTransport)
	_, err = NewWs2801[uint8](nil, Settings{Pixels: 1})
	assert.ErrorIs(t, err, ErrNoTransport)

	_, err = NewPixie[uint8](clocked, Settings{Pixels: 1})
	assert.NoError(t, err)
	_, err = NewPixie[uint8](oneWire, Settings{Pixels: 1})
	assert.NoError(t, err)

	enc, err := onewire.NewEncoder(clocked, onewire.Ws2812x)
	require.NoError(t, err)
	_, err = NewWs2812x[uint8](enc, Ws2812xSettings{Settings: Settings{Pixels: 1}})
	assert.NoError(t, err, "a clocked transport behind the encoder carries one-wire protocols")
}

func TestDotStarEndFrameSizing(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 32} {
		rec := transport.NewRecorder(transport.Clocked)
		p, err := NewDotStar[uint8](rec, DotStarSettings{Settings: Settings{Pixels: n}})
		require.NoError(t, err)
		require.NoError(t, p.Update(make([]color.Color8, n)))

		extra := (n + 15) / 16
		assert.Equal(t, extra, p.EndFrameExtra(), "pixels=%d", n)
		require.Len(t, rec.Calls, 4+1+4+extra, "pixels=%d", n)
		assert.Len(t, rec.Calls[4], n*4)
		for i, c := range rec.Calls {
			if i == 4 {
				continue
			}
			assert.Equal(t, []byte{0x00}, c, "framing call %d, pixels=%d", i, n)
		}
	}
}

func TestDotStarPixelBytes(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewDotStar[uint8](rec, DotStarSettings{Settings: Settings{Pixels: 2}})
	require.NoError(t, err)
	require.NoError(t, p.Update([]color.Color8{color.RGB(0x10, 0x20, 0x30), color.RGB(1, 2, 3)}))
	assert.Equal(t, []byte{0xFF, 0x30, 0x20, 0x10, 0xFF, 3, 2, 1}, rec.Calls[4])

	rec.Reset()
	p, err = NewDotStar[uint8](rec, DotStarSettings{Settings: Settings{Pixels: 2, ChannelOrder: "RGB"}, Mode: DotStarLuminance})
	require.NoError(t, err)
	require.NoError(t, p.Update([]color.Color8{color.RGBW(0x10, 0x20, 0x30, 5), color.RGBW(1, 2, 3, 200)}))
	assert.Equal(t, []byte{0xE5, 0x10, 0x20, 0x30, 0xFF, 1, 2, 3}, rec.Calls[4])
}

func TestHd108(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewHd108[uint8](rec, Settings{Pixels: 1})
	require.NoError(t, err)
	require.NoError(t, p.Update([]color.Color8{color.RGB(0x12, 0x34, 0x56)}))

	require.Len(t, rec.Calls, 16+1+4)
	assert.Equal(t, []byte{0xFF, 0xFF, 0x12, 0x12, 0x34, 0x34, 0x56, 0x56}, rec.Calls[16])
	frame := make([]byte, 16)
	frame = append(frame, 0xFF, 0xFF, 0x12, 0x12, 0x34, 0x34, 0x56, 0x56)
	frame = append(frame, 0xFF, 0xFF, 0xFF, 0xFF)
	assert.Equal(t, frame, rec.Last())

	rec.Reset()
	wide, err := NewHd108[uint16](rec, Settings{Pixels: 1, ChannelOrder: "BGR"})
	require.NoError(t, err)
	require.NoError(t, wide.Update([]color.Color16{{0x1234, 0x5678, 0x9ABC}}))
	assert.Equal(t, []byte{0xFF, 0xFF, 0x9A, 0xBC, 0x56, 0x78, 0x12, 0x34}, rec.Calls[16])
}

func TestLpd6803(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewLpd6803[uint8](rec, Settings{Pixels: 9})
	require.NoError(t, err)
	colors := make([]color.Color8, 9)
	colors[0] = color.RGB(0xFF, 0x00, 0x08)
	require.NoError(t, p.Update(colors))

	require.Len(t, rec.Calls, 4+1+2)
	assert.Equal(t, []byte{0xFC, 0x01}, rec.Calls[4][:2])
	assert.Equal(t, []byte{0x80, 0x00}, rec.Calls[4][2:4], "black keeps the start bit")
}

func TestLpd8806(t *testing.T) {
	tests := []struct {
		pixels int
		latch  int
	}{
		{1, 1},
		{32, 1},
		{33, 2},
	}
	for _, tt := range tests {
		rec := transport.NewRecorder(transport.Clocked)
		p, err := NewLpd8806[uint8](rec, Settings{Pixels: tt.pixels})
		require.NoError(t, err)
		require.NoError(t, p.Update([]color.Color8{color.RGB(0x10, 0x20, 0x30)}))

		require.Len(t, rec.Calls, 2*tt.latch+1)
		assert.Equal(t, []byte{0x00}, rec.Calls[0])
		assert.Equal(t, []byte{0xFF}, rec.Calls[len(rec.Calls)-1])
		px := rec.Calls[tt.latch]
		assert.Equal(t, []byte{0x90, 0x88, 0x98}, px[:3])
		for _, b := range px {
			assert.NotZero(t, b&0x80)
		}
	}
}

// scribbler records like a Recorder, then overwrites what it was handed.
type scribbler struct{ *transport.Recorder }

func (s scribbler) TransmitBytes(p []byte) error {
	err := s.Recorder.TransmitBytes(p)
	for i := range p {
		p[i] = 0xA5
	}
	return err
}

func TestFramingSurvivesTransportWrites(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewLpd8806[uint8](scribbler{rec}, Settings{Pixels: 2})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Update(nil))
		frame := rec.Last()
		assert.Equal(t, byte(0x00), frame[0], "frame %d", i)
		assert.Equal(t, byte(0xFF), frame[len(frame)-1], "frame %d", i)
	}

	q, err := NewDotStar[uint8](scribbler{rec}, DotStarSettings{Settings: Settings{Pixels: 1}})
	require.NoError(t, err)
	require.NoError(t, q.Update(nil))
	require.NoError(t, q.Update(nil))
	assert.Equal(t, []byte{0, 0, 0, 0, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0}, rec.Last())
}

func TestP9813Header(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewP9813[uint8](rec, Settings{Pixels: 2})
	require.NoError(t, err)
	require.NoError(t, p.Update([]color.Color8{color.RGB(0xFF, 0x00, 0x80)}))

	require.Len(t, rec.Calls, 4+1+4)
	assert.Equal(t, []byte{0xDC, 0x80, 0x00, 0xFF, 0xFF, 0x00, 0x00, 0x00}, rec.Calls[4])
}

func TestSm16716SinglePixel(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewSm16716[uint8](rec, Settings{Pixels: 1})
	require.NoError(t, err)
	require.Equal(t, 10, p.FrameLen())

	require.NoError(t, p.Update([]color.Color8{{}}))
	out := rec.Last()
	require.Len(t, out, 10)
	assert.Equal(t, byte(0x20), out[6])
	for i, b := range out {
		if i != 6 {
			assert.Zero(t, b, "byte %d", i)
		}
	}

	require.NoError(t, p.Update([]color.Color8{color.RGB(0xFF, 0xFF, 0xFF)}))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x3F, 0xFF, 0xFF, 0xE0}, rec.Last())
}

func TestSm168xTrailer(t *testing.T) {
	tests := []struct {
		order   string
		gains   [5]uint8
		trailer []byte
	}{
		{"RGB", [5]uint8{15, 8, 1}, []byte{0xF8, 0x10}},
		{"RGBW", [5]uint8{1, 2, 3, 99}, []byte{0x12, 0x3F}},
		{"RGBWC", [5]uint8{31, 0, 31, 0, 40}, []byte{0xF8, 0x3E, 0x0F, 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			rec := transport.NewRecorder(transport.OneWire)
			p, err := NewSm168x[uint8](rec, Sm168xSettings{Settings: Settings{Pixels: 1, ChannelOrder: tt.order}, Gains: tt.gains})
			require.NoError(t, err)
			require.NoError(t, p.Update([]color.Color8{{1, 2, 3, 4, 5}}))

			out := rec.Last()
			n := len(tt.order)
			require.Len(t, out, n+len(tt.trailer))
			assert.Equal(t, []byte{1, 2, 3, 4, 5}[:n], out[:n])
			assert.Equal(t, tt.trailer, out[n:])
		})
	}

	_, err := NewSm168x[uint8](transport.NewRecorder(transport.OneWire), Sm168xSettings{Settings: Settings{ChannelOrder: "RG"}})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestTlc5947ReversesChannels(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewTlc5947[uint8](rec, Tlc5947Settings{Settings: Settings{Pixels: 1}})
	require.NoError(t, err)
	require.Equal(t, 1, p.Modules())
	require.NoError(t, p.Update([]color.Color8{color.RGB(0xFF, 0x00, 0x80)}))

	out := rec.Last()
	require.Len(t, out, 36)
	assert.Equal(t, make([]byte, 30), out[:30])
	assert.Equal(t, []byte{0x00, 0x08, 0x08, 0x00, 0x0F, 0xFF}, out[30:])
}

func TestTlc5947TailFill(t *testing.T) {
	tests := []struct {
		name   string
		pixels int
		tail   TailFill
		module int
		slot   int
		expect int
	}{
		{"real pixel", 10, TailZero, 1, 1, 9},
		{"zero", 10, TailZero, 1, 2, -1},
		{"repeat first", 10, TailRepeatFirst, 1, 5, 8},
		{"repeat last", 10, TailRepeatLast, 1, 5, 9},
		{"full module", 8, TailRepeatLast, 0, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewTlc5947[uint8](transport.NewRecorder(transport.Clocked), Tlc5947Settings{Settings: Settings{Pixels: tt.pixels}, Tail: tt.tail})
			require.NoError(t, err)
			assert.Equal(t, tt.expect, p.source(tt.module, tt.slot))
		})
	}

	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewTlc5947[uint8](rec, Tlc5947Settings{Settings: Settings{Pixels: 1}, Tail: TailRepeatLast})
	require.NoError(t, err)
	require.NoError(t, p.Update([]color.Color8{color.RGB(0xFF, 0xFF, 0xFF)}))
	for i, b := range rec.Last() {
		assert.Equal(t, byte(0xFF), b, "byte %d", i)
	}

	_, err = ParseTailFill("sideways")
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestTlc59711(t *testing.T) {
	assert.Equal(t, uint32(0x96DFFFFF), DefaultTlc59711Control().word())
	assert.Equal(t, uint32(0x94000000), Tlc59711Control{}.word())
	assert.Equal(t, uint32(0x94000000|1<<21|0x7F<<14), Tlc59711Control{Blank: true, BCB: 200}.word())

	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewTlc59711[uint8](rec, Tlc59711Settings{Settings: Settings{Pixels: 5}, Control: DefaultTlc59711Control()})
	require.NoError(t, err)
	require.Equal(t, 2, p.Chips())

	colors := []color.Color8{color.RGB(1, 2, 3), {}, {}, {}, color.RGB(4, 5, 6)}
	require.NoError(t, p.Update(colors))
	out := rec.Last()
	require.Len(t, out, 56)

	header := []byte{0x96, 0xDF, 0xFF, 0xFF}
	// last chip first, channels reversed
	assert.Equal(t, header, out[0:4])
	assert.Equal(t, make([]byte, 18), out[4:22])
	assert.Equal(t, []byte{0x06, 0x06, 0x05, 0x05, 0x04, 0x04}, out[22:28])
	assert.Equal(t, header, out[28:32])
	assert.Equal(t, []byte{0x03, 0x03, 0x02, 0x02, 0x01, 0x01}, out[50:56])
}

func TestTlc59711LatchGuard(t *testing.T) {
	clk := newFakeClock()
	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewTlc59711[uint8](rec, Tlc59711Settings{Settings: Settings{Pixels: 4}})
	require.NoError(t, err)
	p.latch.now = clk.now

	require.True(t, p.IsReadyToUpdate())
	require.NoError(t, p.Update(nil))
	assert.False(t, p.IsReadyToUpdate())
	clk.advance(20 * time.Microsecond)
	assert.True(t, p.IsReadyToUpdate())
}

func TestTm1814Header(t *testing.T) {
	assert.Equal(t, byte(0), Tm1814Gain(0))
	assert.Equal(t, byte(1), Tm1814Gain(70))
	assert.Equal(t, byte(62), Tm1814Gain(379))
	assert.Equal(t, byte(63), Tm1814Gain(5000))

	rec := transport.NewRecorder(transport.OneWire)
	p, err := NewTm1814[uint8](rec, Tm1814Settings{
		Settings: Settings{Pixels: 1},
		Currents: Tm1814Currents{R: 65, G: 380, B: 200, W: 1000},
	})
	require.NoError(t, err)
	require.NoError(t, p.Update([]color.Color8{color.RGBW(1, 2, 3, 4)}))
	assert.Equal(t, []byte{0x3F, 0x00, 0x3F, 0x1B, 0xC0, 0xFF, 0xC0, 0xE4, 4, 1, 2, 3}, rec.Last())
}

func TestTm1914Header(t *testing.T) {
	tests := []struct {
		mode   string
		header []byte
	}{
		{"auto", []byte{0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00}},
		{"din", []byte{0xFF, 0xFF, 0xF5, 0x00, 0x00, 0x0A}},
		{"fdin", []byte{0xFF, 0xFF, 0xFA, 0x00, 0x00, 0x05}},
	}
	for _, tt := range tests {
		mode, err := ParseTm1914Mode(tt.mode)
		require.NoError(t, err)
		rec := transport.NewRecorder(transport.OneWire)
		p, err := NewTm1914[uint8](rec, Tm1914Settings{Settings: Settings{Pixels: 1, ChannelOrder: "BGR"}, Mode: mode})
		require.NoError(t, err)
		require.NoError(t, p.Update([]color.Color8{color.RGB(1, 2, 3)}))
		assert.Equal(t, append(tt.header, 3, 2, 1), rec.Last(), tt.mode)
	}
}

func TestWs2801LatchAndTruncation(t *testing.T) {
	clk := newFakeClock()
	rec := transport.NewRecorder(transport.Clocked)
	p, err := NewWs2801[uint8](rec, Settings{Pixels: 2})
	require.NoError(t, err)
	p.latch.now = clk.now

	require.NoError(t, p.Update([]color.Color8{color.RGB(1, 2, 3), color.RGB(4, 5, 6), color.RGB(7, 8, 9)}))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, rec.Last(), "colors past the pixel count are ignored")

	assert.False(t, p.IsReadyToUpdate())
	clk.advance(499 * time.Microsecond)
	assert.False(t, p.IsReadyToUpdate())
	clk.advance(time.Microsecond)
	assert.True(t, p.IsReadyToUpdate())

	require.NoError(t, p.Update([]color.Color8{color.RGB(1, 2, 3)}))
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0}, rec.Last(), "missing colors are black")
}

func TestPixieAlwaysUpdatesAndWaits(t *testing.T) {
	clk := newFakeClock()
	rec := transport.NewRecorder(transport.OneWire)
	p, err := NewPixie[uint8](rec, Settings{Pixels: 1})
	require.NoError(t, err)
	p.latch.now = clk.now
	assert.True(t, p.AlwaysUpdate())

	require.NoError(t, p.Update([]color.Color8{color.RGB(9, 8, 7)}))
	assert.Equal(t, []byte{9, 8, 7}, rec.Last())
	assert.False(t, p.IsReadyToUpdate())
	clk.advance(time.Millisecond)
	assert.True(t, p.IsReadyToUpdate())
}

func TestWs2812xOrderAndWidth(t *testing.T) {
	rec := transport.NewRecorder(transport.OneWire)
	p, err := NewWs2812x[uint8](rec, Ws2812xSettings{Settings: Settings{Pixels: 1}})
	require.NoError(t, err)
	require.NoError(t, p.Update([]color.Color8{color.RGB(0x10, 0x20, 0x30)}))
	assert.Equal(t, []byte{0x20, 0x10, 0x30}, rec.Last())

	p, err = NewWs2812x[uint8](rec, Ws2812xSettings{Settings: Settings{Pixels: 1, ChannelOrder: "GRBW"}})
	require.NoError(t, err)
	require.NoError(t, p.Update([]color.Color8{color.RGBW(1, 2, 3, 4)}))
	assert.Equal(t, []byte{2, 1, 3, 4}, rec.Last())

	wide, err := NewWs2812x[uint16](rec, Ws2812xSettings{Settings: Settings{Pixels: 1}, Wide: true})
	require.NoError(t, err)
	require.NoError(t, wide.Update([]color.Color16{{0x1234, 0x5678, 0x9ABC}}))
	assert.Equal(t, []byte{0x56, 0x78, 0x12, 0x34, 0x9A, 0xBC}, rec.Last())

	narrow, err := NewWs2812x[uint16](rec, Ws2812xSettings{Settings: Settings{Pixels: 1}})
	require.NoError(t, err)
	require.NoError(t, narrow.Update([]color.Color16{{0x1234, 0x5678, 0x9ABC}}))
	assert.Equal(t, []byte{0x56, 0x12, 0x9A}, rec.Last())
}

func TestWs2812xPollsBeforeSend(t *testing.T) {
	rec := transport.NewRecorder(transport.OneWire)
	rec.Ready = func(poll int) bool { return poll >= 3 }
	p, err := NewWs2812x[uint8](rec, Ws2812xSettings{Settings: Settings{Pixels: 1}})
	require.NoError(t, err)

	require.NoError(t, p.Update(nil))
	assert.Equal(t, 3, rec.Polls)
	assert.Equal(t, 1, rec.Transactions)
}

func TestWs2812xThroughEncoder(t *testing.T) {
	rec := transport.NewRecorder(transport.Clocked)
	enc, err := onewire.NewEncoder(rec, onewire.Timing{Name: "t", BitPeriodNs: 1250, Pattern: onewire.ThreeStep})
	require.NoError(t, err)
	p, err := NewWs2812x[uint8](enc, Ws2812xSettings{Settings: Settings{Pixels: 1, ChannelOrder: "RGB"}})
	require.NoError(t, err)
	require.NoError(t, p.Initialize())
	assert.True(t, rec.Begun)

	require.NoError(t, p.Update([]color.Color8{color.RGB(0xFF, 0x00, 0xA5)}))
	assert.Equal(t, []byte{0xDB, 0x6D, 0xB6, 0x92, 0x49, 0x24, 0xD3, 0x49, 0xA6}, rec.Last())
}

func TestWaitReadySleepsAfterSpinning(t *testing.T) {
	polls := 0
	WaitReady(readyFunc(func() bool {
		polls++
		return polls > spinPolls+2
	}))
	assert.Equal(t, spinPolls+3, polls)
}

type readyFunc func() bool

func (f readyFunc) IsReadyToUpdate() bool { return f() }

func TestRegistry(t *testing.T) {
	assert.Len(t, Names(), 14)

	for _, name := range Names() {
		need, err := Requires(name)
		require.NoError(t, err)
		caps := need
		if caps == transport.AnyTransport {
			caps = transport.Clocked
		}
		p, err := New[uint8](name, transport.NewRecorder(caps), Options{Settings: Settings{Pixels: 3}, Control: DefaultTlc59711Control()})
		require.NoError(t, err, name)
		assert.Equal(t, 3, p.PixelCount(), name)
		require.NoError(t, p.Update([]color.Color8{color.RGB(1, 2, 3)}), name)
	}

	p, err := New[uint8]("WS2812X", transport.NewRecorder(transport.Clocked), Options{})
	assert.ErrorIs(t, err, ErrIncompatibleTransport)
	assert.Nil(t, p)

	_, err = New[uint8]("neon", transport.NewRecorder(transport.Clocked), Options{})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	_, err = Requires("neon")
	assert.ErrorIs(t, err, ErrInvalidSettings)
}
