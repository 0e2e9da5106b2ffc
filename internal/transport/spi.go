package transport

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DefaultSPIClockHz is used when no clock rate was configured.
const DefaultSPIClockHz = 2400000

// SPI is a clocked transport over a periph.io SPI port. Bytes sent inside a
// transaction are gathered and written on EndTransaction so a frame goes out
// as one burst, split only where the port limits transfer size.
type SPI struct {
	Settings

	mu    sync.Mutex
	port  spi.Port
	conn  spi.Conn
	maxTx int
	inTx  bool
	frame []byte
}

func NewSPI(port spi.Port, s Settings) *SPI {
	return &SPI{Settings: s, port: port}
}

func (s *SPI) String() string {
	if s.port == nil {
		return "spi(nil)"
	}
	return "spi(" + s.port.String() + ")"
}

func (s *SPI) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ErrClosed
	}
	if s.conn != nil {
		return nil
	}
	hz := s.ClockHz
	if hz == 0 {
		hz = DefaultSPIClockHz
		s.ClockHz = hz
	}
	c, err := s.port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return fmt.Errorf("spi connect: %w", err)
	}
	s.conn = c
	if l, ok := c.(conn.Limits); ok {
		s.maxTx = l.MaxTxSize()
	}
	log.Debug().
		Str("port", s.port.String()).
		Uint32("clock_hz", hz).
		Int("max_tx", s.maxTx).
		Bool("invert", s.Invert).
		Msg("spi transport started")
	return nil
}

func (s *SPI) BeginTransaction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx = true
	s.frame = s.frame[:0]
	return nil
}

func (s *SPI) TransmitBytes(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inTx {
		s.frame = append(s.frame, p...)
		return nil
	}
	s.frame = append(s.frame[:0], p...)
	return s.flush()
}

func (s *SPI) EndTransaction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx = false
	return s.flush()
}

func (s *SPI) flush() error {
	if s.conn == nil {
		return ErrNotStarted
	}
	if s.Invert {
		invertInPlace(s.frame)
	}
	w := s.frame
	for len(w) > 0 {
		n := len(w)
		if s.maxTx > 0 && n > s.maxTx {
			n = s.maxTx
		}
		if err := s.conn.Tx(w[:n], nil); err != nil {
			return fmt.Errorf("spi write: %w", err)
		}
		w = w[n:]
	}
	s.frame = s.frame[:0]
	return nil
}

// IsReadyToUpdate is always true; Tx blocks until the burst is out.
func (s *SPI) IsReadyToUpdate() bool { return true }

func (s *SPI) Capability() Capability { return Clocked }

func (s *SPI) ClockRateHz() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ClockHz
}

// SetClockRateHz only takes effect before Begin.
func (s *SPI) SetClockRateHz(hz uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClockHz = hz
}

// Close releases the port when it is closable.
func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	var err error
	if c, ok := s.port.(io.Closer); ok {
		err = c.Close()
	}
	s.port = nil
	s.conn = nil
	return err
}
