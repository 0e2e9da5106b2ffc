package transport

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
)

// NRZ hands whole frames to periph.io's nrzled driver, which does its own
// NRZ bit expansion and latch. It is a native one-wire sink: protocols write
// plain channel bytes to it, with no one-wire encoder in between.
//
// nrzled expects RGB input and reorders to GRB itself, so pair it with an
// "RGB" channel order and no settings header.
type NRZ struct {
	mu    sync.Mutex
	dev   frameWriter
	frame []byte
}

type frameWriter interface {
	Write(p []byte) (int, error)
	Halt() error
	String() string
}

// NewNRZ opens an nrzled device on port for pixels x channels bytes.
func NewNRZ(port spi.Port, pixels, channels int, freq physic.Frequency) (*NRZ, error) {
	if freq == 0 {
		freq = 2500 * physic.KiloHertz
	}
	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: pixels,
		Channels:  channels,
		Freq:      freq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	log.Debug().Str("dev", d.String()).Int("pixels", pixels).Int("channels", channels).Msg("nrz transport opened")
	return &NRZ{dev: d, frame: make([]byte, 0, pixels*channels)}, nil
}

func (n *NRZ) Begin() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return ErrClosed
	}
	return nil
}

func (n *NRZ) BeginTransaction() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.frame = n.frame[:0]
	return nil
}

func (n *NRZ) TransmitBytes(p []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.frame = append(n.frame, p...)
	return nil
}

func (n *NRZ) EndTransaction() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return ErrClosed
	}
	if _, err := n.dev.Write(n.frame); err != nil {
		return fmt.Errorf("nrz write: %w", err)
	}
	n.frame = n.frame[:0]
	return nil
}

func (n *NRZ) IsReadyToUpdate() bool { return true }

func (n *NRZ) Capability() Capability { return OneWire }

// Close blanks the strip.
func (n *NRZ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return nil
	}
	err := n.dev.Halt()
	n.dev = nil
	return err
}
