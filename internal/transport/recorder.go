package transport

// Recorder is an in-memory transport that keeps every frame it is given.
// It backs the simulator and the protocol tests.
type Recorder struct {
	Settings

	// Caps is the capability the recorder advertises. Zero means Clocked.
	Caps Capability
	// NotReady makes IsReadyToUpdate report false while set.
	NotReady bool
	// Polls counts IsReadyToUpdate calls.
	Polls int
	// Ready, when non-nil, overrides NotReady and is called on every poll.
	Ready func(poll int) bool
	// Keep bounds Frames to the newest Keep frames and Calls to those of the
	// current or last transaction. Zero keeps everything.
	Keep int

	Begun        bool
	Transactions int
	// Calls holds a copy of every TransmitBytes argument in order.
	Calls [][]byte
	// Frames holds the concatenated bytes of each completed transaction.
	Frames [][]byte

	pending []byte
}

func NewRecorder(caps Capability) *Recorder {
	return &Recorder{Caps: caps}
}

func (r *Recorder) Begin() error {
	r.Begun = true
	return nil
}

func (r *Recorder) BeginTransaction() error {
	r.pending = r.pending[:0]
	if r.Keep > 0 {
		clear(r.Calls)
		r.Calls = r.Calls[:0]
	}
	return nil
}

func (r *Recorder) TransmitBytes(p []byte) error {
	c := append([]byte(nil), p...)
	if r.Invert {
		invertInPlace(c)
	}
	r.Calls = append(r.Calls, c)
	r.pending = append(r.pending, c...)
	return nil
}

func (r *Recorder) EndTransaction() error {
	r.Transactions++
	r.Frames = append(r.Frames, append([]byte(nil), r.pending...))
	if r.Keep > 0 && len(r.Frames) > r.Keep {
		n := copy(r.Frames, r.Frames[len(r.Frames)-r.Keep:])
		clear(r.Frames[n:])
		r.Frames = r.Frames[:n]
	}
	r.pending = r.pending[:0]
	return nil
}

func (r *Recorder) IsReadyToUpdate() bool {
	r.Polls++
	if r.Ready != nil {
		return r.Ready(r.Polls)
	}
	return !r.NotReady
}

func (r *Recorder) Capability() Capability {
	if r.Caps == AnyTransport {
		return Clocked
	}
	return r.Caps
}

func (r *Recorder) ClockRateHz() uint32      { return r.ClockHz }
func (r *Recorder) SetClockRateHz(hz uint32) { r.ClockHz = hz }

// Last returns the most recent completed frame, or nil.
func (r *Recorder) Last() []byte {
	if len(r.Frames) == 0 {
		return nil
	}
	return r.Frames[len(r.Frames)-1]
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Frames = nil
	r.Transactions = 0
	r.Polls = 0
	r.pending = r.pending[:0]
}
