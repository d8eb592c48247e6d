// Package audio defines the capture/playback contract the orchestrator
// depends on. The concrete device layer lives outside this service; the
// orchestrator only drives the interface.
package audio

// FrameFunc receives raw 16-bit PCM capture frames.
type FrameFunc func(frame []byte)

// Channel wraps one session's microphone capture and speaker playback. A
// channel is owned exclusively by a single interview session.
type Channel interface {
	// Capture side.
	Begin() error
	Record(onFrame FrameFunc) error
	Pause() error
	End() error
	GetFrequencies(kind string) []float32

	// Playback side.
	Connect() error
	Add16BitPCM(data []byte, id string) error
	Interrupt() error
}

// NullChannel is the inert channel used when no device layer is attached.
// Every operation succeeds and does nothing.
type NullChannel struct{}

func NewNullChannel() *NullChannel { return &NullChannel{} }

func (n *NullChannel) Begin() error                       { return nil }
func (n *NullChannel) Record(onFrame FrameFunc) error     { return nil }
func (n *NullChannel) Pause() error                       { return nil }
func (n *NullChannel) End() error                         { return nil }
func (n *NullChannel) GetFrequencies(kind string) []float32 { return nil }
func (n *NullChannel) Connect() error                     { return nil }
func (n *NullChannel) Add16BitPCM(data []byte, id string) error { return nil }
func (n *NullChannel) Interrupt() error                   { return nil }
