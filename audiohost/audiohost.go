// Package audiohost wires the looper engine to a live audio device via
// PortAudio.
package audiohost

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/chriskillpack/boocli/engine"
	"github.com/chriskillpack/boocli/midiio"
)

// Stream owns the PortAudio stream driving one Engine's Process call once
// per audio callback. PortAudio delivers interleaved stereo float32
// samples; Stream deinterleaves on the way in and reinterleaves on the
// way out around the engine's per-channel slices. The callback is also the
// only place the bound Transport's queued MIDI events are dispatched into
// the Engine, so MIDI events mutate the Engine from this one goroutine.
type Stream struct {
	stream *portaudio.Stream

	eng       *engine.Engine
	transport *midiio.Transport

	left, right       []float32
	outLeft, outRight []float32
}

// Open creates and starts a default-device stereo in/out stream at hz
// sample rate. If transport is non-nil, the callback's frame count is
// pushed to it before every Engine.Process call so clock-tick handling can
// stamp correct end cursors for a recording finishing this cycle.
func Open(eng *engine.Engine, transport *midiio.Transport, hz int) (*Stream, error) {
	s := &Stream{eng: eng, transport: transport}

	stream, err := portaudio.OpenDefaultStream(2, 2, float64(hz), portaudio.FramesPerBufferUnspecified, s.process)
	if err != nil {
		return nil, fmt.Errorf("audiohost: open stream: %w", err)
	}
	s.stream = stream

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("audiohost: start stream: %w", err)
	}
	return s, nil
}

// process is PortAudio's realtime callback, and the Engine's single
// mutation point: every control-surface and clock event gomidi's listener
// goroutines have queued since the last cycle is drained and dispatched
// here first - control events, then clock pulses - audio is then mixed,
// and finally the LED requests raised during this cycle are drained out to
// MIDI, matching the realtime engine's per-cycle ordering contract. The
// host's LOAD/SAVE poll loop (cmd/boocli) is the exception: it applies a
// loaded snapshot, resets tracks and flushes LEDs from its own goroutine,
// without synchronizing with this callback.
func (s *Stream) process(in, out []float32) {
	n := len(out) / 2
	if cap(s.left) < n {
		s.left = make([]float32, n)
		s.right = make([]float32, n)
		s.outLeft = make([]float32, n)
		s.outRight = make([]float32, n)
	}
	left, right := s.left[:n], s.right[:n]
	outLeft, outRight := s.outLeft[:n], s.outRight[:n]

	for i := 0; i < n; i++ {
		left[i] = in[2*i]
		right[i] = in[2*i+1]
	}

	if s.transport != nil {
		s.transport.DrainControl()
		s.transport.DrainClock(n)
	}

	s.eng.Process(engine.AudioCycle{
		Input:  [2][]float32{left, right},
		Output: [2][]float32{outLeft, outRight},
	})

	if s.transport != nil {
		s.transport.FlushLEDs()
	}

	for i := 0; i < n; i++ {
		out[2*i] = outLeft[i]
		out[2*i+1] = outRight[i]
	}
}

// Close stops and releases the stream.
func (s *Stream) Close() error {
	if err := s.stream.Stop(); err != nil {
		return err
	}
	return s.stream.Close()
}
