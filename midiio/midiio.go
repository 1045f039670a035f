// Package midiio wires the looper engine to a physical control surface
// over MIDI: port enumeration, control and clock listeners, and the
// LED-feedback sender, built on gitlab.com/gomidi/midi/v2.
package midiio

import (
	"errors"
	"fmt"
	"io"
	"log"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/chriskillpack/boocli/boocfg"
	"github.com/chriskillpack/boocli/engine"
)

const (
	statusMIDIClock = 0xF8
	statusMIDIPlay  = 0xFA
)

// eventQueueCapacity bounds the handoff channels from gomidi's listener
// goroutines to the audio callback. Sized well above a single cycle's worth
// of control-surface activity so a drop only happens under a pathological
// event flood.
const eventQueueCapacity = 256

// ErrPortNotFound is returned when a configured or flag-supplied port name
// does not match any currently available MIDI port.
var ErrPortNotFound = errors.New("midiio: port not found")

// ListPorts writes every available MIDI input/output port name to w, for
// the CLI's -list flag.
func ListPorts(w io.Writer) {
	fmt.Fprintln(w, "MIDI inputs:")
	for i, in := range midi.GetInPorts() {
		fmt.Fprintf(w, "  [%d] %s\n", i, in)
	}
	fmt.Fprintln(w, "MIDI outputs:")
	for i, out := range midi.GetOutPorts() {
		fmt.Fprintf(w, "  [%d] %s\n", i, out)
	}
}

// Transport binds an Engine and a resolved binding table to a set of open
// MIDI ports. gomidi's own listener goroutines never touch the Engine
// directly - they only hand raw bytes off through bounded channels.
// DrainControl and DrainClock, which do the actual dispatch into the
// Engine, must only be called from the realtime audio callback
// (audiohost.Stream.process), in that order, ahead of the audio mix, per
// the engine's per-cycle ordering contract: MIDI-in events first,
// MIDI-clock events next, then audio is mixed, then LED-out is drained.
// This keeps every MIDI-driven Engine mutation on the audio callback's
// goroutine.
type Transport struct {
	eng      *engine.Engine
	bindings *boocfg.Bindings
	logger   *log.Logger

	send func(midi.Message) error

	controlCh chan boocfg.ControlFingerprint
	clockCh   chan byte

	stopControl func()
	stopClock   func()
}

// Open resolves controlPortName (control surface), clockPortName (MIDI
// clock source - may equal controlPortName) and outPortName (LED
// feedback), opens a sender on the output port, and starts listening on
// both inputs.
func Open(eng *engine.Engine, bindings *boocfg.Bindings, logger *log.Logger, controlPortName, clockPortName, outPortName string) (*Transport, error) {
	t := &Transport{
		eng: eng, bindings: bindings, logger: logger,
		controlCh: make(chan boocfg.ControlFingerprint, eventQueueCapacity),
		clockCh:   make(chan byte, eventQueueCapacity),
	}

	outPort, err := midi.FindOutPort(outPortName)
	if err != nil {
		return nil, fmt.Errorf("%w: output %q: %v", ErrPortNotFound, outPortName, err)
	}
	send, err := midi.SendTo(outPort)
	if err != nil {
		return nil, fmt.Errorf("midiio: open output %q: %w", outPortName, err)
	}
	t.send = send

	controlPort, err := midi.FindInPort(controlPortName)
	if err != nil {
		return nil, fmt.Errorf("%w: control input %q: %v", ErrPortNotFound, controlPortName, err)
	}
	stopControl, err := midi.ListenTo(controlPort, t.handleControl)
	if err != nil {
		return nil, fmt.Errorf("midiio: listen control %q: %w", controlPortName, err)
	}
	t.stopControl = stopControl

	clockName := clockPortName
	if clockName == "" {
		clockName = controlPortName
	}
	clockPort, err := midi.FindInPort(clockName)
	if err != nil {
		return nil, fmt.Errorf("%w: clock input %q: %v", ErrPortNotFound, clockName, err)
	}
	stopClock, err := midi.ListenTo(clockPort, t.handleClock)
	if err != nil {
		return nil, fmt.Errorf("midiio: listen clock %q: %w", clockName, err)
	}
	t.stopClock = stopClock

	return t, nil
}

// Close stops both listeners and releases the MIDI driver.
func (t *Transport) Close() {
	if t.stopControl != nil {
		t.stopControl()
	}
	if t.stopClock != nil {
		t.stopClock()
	}
	midi.CloseDriver()
}

// handleClock runs on gomidi's own listener goroutine for the clock port.
// It must not touch the Engine; it only hands the status byte off to
// whoever calls DrainClock, dropping and logging once on overflow - the
// same soft-error policy as the LED request queue.
func (t *Transport) handleClock(msg midi.Message, _ int32) {
	raw := []byte(msg)
	if len(raw) == 0 {
		return
	}

	select {
	case t.clockCh <- raw[0]:
	default:
		t.logger.Printf("midiio: clock event queue full, dropping pulse")
	}
}

// handleControl runs on gomidi's own listener goroutine for the control
// surface port. It must not touch the Engine; it only hands the
// fingerprint off to whoever calls DrainControl.
func (t *Transport) handleControl(msg midi.Message, _ int32) {
	raw := []byte(msg)
	if len(raw) < 2 {
		return
	}
	fp := boocfg.ControlFingerprint{raw[0], raw[1]}

	select {
	case t.controlCh <- fp:
	default:
		t.logger.Printf("midiio: control event queue full, dropping event")
	}
}

// DrainControl dispatches every control-surface event enqueued since the
// last call. Must be called only from the realtime audio callback, before
// DrainClock.
func (t *Transport) DrainControl() {
	for {
		select {
		case fp := <-t.controlCh:
			t.dispatchControl(fp)
		default:
			return
		}
	}
}

func (t *Transport) dispatchControl(fp boocfg.ControlFingerprint) {
	for i, tb := range t.bindings.Tracks {
		for fn, cfp := range tb.Controls {
			if cfp == fp {
				t.dispatchTrackFunction(i, fn)
			}
		}
	}

	for row, rb := range t.bindings.Bars {
		for col := 0; col < 8; col++ {
			if rb.HasCtrl[col] && rb.Controls[col] == fp {
				t.eng.PressBar(row, col)
			}
		}
	}
}

func (t *Transport) dispatchTrackFunction(i int, fn engine.Function) {
	switch fn {
	case engine.FuncTimesign:
		t.eng.PressTimesign()
	case engine.FuncLoad:
		t.eng.PressLoad()
	case engine.FuncSave:
		t.eng.PressSave()
	case engine.FuncPlay:
		t.eng.PressPlay(i)
	case engine.FuncRecord:
		t.eng.PressRecord(i)
	case engine.FuncMute:
		t.eng.PressMute(i)
	case engine.FuncSolo:
		t.eng.PressSolo(i)
	case engine.FuncVolUp:
		t.eng.PressVolUp(i)
	case engine.FuncVolDown:
		t.eng.PressVolDown(i)
	case engine.FuncMode:
		t.eng.PressMode(i)
	case engine.FuncDelete:
		t.eng.PressDelete(i)
	}
}

// DrainClock dispatches every MIDI Clock/Play pulse enqueued since the last
// call, advancing BBT and promoting pending track transitions. nframes is
// this cycle's frame count, used to stamp a just-finished recording's end
// cursor. Must be called only from the realtime audio callback, after
// DrainControl and before the engine mixes audio.
func (t *Transport) DrainClock(nframes int) {
	for {
		select {
		case status := <-t.clockCh:
			switch status {
			case statusMIDIPlay:
				t.eng.ClockPlay()
			case statusMIDIClock:
				t.eng.ClockTick(nframes)
			}
		default:
			return
		}
	}
}

// FlushLEDs drains the engine's pending LED requests and sends the
// corresponding MIDI-out messages. Called once per audio cycle after the
// engine has mixed audio, and also by the host's LOAD/SAVE poll loop after
// it mutates the engine directly off the audio thread.
func (t *Transport) FlushLEDs() {
	t.eng.LEDs.Drain(func(req engine.LEDRequest) {
		raw, ok := t.resolveLED(req)
		if !ok {
			return
		}
		if err := t.send(midi.Message(raw[:])); err != nil {
			t.logger.Printf("midiio: send led: %v", err)
		}
	})

	if n := t.eng.LEDs.Dropped; n > 0 {
		t.logger.Printf("midiio: LED queue full, dropped %d request(s)", n)
		t.eng.LEDs.Dropped = 0
	}
}

func (t *Transport) resolveLED(req engine.LEDRequest) (boocfg.LEDMessage, bool) {
	var msg boocfg.LEDMessage
	var ok bool

	if req.Dest == engine.DestTrack {
		if req.Row < 0 || req.Row >= len(t.bindings.Tracks) {
			return boocfg.LEDMessage{}, false
		}
		msg, ok = t.bindings.Tracks[req.Row].LEDs[engine.Function(req.Fn)][req.State]
	} else {
		if req.Row < 0 || req.Row >= len(t.bindings.Bars) {
			return boocfg.LEDMessage{}, false
		}
		col := req.Fn
		if col < 0 || col >= 8 {
			return boocfg.LEDMessage{}, false
		}
		rb := t.bindings.Bars[req.Row]
		if !rb.HasLED[col] {
			return boocfg.LEDMessage{}, false
		}
		if req.State == engine.StatusOn {
			msg, ok = rb.LEDOn[col], true
		} else {
			msg, ok = rb.LEDOff[col], true
		}
	}

	// A zero-filled entry means "no light defined" for this state.
	if msg == (boocfg.LEDMessage{}) {
		return boocfg.LEDMessage{}, false
	}
	return msg, ok
}
