package engine

import "sync/atomic"

// ledOffFunctions lists every per-track pad turned off by a DELETE clear.
// TIMESIGN, LOAD and SAVE are global pads, not per-track ones.
var ledOffFunctions = [...]Function{
	FuncPlay, FuncRecord, FuncMute, FuncSolo,
	FuncVolUp, FuncVolDown, FuncMode, FuncDelete,
}

// Engine composes the timing, track, bar-selector and LED-request state
// into the single realtime object a host drives once per audio cycle and
// once per incoming MIDI event.
type Engine struct {
	BBT    *BBT
	Tracks []*Track
	Bars   *BarSelector
	LEDs   *LEDQueue

	// NumberOfBars is the length (in bars) encoded by the bar selector; 0
	// means "record until stopped".
	NumberOfBars int

	// SeamSamples configures the loop-wrap crossfade width (see
	// DefaultSeamSamples).
	SeamSamples int

	// LoadRequested/SaveRequested flag LOAD/SAVE pad presses: disk I/O
	// cannot happen on the realtime MIDI/audio thread, so a press only
	// raises a flag here for the host's control loop to poll and act on.
	// atomic.Bool gives the cross-thread handshake acquire/release
	// ordering.
	LoadRequested atomic.Bool
	SaveRequested atomic.Bool
}

// NewEngine allocates an Engine with numTracks tracks of trackCapacity
// samples each, numBarRows bar-selector rows, and a BBT clocked at
// clockPPBar pulses per bar.
func NewEngine(numTracks, trackCapacity, numBarRows, clockPPBar int) *Engine {
	tracks := make([]*Track, numTracks)
	for i := range tracks {
		tracks[i] = NewTrack(i, trackCapacity)
	}
	return &Engine{
		BBT:         NewBBT(clockPPBar),
		Tracks:      tracks,
		Bars:        NewBarSelector(numBarRows),
		LEDs:        NewLEDQueue(numTracks, numBarRows),
		SeamSamples: DefaultSeamSamples,
	}
}

// Process runs one realtime audio cycle: mixing, playback and recording for
// every track. Call once per audio callback, after any MIDI-in/clock
// handling for the cycle and before draining LEDs.
func (e *Engine) Process(cycle AudioCycle) {
	ProcessAudio(e.Tracks, cycle, e.BBT.Bar, e.BBT.IsBarEdge(), e.SeamSamples)
}

// PressTimesign handles a TIMESIGN pad press: the next Clock pulse starts a
// fresh bar under the next time signature. No LED request is emitted here -
// the forced new bar will light the TIMESIGN pad via the next ClockTick.
func (e *Engine) PressTimesign() {
	e.BBT.CycleSignature()
}

// PressPlay handles a PLAY pad press for track i.
func (e *Engine) PressPlay(i int) {
	t := e.Tracks[i]
	t.PressPlay()
	e.LEDs.Request(DestTrack, i, int(FuncPlay), t.status[FuncPlay])
}

// PressRecord handles a RECORD pad press for track i.
func (e *Engine) PressRecord(i int) {
	t := e.Tracks[i]
	t.PressRecord()
	e.LEDs.Request(DestTrack, i, int(FuncRecord), t.status[FuncRecord])
}

// PressMute handles a MUTE pad press for track i.
func (e *Engine) PressMute(i int) {
	t := e.Tracks[i]
	t.PressMute()
	e.LEDs.Request(DestTrack, i, int(FuncMute), t.status[FuncMute])
}

// PressSolo handles a SOLO pad press for track i, clearing SOLO on every
// other track if this press turned SOLO on.
func (e *Engine) PressSolo(i int) {
	t := e.Tracks[i]
	t.PressSolo()
	e.LEDs.Request(DestTrack, i, int(FuncSolo), t.status[FuncSolo])

	if t.status[FuncSolo] == StatusOn {
		for j, other := range e.Tracks {
			if j == i {
				continue
			}
			other.forceSoloOff()
			e.LEDs.Request(DestTrack, j, int(FuncSolo), StatusOff)
		}
	}
}

// PressVolDown handles a VOLDOWN pad press for track i.
func (e *Engine) PressVolDown(i int) {
	t := e.Tracks[i]
	e.LEDs.Request(DestTrack, i, int(FuncVolDown), StatusPendingOn)
	e.LEDs.Request(DestTrack, i, int(FuncVolUp), StatusOff)

	if atMin := t.PressVolDown(); atMin {
		e.LEDs.Request(DestTrack, i, int(FuncVolDown), StatusOn)
	} else {
		e.LEDs.Request(DestTrack, i, int(FuncVolDown), StatusOff)
	}
}

// PressVolUp handles a VOLUP pad press for track i.
func (e *Engine) PressVolUp(i int) {
	t := e.Tracks[i]
	e.LEDs.Request(DestTrack, i, int(FuncVolUp), StatusPendingOn)
	e.LEDs.Request(DestTrack, i, int(FuncVolDown), StatusOff)

	if res := t.PressVolUp(); res.AtMax {
		e.LEDs.Request(DestTrack, i, int(FuncVolUp), StatusOn)
	} else {
		e.LEDs.Request(DestTrack, i, int(FuncVolUp), StatusOff)
	}
}

// PressMode handles a MODE pad press for track i.
func (e *Engine) PressMode(i int) {
	t := e.Tracks[i]
	t.PressMode()
	e.LEDs.Request(DestTrack, i, int(FuncMode), t.status[FuncMode])
}

// PressDelete handles a DELETE pad press for track i.
func (e *Engine) PressDelete(i int) {
	t := e.Tracks[i]
	t.PressDelete()
	e.LEDs.Request(DestTrack, i, int(FuncDelete), t.status[FuncDelete])
}

// PressLoad handles a LOAD pad press (the LOAD pad is global, bound on
// track 0). The actual file read happens off the realtime thread;
// ApplyLoadReset finishes the job once the host has done it.
func (e *Engine) PressLoad() {
	e.LoadRequested.Store(true)
	e.LEDs.Request(DestTrack, 0, int(FuncLoad), StatusOn)
}

// PressSave handles a SAVE pad press (track 0 only).
func (e *Engine) PressSave() {
	e.SaveRequested.Store(true)
	e.LEDs.Request(DestTrack, 0, int(FuncSave), StatusOn)
}

// ApplyLoadReset clears LoadRequested and gives every track a fresh start:
// every pad back to OFF, volume back to 1.0, VOLUP lit to reflect it.
// Cursors, end markers and samples are left exactly as the load just set
// them.
func (e *Engine) ApplyLoadReset() {
	e.LoadRequested.Store(false)
	for i, t := range e.Tracks {
		t.ResetStatus()
		t.Volume = 1.0
		for _, fn := range ledOffFunctions {
			e.LEDs.Request(DestTrack, i, int(fn), StatusOff)
		}
		e.LEDs.Request(DestTrack, i, int(FuncVolUp), StatusOn)
	}
	e.LEDs.Request(DestTrack, 0, int(FuncLoad), StatusOff)
}

// AckSave clears SaveRequested once the host has written the file.
func (e *Engine) AckSave() {
	e.SaveRequested.Store(false)
	e.LEDs.Request(DestTrack, 0, int(FuncSave), StatusOff)
}

// PressBar handles a bar-selector pad press at (row, col).
func (e *Engine) PressBar(row, col int) {
	updates := e.Bars.Press(row, col)
	e.NumberOfBars = e.Bars.NumberOfBars()
	for _, u := range updates {
		e.LEDs.Request(DestBar, u.row, u.col, u.state)
	}
}

// ClockPlay handles an incoming MIDI Play (0xFA) message: the next Clock
// pulse starts a new bar.
func (e *Engine) ClockPlay() {
	e.BBT.Play()
}

// ClockTick consumes one MIDI Clock (0xF8) pulse: advances BBT, lights the
// TIMESIGN pad accordingly, and runs every track's pending-action
// promotion logic. nframes is the audio cycle size in frames, used to
// stamp a just-finished recording's end cursor.
func (e *Engine) ClockTick(nframes int) {
	timesignStatus := e.BBT.TimeProgress()
	e.LEDs.Request(DestTrack, 0, int(FuncTimesign), timesignStatus)

	barEdge := e.BBT.IsBarEdge()
	bar := e.BBT.Bar

	for i, t := range e.Tracks {
		// Automatically PLAY after recording, free mode: evaluated every
		// tick, ahead of the pending-action gate below.
		if t.FreeMode() && t.status[FuncRecord] == StatusPendingOff {
			t.status[FuncPlay] = StatusPendingOn
		}

		if class := t.pendingActionClass(barEdge); class != pendingNone {
			e.processPendingRecord(i, t, class, bar, nframes)
			e.processPendingPlay(i, t, bar)
			e.processPendingDelete(i, t)
		}

		// Automatically PLAY after recording, bar mode: evaluated every
		// tick regardless of the gate above, since a bar-mode track only
		// promotes on a bar edge and this scheduling must be visible on
		// any tick.
		if !t.FreeMode() && t.status[FuncRecord] == StatusPendingOff {
			t.status[FuncPlay] = StatusPendingOn
			e.LEDs.Request(DestTrack, i, int(FuncPlay), StatusPendingOn)
		}
	}
}

func (e *Engine) processPendingRecord(i int, t *Track, class pendingClass, bar, nframes int) {
	if t.status[FuncRecord] == StatusPendingOn {
		t.BeginRecord(bar, e.NumberOfBars)
		e.LEDs.Request(DestTrack, i, int(FuncRecord), StatusOn)
	}
	if t.status[FuncRecord] == StatusPendingOff {
		t.EndRecord(bar, nframes)
		e.LEDs.Request(DestTrack, i, int(FuncRecord), StatusOff)
	}

	if class == pendingBarEdge && t.status[FuncRecord] == StatusOn && t.RecordDue(bar) {
		t.status[FuncRecord] = NextStatus4(t.status[FuncRecord])
		e.LEDs.Request(DestTrack, i, int(FuncRecord), t.status[FuncRecord])
	}
}

func (e *Engine) processPendingPlay(i int, t *Track, bar int) {
	if t.status[FuncPlay] == StatusPendingOn {
		t.BeginPlay(bar)
		e.LEDs.Request(DestTrack, i, int(FuncPlay), StatusOn)
	}
	if t.status[FuncPlay] == StatusPendingOff {
		t.EndPlay()
		e.LEDs.Request(DestTrack, i, int(FuncPlay), StatusOff)
	}
}

func (e *Engine) processPendingDelete(i int, t *Track) {
	if t.status[FuncDelete] != StatusPendingOn {
		return
	}
	t.Clear()
	for _, fn := range ledOffFunctions {
		e.LEDs.Request(DestTrack, i, int(fn), StatusOff)
	}
	e.LEDs.Request(DestTrack, i, int(FuncVolUp), StatusOn)
}
