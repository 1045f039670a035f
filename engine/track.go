package engine

// channelState holds the per-channel (left/right) cursors and bar-origin
// bookkeeping that Track needs in duplicate for stereo.
type channelState struct {
	recordCursor int
	recordBar    int

	playCursor int
	playBar    int

	endCursor int
	endBar    int

	lastSample float32
}

// Track owns one stereo loop buffer pair plus its control state.
type Track struct {
	Index int

	left, right []float32

	status [numTrackFunctions]Status

	channels [numChannels]channelState

	// Volume is quantised to 0.1 steps in [0.0, 1.0].
	Volume float32

	// RecordBars is the requested record length in bars (0 = "until
	// stopped").
	RecordBars int

	capacity int
}

// NewTrack allocates a track with audio buffers sized for capacity samples
// per channel (left and right), initialised to the reset state.
func NewTrack(index, capacity int) *Track {
	t := &Track{
		Index:    index,
		left:     make([]float32, capacity),
		right:    make([]float32, capacity),
		capacity: capacity,
	}
	t.Volume = 1.0
	return t
}

// Status returns the current status of function f.
func (t *Track) Status(f Function) Status {
	return t.status[f]
}

// channel returns the channel state for c (0=left, 1=right) and its backing
// buffer.
func (t *Track) channel(c int) (*channelState, []float32) {
	if c == 0 {
		return &t.channels[0], t.left
	}
	return &t.channels[1], t.right
}

// HasRecording reports whether either channel holds recorded audio.
func (t *Track) HasRecording() bool {
	return t.channels[0].endCursor != 0 || t.channels[1].endCursor != 0
}

// PressPlay applies a PLAY button press. If the track holds no recording
// the press is forced to OFF instead of advancing the automaton.
func (t *Track) PressPlay() {
	if !t.HasRecording() {
		t.status[FuncPlay] = StatusOff
		return
	}
	t.status[FuncPlay] = NextStatus4(t.status[FuncPlay])
}

// PressRecord applies a RECORD button press.
func (t *Track) PressRecord() {
	t.status[FuncRecord] = NextStatus4(t.status[FuncRecord])
}

// PressDelete applies a DELETE button press.
func (t *Track) PressDelete() {
	t.status[FuncDelete] = NextStatus4(t.status[FuncDelete])
}

// PressMute applies a MUTE button press.
func (t *Track) PressMute() {
	t.status[FuncMute] = NextStatus2(t.status[FuncMute])
}

// PressMode applies a MODE button press.
func (t *Track) PressMode() {
	t.status[FuncMode] = NextStatus2(t.status[FuncMode])
}

// FreeMode reports whether the track is currently in free (MODE=ON) mode.
func (t *Track) FreeMode() bool {
	return t.status[FuncMode] == StatusOn
}

// PressSolo applies a SOLO button press to this track. The caller is
// responsible for clearing SOLO on every other track and emitting the
// corresponding LED updates (the single-solo invariant is enforced at the
// Engine level because it spans tracks).
func (t *Track) PressSolo() {
	t.status[FuncSolo] = NextStatus2(t.status[FuncSolo])
}

func (t *Track) forceSoloOff() bool {
	changed := t.status[FuncSolo] != StatusOff
	t.status[FuncSolo] = StatusOff
	return changed
}

// volStep is the step size for volume up/down presses.
const volStep = float32(0.1)

// VolUpResult describes the LED side effects of a VOLUP press.
type VolUpResult struct {
	AtMax bool // volume is now at the 1.0 rail
}

// PressVolUp raises volume by one step, clamped to 1.0.
func (t *Track) PressVolUp() VolUpResult {
	if t.Volume < 0.9-1e-6 {
		t.Volume += volStep
		return VolUpResult{AtMax: false}
	}
	t.Volume = 1.0
	return VolUpResult{AtMax: true}
}

// PressVolDown lowers volume by one step, clamped to 0.0.
func (t *Track) PressVolDown() (atMin bool) {
	if t.Volume > 0.1+1e-6 {
		t.Volume -= volStep
		return false
	}
	t.Volume = 0.0
	return true
}

// Muted reports whether t should be silenced for mixing purposes given
// whether any other track currently has SOLO=ON.
func (t *Track) Muted(anyOtherSolo bool) bool {
	return t.status[FuncMute] == StatusOn || anyOtherSolo
}

// pendingActionClass reports the quantisation class for this track:
// whether pending promotions should fire this tick, and why. Bar mode only
// promotes on a bar edge; free mode promotes on every tick.
func (t *Track) pendingActionClass(barEdge bool) pendingClass {
	if t.FreeMode() {
		return pendingFree
	}
	if barEdge {
		return pendingBarEdge
	}
	return pendingNone
}

type pendingClass int

const (
	pendingNone pendingClass = iota
	pendingBarEdge
	pendingFree
)

// BeginRecord arms both channels for a fresh recording starting at bar,
// remembering how many bars were requested (0 = record until stopped).
func (t *Track) BeginRecord(bar, recordBars int) {
	for c := range t.channels {
		t.channels[c].recordCursor = 0
		t.channels[c].recordBar = bar
	}
	t.RecordBars = recordBars
	t.status[FuncRecord] = StatusOn
}

// EndRecord closes out a recording: the end cursor/bar are stamped from
// wherever the record cursor currently sits, plus the frames already
// captured this cycle (nframes), matching the callback's end-of-cycle
// bookkeeping.
func (t *Track) EndRecord(bar, nframes int) {
	for c := range t.channels {
		t.channels[c].endCursor = t.channels[c].recordCursor + nframes
		t.channels[c].endBar = bar
	}
	t.status[FuncRecord] = StatusOff
}

// RecordDue reports whether a fixed-length (RecordBars != 0) bar-mode
// recording has reached its requested length as of bar.
func (t *Track) RecordDue(bar int) bool {
	if t.RecordBars == 0 {
		return false
	}
	return bar >= t.channels[0].recordBar+t.RecordBars-1
}

// BeginPlay arms both channels to start playback from the top at bar,
// clearing the seam-smoothing history.
func (t *Track) BeginPlay(bar int) {
	for c := range t.channels {
		t.channels[c].playCursor = 0
		t.channels[c].playBar = bar
		t.channels[c].lastSample = 0
	}
	t.status[FuncPlay] = StatusOn
}

// EndPlay completes a pending-off playback promotion.
func (t *Track) EndPlay() {
	t.status[FuncPlay] = StatusOff
}

// TrackSnapshot is the scalar and sample state needed to serialize or
// restore a track, used by the snapshot package.
type TrackSnapshot struct {
	RecordCursorL, RecordCursorR int
	RecordBarL, RecordBarR       int
	PlayCursorL, PlayCursorR     int
	PlayBarL, PlayBarR           int
	EndCursorL, EndCursorR       int
	EndBarL, EndBarR             int

	Volume     float32
	RecordBars int

	Left, Right []float32
}

// Snapshot returns the track's current scalar state (cursors, bars,
// volume, record length), with no sample data attached.
func (t *Track) Snapshot() TrackSnapshot {
	return TrackSnapshot{
		RecordCursorL: t.channels[0].recordCursor, RecordCursorR: t.channels[1].recordCursor,
		RecordBarL: t.channels[0].recordBar, RecordBarR: t.channels[1].recordBar,
		PlayCursorL: t.channels[0].playCursor, PlayCursorR: t.channels[1].playCursor,
		PlayBarL: t.channels[0].playBar, PlayBarR: t.channels[1].playBar,
		EndCursorL: t.channels[0].endCursor, EndCursorR: t.channels[1].endCursor,
		EndBarL: t.channels[0].endBar, EndBarR: t.channels[1].endBar,
		Volume: t.Volume, RecordBars: t.RecordBars,
	}
}

// EndSamples returns the recorded portion (length endCursor) of each
// channel's buffer, for serialization.
func (t *Track) EndSamples() (left, right []float32) {
	return t.left[:t.channels[0].endCursor], t.right[:t.channels[1].endCursor]
}

// ApplySnapshot restores cursor/bar/volume/record-length state from s and
// copies any recorded samples into the track's existing backing arrays,
// preserving their identity rather than replacing the slices. Every
// transient status is reset to OFF.
func (t *Track) ApplySnapshot(s TrackSnapshot) {
	t.channels[0] = channelState{
		recordCursor: s.RecordCursorL, recordBar: s.RecordBarL,
		playCursor: s.PlayCursorL, playBar: s.PlayBarL,
		endCursor: s.EndCursorL, endBar: s.EndBarL,
	}
	t.channels[1] = channelState{
		recordCursor: s.RecordCursorR, recordBar: s.RecordBarR,
		playCursor: s.PlayCursorR, playBar: s.PlayBarR,
		endCursor: s.EndCursorR, endBar: s.EndBarR,
	}
	t.Volume = s.Volume
	t.RecordBars = s.RecordBars
	for f := range t.status {
		t.status[f] = StatusOff
	}

	copyClamped(t.left, s.Left, s.EndCursorL, t.capacity)
	copyClamped(t.right, s.Right, s.EndCursorR, t.capacity)
}

func copyClamped(dst, src []float32, n, capacity int) {
	if n <= 0 || len(src) == 0 {
		return
	}
	if n > capacity {
		n = capacity
	}
	if n > len(src) {
		n = len(src)
	}
	copy(dst[:n], src[:n])
}

// ResetStatus puts every pad back to OFF without touching cursors, bars,
// volume or recorded samples - the narrow reset the host's LOAD poll loop
// applies to every track after a file load completes.
func (t *Track) ResetStatus() {
	for f := range t.status {
		t.status[f] = StatusOff
	}
}

// Clear wipes all transient state back to a freshly-created track's
// defaults. The audio buffers themselves are not zeroed; stale samples
// beyond the new end cursors are never read again.
func (t *Track) Clear() {
	t.channels = [numChannels]channelState{}
	t.Volume = 1.0
	t.RecordBars = 0
	for f := range t.status {
		t.status[f] = StatusOff
	}
}
