package boocfg

import (
	"log"
	"strconv"

	"github.com/chriskillpack/boocli/engine"
)

// ControlFingerprint is a 2-byte [status, data1] MIDI match key for one
// control-surface button.
type ControlFingerprint [2]byte

// LEDMessage is a literal 3-byte MIDI message ([status, data1, data2])
// sent to drive one pad into one visual state.
type LEDMessage [3]byte

// TrackBindings resolves one track's function-to-MIDI bindings: the
// fingerprint that identifies an incoming button press, and the LED
// message to send for each of the four visual states.
type TrackBindings struct {
	Controls map[engine.Function]ControlFingerprint
	LEDs     map[engine.Function]map[engine.Status]LEDMessage
}

// BarRowBindings resolves one bar-selector row's 8 button bindings and LED
// messages. Only ON and OFF are meaningful states for bar-selector pads.
type BarRowBindings struct {
	Controls [8]ControlFingerprint
	HasCtrl  [8]bool
	LEDOn    [8]LEDMessage
	LEDOff   [8]LEDMessage
	HasLED   [8]bool
}

// Bindings is the fully resolved, engine-ready form of a Document:
// malformed entries have already been logged and dropped.
type Bindings struct {
	Tracks []TrackBindings
	Bars   []BarRowBindings
}

var trackFunctions = []struct {
	fn  engine.Function
	get func(FunctionBinding) []int
}{
	{engine.FuncTimesign, func(f FunctionBinding) []int { return f.Time }},
	{engine.FuncLoad, func(f FunctionBinding) []int { return f.Load }},
	{engine.FuncSave, func(f FunctionBinding) []int { return f.Save }},
	{engine.FuncPlay, func(f FunctionBinding) []int { return f.Play }},
	{engine.FuncRecord, func(f FunctionBinding) []int { return f.Record }},
	{engine.FuncMute, func(f FunctionBinding) []int { return f.Mute }},
	{engine.FuncSolo, func(f FunctionBinding) []int { return f.Solo }},
	{engine.FuncVolUp, func(f FunctionBinding) []int { return f.VolUp }},
	{engine.FuncVolDown, func(f FunctionBinding) []int { return f.VolDown }},
	{engine.FuncMode, func(f FunctionBinding) []int { return f.Mode }},
	{engine.FuncDelete, func(f FunctionBinding) []int { return f.Delete }},
}

var ledFunctions = []struct {
	fn  engine.Function
	get func(FunctionLED) []int
}{
	{engine.FuncTimesign, func(f FunctionLED) []int { return f.Time }},
	{engine.FuncLoad, func(f FunctionLED) []int { return f.Load }},
	{engine.FuncSave, func(f FunctionLED) []int { return f.Save }},
	{engine.FuncPlay, func(f FunctionLED) []int { return f.Play }},
	{engine.FuncRecord, func(f FunctionLED) []int { return f.Record }},
	{engine.FuncMute, func(f FunctionLED) []int { return f.Mute }},
	{engine.FuncSolo, func(f FunctionLED) []int { return f.Solo }},
	{engine.FuncVolUp, func(f FunctionLED) []int { return f.VolUp }},
	{engine.FuncVolDown, func(f FunctionLED) []int { return f.VolDown }},
	{engine.FuncMode, func(f FunctionLED) []int { return f.Mode }},
	{engine.FuncDelete, func(f FunctionLED) []int { return f.Delete }},
}

var barColumns = []func(BarRowBinding) []int{
	func(b BarRowBinding) []int { return b.Bar1 },
	func(b BarRowBinding) []int { return b.Bar2 },
	func(b BarRowBinding) []int { return b.Bar3 },
	func(b BarRowBinding) []int { return b.Bar4 },
	func(b BarRowBinding) []int { return b.Bar5 },
	func(b BarRowBinding) []int { return b.Bar6 },
	func(b BarRowBinding) []int { return b.Bar7 },
	func(b BarRowBinding) []int { return b.Bar8 },
}

var barLEDColumns = []func(BarRowLED) []int{
	func(b BarRowLED) []int { return b.Bar1 },
	func(b BarRowLED) []int { return b.Bar2 },
	func(b BarRowLED) []int { return b.Bar3 },
	func(b BarRowLED) []int { return b.Bar4 },
	func(b BarRowLED) []int { return b.Bar5 },
	func(b BarRowLED) []int { return b.Bar6 },
	func(b BarRowLED) []int { return b.Bar7 },
	func(b BarRowLED) []int { return b.Bar8 },
}

// Resolve builds the runtime Bindings from doc, clamping the track and bar
// row counts to maxTracks/numBarRows and skipping (with a logged warning)
// any entry of the wrong arity.
func Resolve(logger *log.Logger, doc *Document, maxTracks, numBarRows int) *Bindings {
	b := &Bindings{
		Tracks: make([]TrackBindings, maxTracks),
		Bars:   make([]BarRowBindings, numBarRows),
	}

	for i := range b.Tracks {
		b.Tracks[i] = TrackBindings{
			Controls: make(map[engine.Function]ControlFingerprint),
			LEDs:     make(map[engine.Function]map[engine.Status]LEDMessage),
		}
	}

	tracks := doc.Controls.Tracks
	if len(tracks) > maxTracks {
		tracks = tracks[:maxTracks]
	}
	for i, fb := range tracks {
		for _, tf := range trackFunctions {
			if ok, b0, b1 := trigger2(logger, fmt2(i, tf.fn), tf.get(fb)); ok {
				b.Tracks[i].Controls[tf.fn] = ControlFingerprint{b0, b1}
			}
		}
	}

	resolveLEDState := func(list []FunctionLED, state engine.Status) {
		if len(list) > maxTracks {
			list = list[:maxTracks]
		}
		for i, fl := range list {
			for _, lf := range ledFunctions {
				if ok, b0, b1, b2 := trigger3(logger, fmt3(i, lf.fn, state), lf.get(fl)); ok {
					b.Tracks[i].LEDs[lf.fn][state] = LEDMessage{b0, b1, b2}
				}
			}
		}
	}
	for i := range b.Tracks {
		for _, tf := range trackFunctions {
			b.Tracks[i].LEDs[tf.fn] = make(map[engine.Status]LEDMessage)
		}
	}
	resolveLEDState(doc.Controls.LedOn, engine.StatusOn)
	resolveLEDState(doc.Controls.LedPendingOn, engine.StatusPendingOn)
	resolveLEDState(doc.Controls.LedPendingOff, engine.StatusPendingOff)
	resolveLEDState(doc.Controls.LedOff, engine.StatusOff)

	rows := doc.Bars.Rows
	if len(rows) > numBarRows {
		rows = rows[:numBarRows]
	}
	for i, row := range rows {
		for col, get := range barColumns {
			if ok, b0, b1 := trigger2(logger, fmt2Bar(i, col), get(row)); ok {
				b.Bars[i].Controls[col] = ControlFingerprint{b0, b1}
				b.Bars[i].HasCtrl[col] = true
			}
		}
	}

	ledOnRows := doc.Bars.LedOn
	if len(ledOnRows) > numBarRows {
		ledOnRows = ledOnRows[:numBarRows]
	}
	for i, row := range ledOnRows {
		for col, get := range barLEDColumns {
			if ok, b0, b1, b2 := trigger3(logger, fmt3Bar(i, col, engine.StatusOn), get(row)); ok {
				b.Bars[i].LEDOn[col] = LEDMessage{b0, b1, b2}
				b.Bars[i].HasLED[col] = true
			}
		}
	}
	ledOffRows := doc.Bars.LedOff
	if len(ledOffRows) > numBarRows {
		ledOffRows = ledOffRows[:numBarRows]
	}
	for i, row := range ledOffRows {
		for col, get := range barLEDColumns {
			if ok, b0, b1, b2 := trigger3(logger, fmt3Bar(i, col, engine.StatusOff), get(row)); ok {
				b.Bars[i].LEDOff[col] = LEDMessage{b0, b1, b2}
			}
		}
	}

	return b
}

func fmt2(track int, fn engine.Function) string {
	return "controls.tracks[" + strconv.Itoa(track) + "]." + fn.String()
}

func fmt3(track int, fn engine.Function, st engine.Status) string {
	return "controls.led[" + strconv.Itoa(track) + "]." + fn.String() + "/" + st.String()
}

func fmt2Bar(row, col int) string {
	return "bars.rows[" + strconv.Itoa(row) + "].bar" + strconv.Itoa(col+1)
}

func fmt3Bar(row, col int, st engine.Status) string {
	return "bars.led[" + strconv.Itoa(row) + "].bar" + strconv.Itoa(col+1) + "/" + st.String()
}
