package engine

// AudioCycle carries the per-channel input/output sample slices for one
// realtime audio callback invocation. Both input and output hold exactly
// one slice per channel (left, right); each channel slice has length N,
// the number of frames in this cycle.
type AudioCycle struct {
	Input  [numChannels][]float32
	Output [numChannels][]float32
}

// anySolo reports whether any track other than skip has SOLO=ON.
func anySolo(tracks []*Track, skip int) bool {
	for i, t := range tracks {
		if i != skip && t.status[FuncSolo] == StatusOn {
			return true
		}
	}
	return false
}

// ProcessAudio mixes live input into output, plays back looping tracks
// with seam smoothing, captures recordings, and clamps the final output.
// It allocates nothing.
//
// bar is the current BBT bar; barEdge reports whether this cycle landed on
// the bar-mode quantisation edge (used only to decide whether a playing
// track should check for loop-wrap against its recorded bar length).
func ProcessAudio(tracks []*Track, cycle AudioCycle, bar int, barEdge bool, seamSamples int) {
	for c := 0; c < numChannels; c++ {
		in, out := cycle.Input[c], cycle.Output[c]
		copy(out, in)

		for ti, t := range tracks {
			st := t.status[FuncPlay]
			if st != StatusOn && st != StatusPendingOff {
				continue
			}

			muted := t.Muted(anySolo(tracks, ti))
			playTrack(t, c, out, bar, barEdge, muted, seamSamples)
		}

		for _, t := range tracks {
			st := t.status[FuncRecord]
			if st != StatusOn && st != StatusPendingOff {
				continue
			}
			recordTrack(t, c, in)
		}

		clampOutput(out)
	}
}

func playTrack(t *Track, c int, out []float32, bar int, barEdge bool, muted bool, seamSamples int) {
	ch, buf := t.channel(c)
	n := len(out)

	if barEdge && !t.FreeMode() {
		if (bar - ch.playBar) >= (ch.endBar - ch.recordBar) {
			ch.playCursor = 0
			ch.playBar = bar
		}
	}

	var sample float32
	for k := 0; k < n; k++ {
		idx := ch.playCursor + k
		if idx >= len(buf) {
			break
		}
		sample = buf[idx]

		if ch.playCursor == 0 && k <= seamSamples && seamSamples > 0 {
			target := buf[ch.playCursor+seamSamples]
			frac := float32(k) / float32(seamSamples)
			sample = ch.lastSample + (target-ch.lastSample)*frac
		}

		if !muted {
			out[k] += sample * t.Volume
		}
	}
	ch.lastSample = sample

	ch.playCursor += n
	if ch.playCursor >= t.capacity || ch.playCursor >= ch.endCursor {
		ch.playCursor = 0
	}
}

func recordTrack(t *Track, c int, in []float32) {
	ch, buf := t.channel(c)
	n := len(in)

	// Wrap before computing the write range, not after: the buffer carries
	// no slack past capacity, so a cursor left sitting past the end by a
	// prior cycle's remainder would otherwise make end < recordCursor below.
	if ch.recordCursor >= t.capacity {
		ch.recordCursor = 0
	}

	end := ch.recordCursor + n
	if end > len(buf) {
		end = len(buf)
	}
	copy(buf[ch.recordCursor:end], in[:end-ch.recordCursor])

	ch.recordCursor += n
}

func clampOutput(out []float32) {
	for i, v := range out {
		if v > 1.0 {
			out[i] = 1.0
		} else if v < -1.0 {
			out[i] = -1.0
		}
	}
}
