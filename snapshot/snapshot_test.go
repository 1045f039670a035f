package snapshot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chriskillpack/boocli/engine"
)

// recordFrames pushes one cycle of n input frames through eng so track tr
// captures them, then closes the recording with the end cursor at exactly n.
func recordFrames(eng *engine.Engine, tr *engine.Track, n int, fill float32) {
	tr.BeginRecord(1, 0)

	in := [2][]float32{make([]float32, n), make([]float32, n)}
	out := [2][]float32{make([]float32, n), make([]float32, n)}
	for i := 0; i < n; i++ {
		in[0][i] = fill
		in[1][i] = -fill
	}
	eng.Process(engine.AudioCycle{Input: in, Output: out})

	tr.EndRecord(1, 0)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := engine.NewEngine(2, 256, 1, 96)
	recordFrames(src, src.Tracks[0], 64, 0.25)
	src.Tracks[0].Volume = 0.4
	src.BBT.CycleSignature() // timesign index 1

	var buf bytes.Buffer
	if err := Save(&buf, src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := engine.NewEngine(2, 256, 1, 96)
	if err := Load(&buf, dst); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if dst.BBT.SignatureIndex() != 1 {
		t.Errorf("expected timesign index 1 restored, got %d", dst.BBT.SignatureIndex())
	}

	srcL, srcR := src.Tracks[0].EndSamples()
	dstL, dstR := dst.Tracks[0].EndSamples()
	if len(dstL) != len(srcL) || len(dstR) != len(srcR) {
		t.Fatalf("expected restored sample lengths %d/%d, got %d/%d", len(srcL), len(srcR), len(dstL), len(dstR))
	}
	for i := range srcL {
		if dstL[i] != srcL[i] || dstR[i] != srcR[i] {
			t.Fatalf("sample %d: expected %v/%v, got %v/%v", i, srcL[i], srcR[i], dstL[i], dstR[i])
		}
	}

	// Volume comes back at the post-load reset value, not the saved one.
	if dst.Tracks[0].Volume != 1.0 {
		t.Errorf("expected volume reset to 1.0 on load, got %v", dst.Tracks[0].Volume)
	}
	if dst.Tracks[0].Status(engine.FuncPlay) != engine.StatusOff {
		t.Errorf("expected every pad OFF after load, got PLAY=%s", dst.Tracks[0].Status(engine.FuncPlay))
	}
}

func TestLoadSkipsEmptyFileTracks(t *testing.T) {
	src := engine.NewEngine(1, 256, 1, 96) // nothing recorded

	var buf bytes.Buffer
	if err := Save(&buf, src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := engine.NewEngine(1, 256, 1, 96)
	recordFrames(dst, dst.Tracks[0], 32, 0.5)

	if err := Load(&buf, dst); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !dst.Tracks[0].HasRecording() {
		t.Error("expected an empty file track to leave the in-memory recording untouched")
	}
	l, _ := dst.Tracks[0].EndSamples()
	if len(l) != 32 || l[0] != 0.5 {
		t.Errorf("expected the in-memory samples to survive, got len=%d first=%v", len(l), l[0])
	}
}

func TestLoadClampsTrackCountToEngine(t *testing.T) {
	src := engine.NewEngine(3, 256, 1, 96)
	recordFrames(src, src.Tracks[0], 16, 0.1)

	var buf bytes.Buffer
	if err := Save(&buf, src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := engine.NewEngine(1, 256, 1, 96)
	if err := Load(&buf, dst); err != nil {
		t.Fatalf("Load into a smaller engine: %v", err)
	}
	if !dst.Tracks[0].HasRecording() {
		t.Error("expected track 0 restored despite the clamp")
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := make([]byte, 16)
	copy(data, "NOPE")

	eng := engine.NewEngine(1, 64, 1, 96)
	err := Load(bytes.NewReader(data), eng)
	if !errors.Is(err, ErrSnapshotMagic) {
		t.Errorf("expected ErrSnapshotMagic, got %v", err)
	}
}

func TestLoadRejectsZeroTrackCount(t *testing.T) {
	src := engine.NewEngine(1, 64, 1, 96)
	data, err := Bytes(src)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	// Header layout: magic(4) version(4) numTracks(4) ... little-endian.
	data[8], data[9], data[10], data[11] = 0, 0, 0, 0

	eng := engine.NewEngine(1, 64, 1, 96)
	err = Load(bytes.NewReader(data), eng)
	if !errors.Is(err, ErrSnapshotTrackCount) {
		t.Errorf("expected ErrSnapshotTrackCount, got %v", err)
	}
}

func TestSaveIsReadableWhileEngineKeepsRunning(t *testing.T) {
	src := engine.NewEngine(1, 256, 1, 96)
	recordFrames(src, src.Tracks[0], 16, 0.3)

	data, err := Bytes(src)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	// Mutating the live engine after the clone-backed save must not change
	// the serialized bytes.
	src.Tracks[0].Clear()

	dst := engine.NewEngine(1, 256, 1, 96)
	if err := Load(bytes.NewReader(data), dst); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !dst.Tracks[0].HasRecording() {
		t.Error("expected the snapshot taken before Clear to restore the recording")
	}
}
