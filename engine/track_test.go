package engine

import "testing"

func TestTrackPressPlayForcedOffWithoutRecording(t *testing.T) {
	tr := NewTrack(0, 1024)

	tr.PressPlay()
	if tr.Status(FuncPlay) != StatusOff {
		t.Errorf("expected PLAY to stay OFF on an empty track, got %s", tr.Status(FuncPlay))
	}
}

func TestTrackRecordThenPlayAutomaton(t *testing.T) {
	tr := NewTrack(0, 1024)

	tr.BeginRecord(1, 0)
	if tr.Status(FuncRecord) != StatusOn {
		t.Fatalf("expected RECORD ON after BeginRecord, got %s", tr.Status(FuncRecord))
	}

	tr.EndRecord(2, 64)
	if tr.Status(FuncRecord) != StatusOff {
		t.Fatalf("expected RECORD OFF after EndRecord, got %s", tr.Status(FuncRecord))
	}
	if !tr.HasRecording() {
		t.Fatal("expected HasRecording true once an end cursor is stamped")
	}

	tr.PressPlay()
	if tr.Status(FuncPlay) != StatusPendingOn {
		t.Errorf("expected PLAY to advance to PENDING_ON now that a recording exists, got %s", tr.Status(FuncPlay))
	}
}

func TestTrackNextStatus4Cycle(t *testing.T) {
	tr := NewTrack(0, 1024)
	tr.BeginRecord(1, 0) // puts RECORD at ON directly, bypass the automaton once

	tr.PressRecord() // ON -> PENDING_OFF
	if tr.Status(FuncRecord) != StatusPendingOff {
		t.Errorf("expected PENDING_OFF, got %s", tr.Status(FuncRecord))
	}
	tr.PressRecord() // PENDING_OFF -> PENDING_OFF (sticky until processed)
	if tr.Status(FuncRecord) != StatusPendingOff {
		t.Errorf("expected PENDING_OFF to be sticky, got %s", tr.Status(FuncRecord))
	}
}

func TestTrackMuteSoloModeToggleDirectly(t *testing.T) {
	tr := NewTrack(0, 1024)

	tr.PressMute()
	if tr.Status(FuncMute) != StatusOn {
		t.Fatalf("expected MUTE ON after one press, got %s", tr.Status(FuncMute))
	}
	tr.PressMute()
	if tr.Status(FuncMute) != StatusOff {
		t.Fatalf("expected MUTE OFF after two presses, got %s", tr.Status(FuncMute))
	}

	tr.PressMode()
	if !tr.FreeMode() {
		t.Error("expected FreeMode true after one MODE press")
	}
}

func TestTrackMutedConsidersSolo(t *testing.T) {
	tr := NewTrack(0, 1024)

	if tr.Muted(false) {
		t.Error("expected an untouched track to not be muted")
	}
	if !tr.Muted(true) {
		t.Error("expected a track to be muted when another track has solo on")
	}

	tr.PressMute()
	if !tr.Muted(false) {
		t.Error("expected MUTE=ON to mute regardless of solo state")
	}
}

func TestTrackVolumeRails(t *testing.T) {
	tr := NewTrack(0, 1024)

	for i := 0; i < 20; i++ {
		tr.PressVolUp()
	}
	if tr.Volume != 1.0 {
		t.Errorf("expected volume to rail at 1.0, got %v", tr.Volume)
	}

	for i := 0; i < 20; i++ {
		tr.PressVolDown()
	}
	if tr.Volume != 0.0 {
		t.Errorf("expected volume to rail at 0.0, got %v", tr.Volume)
	}
}

func TestTrackPendingActionClass(t *testing.T) {
	tr := NewTrack(0, 1024)

	if c := tr.pendingActionClass(false); c != pendingNone {
		t.Errorf("bar mode off bar edge: expected pendingNone, got %v", c)
	}
	if c := tr.pendingActionClass(true); c != pendingBarEdge {
		t.Errorf("bar mode on bar edge: expected pendingBarEdge, got %v", c)
	}

	tr.PressMode() // free mode
	if c := tr.pendingActionClass(false); c != pendingFree {
		t.Errorf("free mode off bar edge: expected pendingFree, got %v", c)
	}
}

func TestTrackRecordDue(t *testing.T) {
	tr := NewTrack(0, 1024)
	tr.BeginRecord(5, 0) // record-until-stopped
	if tr.RecordDue(100) {
		t.Error("expected RecordDue false when RecordBars is 0 (record until stopped)")
	}

	tr.BeginRecord(5, 4) // 4-bar fixed-length recording starting at bar 5
	if tr.RecordDue(7) {
		t.Error("expected RecordDue false before the 4th bar")
	}
	if !tr.RecordDue(8) {
		t.Error("expected RecordDue true once bar 8 (5+4-1) is reached")
	}
}

func TestTrackResetStatusKeepsCursorsAndSamples(t *testing.T) {
	tr := NewTrack(0, 1024)
	tr.BeginRecord(1, 0)
	tr.EndRecord(2, 128)
	tr.PressMute()

	tr.ResetStatus()

	if tr.Status(FuncMute) != StatusOff {
		t.Error("expected ResetStatus to clear MUTE")
	}
	if !tr.HasRecording() {
		t.Error("expected ResetStatus to leave the recording intact")
	}
}

func TestTrackClearWipesTransientState(t *testing.T) {
	tr := NewTrack(0, 1024)
	tr.BeginRecord(1, 3)
	tr.EndRecord(2, 128)
	tr.PressMute()
	tr.Volume = 0.3

	tr.Clear()

	if tr.HasRecording() {
		t.Error("expected Clear to drop the recorded end cursors")
	}
	if tr.Volume != 1.0 {
		t.Errorf("expected Clear to reset volume to 1.0, got %v", tr.Volume)
	}
	if tr.RecordBars != 0 {
		t.Errorf("expected Clear to reset RecordBars to 0, got %d", tr.RecordBars)
	}
	if tr.Status(FuncMute) != StatusOff {
		t.Error("expected Clear to reset every pad to OFF")
	}
}

func TestTrackSnapshotRoundTrip(t *testing.T) {
	tr := NewTrack(0, 16)
	tr.BeginRecord(1, 0)
	tr.left[0], tr.left[1] = 0.5, -0.5
	tr.EndRecord(1, 8)
	tr.Volume = 0.7

	snap := tr.Snapshot()
	l, r := tr.EndSamples()
	snap.Left = append([]float32(nil), l...)
	snap.Right = append([]float32(nil), r...)

	dst := NewTrack(0, 16)
	dst.ApplySnapshot(snap)

	if dst.Volume != snap.Volume {
		t.Errorf("expected volume %v after ApplySnapshot, got %v", snap.Volume, dst.Volume)
	}
	if !dst.HasRecording() {
		t.Error("expected ApplySnapshot to restore the end cursors")
	}
	if dst.left[0] != 0.5 || dst.left[1] != -0.5 {
		t.Errorf("expected ApplySnapshot to copy samples into the backing array, got %v %v", dst.left[0], dst.left[1])
	}
	if dst.Status(FuncPlay) != StatusOff || dst.Status(FuncRecord) != StatusOff {
		t.Error("expected ApplySnapshot to reset every pad to OFF")
	}
}
