package engine

import "testing"

func TestBBTFirstTickStartsBarTwo(t *testing.T) {
	b := NewBBT(96)

	ret := b.TimeProgress()
	if ret != StatusOn {
		t.Errorf("expected ON on the first tick, got %s", ret)
	}
	if b.Bar != 2 {
		t.Errorf("expected bar 2 after the first tick (construction-time bar=1 plus the pending new-bar edge), got %d", b.Bar)
	}
	if b.Beat != 1 || b.Tick != 1 {
		t.Errorf("expected beat=1 tick=1, got beat=%d tick=%d", b.Beat, b.Tick)
	}
	if !b.IsBarEdge() {
		t.Error("expected first tick to land on a bar edge")
	}
}

func TestBBTPacingDecaysAfterBarStart(t *testing.T) {
	b := NewBBT(96)

	var got []Status
	for i := 0; i < 6; i++ {
		got = append(got, b.TimeProgress())
	}

	want := []Status{StatusOn, StatusOn, StatusOn, StatusOn, StatusOff, StatusOff}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("tick %d: expected %s, got %s", i+1, w, got[i])
		}
	}
}

func TestBBTBeatAdvancesEvery24Ticks(t *testing.T) {
	b := NewBBT(96) // 4/4 at 96 pulses/bar => 24 pulses/beat

	for i := 0; i < 24; i++ {
		b.TimeProgress()
	}
	if b.Beat != 1 {
		t.Fatalf("expected beat 1 through tick 24, got %d", b.Beat)
	}

	ret := b.TimeProgress() // tick 25: first tick of beat 2
	if ret != StatusPendingOn {
		t.Errorf("expected PENDING_ON on the beat change, got %s", ret)
	}
	if b.Beat != 2 {
		t.Errorf("expected beat 2 at tick 25, got %d", b.Beat)
	}
}

func TestBBTBarRollsOverOnOverflow(t *testing.T) {
	b := NewBBT(96)

	for i := 0; i < 96; i++ {
		b.TimeProgress()
	}
	if b.Bar != 2 {
		t.Fatalf("expected bar 2 through tick 96, got %d", b.Bar)
	}

	ret := b.TimeProgress() // tick 97: beat 5 overflows a 4/4 bar
	if ret != StatusOn {
		t.Errorf("expected ON on the bar rollover, got %s", ret)
	}
	if b.Bar != 3 {
		t.Errorf("expected bar 3 after the rollover, got %d", b.Bar)
	}
	if b.Beat != 1 || b.Tick != 1 {
		t.Errorf("expected beat/tick reset to 1 after rollover, got beat=%d tick=%d", b.Beat, b.Tick)
	}
	if !b.IsBarEdge() {
		t.Error("expected the rollover tick to report a bar edge")
	}
}

func TestBBTPlayArmsNewBarOnNextTick(t *testing.T) {
	b := NewBBT(96)
	for i := 0; i < 50; i++ {
		b.TimeProgress()
	}
	barBefore := b.Bar

	b.Play()
	ret := b.TimeProgress()

	if ret != StatusOn {
		t.Errorf("expected ON immediately after Play, got %s", ret)
	}
	if b.Bar != barBefore+1 {
		t.Errorf("expected bar to advance by 1 after Play, got %d -> %d", barBefore, b.Bar)
	}
	if b.Beat != 1 || b.Tick != 0+1 {
		t.Errorf("expected beat=1 tick=1 after the forced new bar, got beat=%d tick=%d", b.Beat, b.Tick)
	}
}

func TestBBTCycleSignatureWraps(t *testing.T) {
	b := NewBBT(96)

	start := b.SignatureIndex()
	for i := 0; i < len(timeSignatures); i++ {
		b.CycleSignature()
	}
	if b.SignatureIndex() != start {
		t.Errorf("expected CycleSignature to wrap back to the starting index after a full cycle, got %d want %d", b.SignatureIndex(), start)
	}
}

func TestBBTCompoundMeterBeatValue(t *testing.T) {
	b := NewBBT(96)
	for i := 0; i < 4; i++ { // 4/4 -> 2/2 -> 2/4 -> 3/4 -> 6/8
		b.CycleSignature()
	}
	sig := b.Signature()
	if sig.Numerator != 6 || sig.Denominator != 8 {
		t.Fatalf("expected to land on 6/8, got %d/%d", sig.Numerator, sig.Denominator)
	}

	// 6/8 is compound: a beat is 3 pulses of the nominal 96/8=12 pulse unit,
	// i.e. 36 pulses, and there are 2 beats (6/3) per bar.
	for i := 0; i < 36; i++ {
		b.TimeProgress()
	}
	if b.Beat != 1 {
		t.Fatalf("expected beat 1 through the first compound beat, got %d", b.Beat)
	}
	b.TimeProgress()
	if b.Beat != 2 {
		t.Errorf("expected beat 2 at the start of the second compound beat, got %d", b.Beat)
	}
}

func TestBBTSetSignatureIndexClampsOutOfRange(t *testing.T) {
	b := NewBBT(96)
	b.SetSignatureIndex(-1)
	if b.SignatureIndex() != 0 {
		t.Errorf("expected negative index to clamp to 0, got %d", b.SignatureIndex())
	}
	b.SetSignatureIndex(len(timeSignatures) + 5)
	if b.SignatureIndex() != 0 {
		t.Errorf("expected out-of-range index to clamp to 0, got %d", b.SignatureIndex())
	}
}
