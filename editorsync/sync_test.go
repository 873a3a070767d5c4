package editorsync

import (
	"testing"

	"github.com/gridseq/gridseq/bridge"
	"github.com/gridseq/gridseq/midievent"
	"github.com/gridseq/gridseq/pattern"
)

func TestApplyCoordinatesTogglesOnChange(t *testing.T) {
	s := New()
	p := pattern.New()
	c := bridge.New()
	primary := midievent.NewSink(4)
	hw := midievent.NewSink(4)

	s.ApplyCoordinates(2, 3, p, c, primary, hw)
	if !p.Get(2, p.PitchOffset()+3) {
		t.Fatalf("expected grid cell to toggle on coordinate change")
	}

	// Same coordinates again: no edge, no further toggle.
	s.ApplyCoordinates(2, 3, p, c, primary, hw)
	if !p.Get(2, p.PitchOffset()+3) {
		t.Errorf("repeated identical coordinates should not re-toggle")
	}
}

func TestApplyCoordinatesResetSentinel(t *testing.T) {
	s := New()
	p := pattern.New()
	c := bridge.New()
	primary := midievent.NewSink(4)
	hw := midievent.NewSink(4)

	s.ApplyCoordinates(SentinelReset, 0, p, c, primary, hw)
	if primary.Len() != 1 || hw.Len() != 1 {
		t.Fatalf("reset sentinel should emit exit-mode sysex on both outputs")
	}
}

func TestApplyCoordinatesClearAllSentinel(t *testing.T) {
	s := New()
	p := pattern.New()
	p.Toggle(0, 0)
	c := bridge.New()
	primary := midievent.NewSink(4)
	hw := midievent.NewSink(4)

	s.ApplyCoordinates(SentinelClearAll, 0, p, c, primary, hw)
	if p.Get(0, 0) {
		t.Fatalf("clear-all sentinel should clear the grid")
	}
}

func TestApplyCoordinatesRecenterSentinel(t *testing.T) {
	s := New()
	p := pattern.New()
	p.SetPitchOffset(80)
	c := bridge.New()
	primary := midievent.NewSink(4)
	hw := midievent.NewSink(4)

	s.ApplyCoordinates(SentinelRecenter, 0, p, c, primary, hw)
	if p.PitchOffset() != pattern.DefaultPitchOffset {
		t.Errorf("recenter sentinel should reset pitch offset to default, got %d", p.PitchOffset())
	}
}

func TestApplyLengthOnlyOnChange(t *testing.T) {
	s := New()
	p := pattern.New()
	c := bridge.New()

	s.ApplyLength(8, p, c)
	if p.SequenceLength() != 8 {
		t.Fatalf("ApplyLength should set sequence length, got %d", p.SequenceLength())
	}
	c.ClearDirty()
	s.ApplyLength(8, p, c) // no change
	if c.Dirty() {
		t.Errorf("ApplyLength should be a no-op when value is unchanged")
	}
}

func TestObserveReflectsCurrentStepAndLength(t *testing.T) {
	p := pattern.New()
	p.SetLength(5)
	p.Toggle(0, p.PitchOffset())
	out := Observe(p, 2)
	if out.CurrentStep != 2 {
		t.Errorf("CurrentStep = %d, want 2", out.CurrentStep)
	}
	if out.SequenceLength != 5 {
		t.Errorf("SequenceLength = %d, want 5", out.SequenceLength)
	}
	if out.Rows[0]&1 == 0 {
		t.Errorf("Rows[0] should reflect the toggled cell")
	}
}

func TestNotificationBlobMatchesViewport(t *testing.T) {
	p := pattern.New()
	p.Toggle(0, p.PitchOffset())
	blob := NotificationBlob(p)
	want := p.Viewport64()
	if blob != want {
		t.Errorf("NotificationBlob() != Viewport64()")
	}
}
