package sequence

import (
	"testing"

	"github.com/gridseq/gridseq/midievent"
	"github.com/gridseq/gridseq/pattern"
)

func TestStepStartEmitsNoteOnForActiveCells(t *testing.T) {
	p := pattern.New()
	p.Toggle(0, 36)
	p.Toggle(0, 40)
	s := New()
	out := midievent.NewSink(8)
	s.StepStart(p, 0, 100, out)

	events := out.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Status != midievent.StatusNoteOn {
			t.Errorf("event status = %#x, want NoteOn", ev.Status)
		}
		if ev.Offset != 100 {
			t.Errorf("event offset = %d, want 100", ev.Offset)
		}
	}
	active := s.ActiveNotes()
	if !active[36] || !active[40] {
		t.Errorf("expected pitches 36 and 40 to be active")
	}
}

func TestMidStepEmitsNoteOffAndClearsActive(t *testing.T) {
	p := pattern.New()
	p.Toggle(0, 36)
	s := New()
	out := midievent.NewSink(8)
	s.StepStart(p, 0, 0, out)
	out.Reset()

	s.MidStep(50, out)
	events := out.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Status != midievent.StatusNoteOff {
		t.Errorf("status = %#x, want NoteOff", events[0].Status)
	}
	if events[0].Offset != 50 {
		t.Errorf("offset = %d, want 50", events[0].Offset)
	}
	active := s.ActiveNotes()
	if active[36] {
		t.Errorf("pitch 36 should no longer be active")
	}
}

func TestMIDIFilterSuppressesMidStepNoteOff(t *testing.T) {
	p := pattern.New()
	p.Toggle(0, 36)
	s := New()
	out := midievent.NewSink(8)
	s.StepStart(p, 0, 0, out)
	out.Reset()

	s.SetMIDIFilter(true)
	s.MidStep(50, out)
	if out.Len() != 0 {
		t.Errorf("expected no events with MIDI filter on, got %d", out.Len())
	}
	// The active set still clears even though no Note Off was emitted.
	if s.ActiveNotes()[36] {
		t.Errorf("pitch 36 should be cleared from the active set regardless of filter")
	}
}

func TestAllNotesOffIgnoresFilter(t *testing.T) {
	p := pattern.New()
	p.Toggle(0, 36)
	s := New()
	out := midievent.NewSink(8)
	s.StepStart(p, 0, 0, out)
	out.Reset()

	s.SetMIDIFilter(true)
	s.AllNotesOff(0, out)
	if out.Len() != 1 {
		t.Fatalf("AllNotesOff should emit Note Off even with the filter on, got %d events", out.Len())
	}
}

func TestConsumeFirstRunOneShot(t *testing.T) {
	s := New()
	s.ArmFirstRun()
	if !s.ConsumeFirstRun() {
		t.Fatalf("expected first-run flag to be set")
	}
	if s.ConsumeFirstRun() {
		t.Errorf("first-run flag should clear after one read")
	}
}

func TestStepStartOnlyEmitsForActiveStep(t *testing.T) {
	p := pattern.New()
	p.Toggle(1, 36) // different step
	s := New()
	out := midievent.NewSink(8)
	s.StepStart(p, 0, 0, out)
	if out.Len() != 0 {
		t.Errorf("expected no events for an empty step, got %d", out.Len())
	}
}
