// Package sequence implements the Sequencer Core: it reads a
// pattern.Store and emits Note On / Note Off events at the step-start
// and mid-step crossings the Scheduler derives from the clock, tracking
// the set of currently-sounding pitches.
package sequence

import (
	"github.com/gridseq/gridseq/midievent"
	"github.com/gridseq/gridseq/pattern"
)

const (
	channel      = 0
	noteVelocity = 100
)

// Sequencer owns the Active Note Set and the first-run flag. It holds
// no reference to pattern.Store between calls — the store, the step
// index and the offset are passed in per call, so the Scheduler stays
// the single owner of state lifetime.
type Sequencer struct {
	active     [pattern.PitchRange]bool
	firstRun   bool
	midiFilter bool
}

// New returns a Sequencer with an empty Active Note Set.
func New() *Sequencer {
	return &Sequencer{}
}

// SetMIDIFilter toggles the note-off suppression flag:
// when true, mid-step Note Offs are suppressed (for instruments that
// self-gate); Note Off on stop/deactivate is still emitted.
func (s *Sequencer) SetMIDIFilter(v bool) { s.midiFilter = v }

// MIDIFilter reports the current filter state.
func (s *Sequencer) MIDIFilter() bool { return s.midiFilter }

// ArmFirstRun marks that the very first step must be emitted with
// offset 0 on the next StepStart call, even though no clock boundary
// has been crossed yet.
func (s *Sequencer) ArmFirstRun() { s.firstRun = true }

// ActiveNotes reports which pitches currently have an outstanding Note
// On with no matching Note Off.
func (s *Sequencer) ActiveNotes() [pattern.PitchRange]bool { return s.active }

// StepStart emits Note On for every active cell in the given step,
// timestamped at offset, and marks those pitches active. Called once
// per step-start crossing, or once at tick start when firstRun is
// armed (in which case offset is always 0 and the flag is consumed).
func (s *Sequencer) StepStart(p *pattern.Store, step int, offset int32, out *midievent.Sink) {
	s.firstRun = false
	for pitch := 0; pitch < pattern.PitchRange; pitch++ {
		if p.Get(step, pitch) {
			out.Emit(midievent.NoteOn(offset, channel, byte(pitch), noteVelocity))
			s.active[pitch] = true
		}
	}
}

// ConsumeFirstRun reports and clears the first-run flag.
func (s *Sequencer) ConsumeFirstRun() bool {
	v := s.firstRun
	s.firstRun = false
	return v
}

// MidStep emits Note Off for every active pitch at offset, then clears
// the Active Note Set. If the MIDI filter is enabled it emits nothing
// but still clears the Active Note Set — the filter only suppresses
// this mid-step gate, not the all-notes-off emitted by AllNotesOff.
func (s *Sequencer) MidStep(offset int32, out *midievent.Sink) {
	if s.midiFilter {
		s.clearActiveNoEvents()
		return
	}
	s.emitAllOff(offset, out)
}

// AllNotesOff emits Note Off for every active pitch at offset and
// clears the set, unconditionally (ignores the MIDI filter). Used on
// activate and on the transport-to-stop edge.
func (s *Sequencer) AllNotesOff(offset int32, out *midievent.Sink) {
	s.emitAllOff(offset, out)
}

func (s *Sequencer) emitAllOff(offset int32, out *midievent.Sink) {
	for pitch := 0; pitch < pattern.PitchRange; pitch++ {
		if s.active[pitch] {
			out.Emit(midievent.NoteOff(offset, channel, byte(pitch), 0))
			s.active[pitch] = false
		}
	}
}

func (s *Sequencer) clearActiveNoEvents() {
	for pitch := range s.active {
		s.active[pitch] = false
	}
}

// ResetActive clears the Active Note Set without emitting any Note
// Off, for a caller that takes over note-off responsibility itself;
// it is not part of normal playback.
func (s *Sequencer) ResetActive() {
	s.clearActiveNoEvents()
}
