// Package core implements the Scheduler: the real-time tick entry
// point that sequences Pattern Store, Clock, Sequencer Core, Transport
// Decoder, Controller Bridge, and Editor Sync within one host buffer,
// in a fixed order each tick.
package core

import (
	"fmt"

	"github.com/gridseq/gridseq/bridge"
	"github.com/gridseq/gridseq/clock"
	"github.com/gridseq/gridseq/editorsync"
	"github.com/gridseq/gridseq/midievent"
	"github.com/gridseq/gridseq/pattern"
	"github.com/gridseq/gridseq/sequence"
	"github.com/gridseq/gridseq/transport"
)

// Sink capacities. Primary must hold a full step's worth of Note Ons
// plus a full mid-step's worth of Note Offs even in the pathological
// case every pitch in range is active (pattern.PitchRange each), plus
// headroom for one sysex. A tick that spans more than one step
// boundary can exceed this; the Sink drops whatever does not fit. Hardware must hold one full LED refresh: the 8x8 grid
// plus 4 aux CCs, plus a sysex.
const (
	primaryCapacity  = 2*pattern.PitchRange + 4
	hardwareCapacity = 2*(64+4) + 4
	notifyCapacity   = 4
)

// Inputs bundles everything the host hands the Scheduler for one tick.
type Inputs struct {
	// MIDI is the raw bytes of each MidiEvent in this tick's input
	// stream, in arrival order. Sample offsets within the tick are not
	// consulted by the Scheduler: the whole batch is drained before
	// playback advances.
	MIDI [][]byte

	// Transport is this tick's Position events, in arrival order.
	Transport []transport.Position

	// Editor carries the persistent editor scalar channels as sampled
	// for this tick.
	Editor editorsync.Inputs
}

// Outputs bundles the Scheduler's per-tick results. The event slices
// alias the Engine's internal sinks and are valid only until the next
// Tick call.
type Outputs struct {
	Primary      []midievent.Event
	Hardware     []midievent.Event
	Notification []midievent.Event
	Editor       editorsync.Outputs
}

// Engine is the public embedding point wrapping the whole real-time
// core behind one Tick call. A single goroutine must own an Engine for
// its whole lifetime; nothing inside it is safe for concurrent use.
type Engine struct {
	pattern *pattern.Store
	clk     *clock.Clock
	seq     *sequence.Sequencer
	decoder *transport.Decoder
	ctrl    *bridge.Controller
	sync    *editorsync.Sync

	primary *midievent.Sink
	hw      *midievent.Sink
	notify  *midievent.Sink

	prevLEDStep  int
	ledStepKnown bool

	pendingAllOff  bool
	lastChangeSeen uint32
	notifyBuf      [64]byte
}

// NewEngine allocates an Engine at the given sample rate. This is the
// only allocation site in the module's real-time path; everything
// Tick touches afterward is preallocated here. It returns an error
// if sampleRate is not positive.
func NewEngine(sampleRate float64) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("gridseq: sample rate must be positive, got %v", sampleRate)
	}
	e := &Engine{
		pattern: pattern.New(),
		clk:     clock.New(sampleRate, 120),
		seq:     sequence.New(),
		ctrl:    bridge.New(),
		sync:    editorsync.New(),
		primary: midievent.NewSink(primaryCapacity),
		hw:      midievent.NewSink(hardwareCapacity),
		notify:  midievent.NewSink(notifyCapacity),
	}
	e.decoder = transport.New(e.clk)
	return e, nil
}

// Pattern returns the Engine's Pattern Store, for host-side snapshot
// and restore; persistence is the host's responsibility.
func (e *Engine) Pattern() *pattern.Store { return e.pattern }

// Clock returns the Engine's Clock, mainly for tests and diagnostics.
func (e *Engine) Clock() *clock.Clock { return e.clk }

// ActiveNotes reports the Sequencer Core's current Active Note Set,
// mainly for tests and diagnostics.
func (e *Engine) ActiveNotes() [pattern.PitchRange]bool { return e.seq.ActiveNotes() }

// Activate resets playback state: playing<-true, counters<-0, and
// arms the first-tick rule so step 0 is emitted on the very next Tick
// call. Any notes still active get a Note Off at offset 0 on that same
// Tick, ahead of step 0's Note Ons. It also forces the Controller
// Bridge to re-enter programmer mode on the next tick.
func (e *Engine) Activate() {
	e.clk.Start()
	e.seq.ArmFirstRun()
	e.decoder.Sync(e.clk)
	e.ctrl.ResetModeOnActivate()
	e.ledStepKnown = false
	e.pendingAllOff = true
}

// Deactivate stops the clock and arms an all-notes-off to be emitted
// on the next Tick call, if any: deactivation must cause the next
// tick to emit no notes and act as a stop edge.
func (e *Engine) Deactivate() {
	e.clk.Stop()
	e.decoder.Sync(e.clk)
	e.pendingAllOff = true
}

// Tick is the real-time entry point. It implements the nine-step
// ordering for a buffer of n samples.
func (e *Engine) Tick(n int32, in Inputs) Outputs {
	// Step 4 (binding output buffers) is performed first: our sinks are
	// owned, preallocated buffers rather than host-loaned ones, so
	// resetting them before steps 1-3 run has no observable effect
	// except making them ready to receive the sysex emissions those
	// steps can themselves trigger (explicit reset, device inquiry).
	e.primary.Reset()
	e.hw.Reset()
	e.notify.Reset()

	// Step 1: length / filter inputs.
	e.sync.ApplyLength(in.Editor.Length, e.pattern, e.ctrl)
	e.seq.SetMIDIFilter(in.Editor.MIDIFilter)

	// Step 2: drain input event stream.
	stopEdge, _ := e.decoder.Apply(in.Transport, e.clk)
	for _, raw := range in.MIDI {
		e.ctrl.HandleInput(raw, e.pattern)
	}

	// Step 3: editor coordinate inputs.
	e.sync.ApplyCoordinates(in.Editor.GX, in.Editor.GY, e.pattern, e.ctrl, e.primary, e.hw)

	// Step 5: mode entry.
	e.ctrl.EnsureMode(e.primary, e.hw)

	// Pending/edge-triggered all-notes-off: the Activate and Deactivate
	// guarantees and the transport stop edge all resolve to the same
	// emission.
	if e.pendingAllOff || stopEdge {
		e.seq.AllNotesOff(0, e.primary)
		e.pendingAllOff = false
	}

	// Step 6: transport/playback phase. The first-run rule seeds step
	// 0's Note Ons at offset 0 even though no boundary has been
	// crossed yet; the clock still advances normally afterward so
	// later crossings land at the correct real-time offsets (a tick
	// that skipped Advance here would leave every subsequent mid-step
	// and step-start offset short by this tick's sample count).
	if e.seq.ConsumeFirstRun() {
		step := e.clk.CurrentStep(e.pattern.SequenceLength())
		e.seq.StepStart(e.pattern, step, 0, e.primary)
	}
	e.advancePlayback(n)

	// Step 7: LED refresh.
	currentStep := e.clk.CurrentStep(e.pattern.SequenceLength())
	if e.ctrl.Dirty() || !e.ledStepKnown || currentStep != e.prevLEDStep {
		e.ctrl.RefreshLEDs(e.pattern, currentStep, e.hw)
		e.ctrl.ClearDirty()
		e.prevLEDStep = currentStep
		e.ledStepKnown = true
	}

	// Editor notification stream: a consistency beacon emitted whenever
	// the pattern mutated this tick.
	if changed := e.pattern.ChangeCounter(); changed != e.lastChangeSeen {
		e.notifyBuf = editorsync.NotificationBlob(e.pattern)
		e.notify.Emit(midievent.SysEx(0, e.notifyBuf[:]))
		e.lastChangeSeen = changed
	}

	// Step 8: observable outputs.
	outEditor := editorsync.Observe(e.pattern, currentStep)

	// Step 9: close output containers — a no-op for owned sinks; the
	// caller reads the views below until the next Tick call.
	return Outputs{
		Primary:      e.primary.Events(),
		Hardware:     e.hw.Events(),
		Notification: e.notify.Events(),
		Editor:       outEditor,
	}
}

// advancePlayback loops the Clock forward in chunks no larger than
// half a step, so every step-start and mid-step boundary the tick
// spans fires its own event at the correct offset. Step-starts and
// mid-steps both fall on multiples of frames_per_step/2, so chunking
// to the next such multiple guarantees Advance never needs to report
// more than one crossing of each kind per call.
func (e *Engine) advancePlayback(n int32) {
	var consumed int32
	remaining := n
	for remaining > 0 {
		chunk := e.nextChunk(remaining)
		cr := e.clk.Advance(chunk)

		emitStepStart := func() {
			step := e.clk.CurrentStep(e.pattern.SequenceLength())
			e.seq.StepStart(e.pattern, step, consumed+cr.StepOffset, e.primary)
			e.ctrl.MarkDirty()
		}
		emitMidStep := func() {
			e.seq.MidStep(consumed+cr.MidOffset, e.primary)
		}

		// A chunk can coalesce both crossings when the previous chunk
		// ended exactly on a half-step boundary, deferring the
		// mid-step detection into the chunk that also crosses the
		// next step. The midpoint of a step always precedes that
		// step's end, so whichever offset is smaller must be emitted
		// first to keep Primary in non-decreasing offset order.
		if cr.StepStart && cr.MidStep && cr.MidOffset < cr.StepOffset {
			emitMidStep()
			emitStepStart()
		} else {
			if cr.StepStart {
				emitStepStart()
			}
			if cr.MidStep {
				emitMidStep()
			}
		}
		consumed += chunk
		remaining -= chunk
	}
}

// nextChunk returns how many samples to advance next: the distance
// from the clock's current frame to the next multiple of
// frames_per_step/2, capped at remaining.
func (e *Engine) nextChunk(remaining int32) int32 {
	if !e.clk.Playing() {
		return remaining
	}
	L := e.clk.FramesPerStep()
	if L == 0 {
		return remaining
	}
	half := L / 2
	if half == 0 {
		half = 1
	}
	f0 := e.clk.FrameCounter()
	next := (f0/half + 1) * half
	dist := next - f0
	if dist == 0 {
		dist = half
	}
	if dist > uint64(remaining) {
		return remaining
	}
	return int32(dist)
}
