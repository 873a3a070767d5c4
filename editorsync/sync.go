// Package editorsync exposes Pattern Store state to an external editor
// through compact observable outputs and accepts editor edits through
// a small set of scalar input channels.
package editorsync

import (
	"github.com/gridseq/gridseq/bridge"
	"github.com/gridseq/gridseq/midievent"
	"github.com/gridseq/gridseq/pattern"
)

// Coordinate sentinels overloading the grid_x input channel.
const (
	SentinelReset         = -100
	SentinelDeviceInquiry = -200
	SentinelClearAll      = -300
	SentinelRecenter      = -400
)

const gridChangedModulus = 1_000_000

// Inputs bundles one tick's worth of editor-originated scalar channel
// values, read by the Scheduler before it touches the pattern.
type Inputs struct {
	GX         int // step coordinate, or one of the Sentinel* values
	GY         int // row-within-viewport coordinate
	Length     int // sequence_length, clamped to [1, pattern.MaxSteps]
	MIDIFilter bool
}

// Outputs bundles the observable state the editor polls each tick.
type Outputs struct {
	CurrentStep    uint8
	SequenceLength uint8
	GridChanged    uint32
	Rows           [pattern.MaxSteps]uint8
}

// Sync tracks the previously-observed value of each persistent input
// channel so that "value different from last observed" converts them
// into edge-triggered edits.
type Sync struct {
	lastGX, lastGY int
	lastLength     int
}

// New returns a Sync with no prior observed values (so the first tick
// acts only if the host's initial inputs differ from the zero value).
func New() *Sync {
	return &Sync{}
}

// ApplyCoordinates reads this tick's grid_x/grid_y channels and
// applies any edge-triggered toggle or sentinel action. Called at step
// 3 of the tick ordering, after transport and hardware MIDI have
// been drained.
func (s *Sync) ApplyCoordinates(gx, gy int, p *pattern.Store, ctrl *bridge.Controller, primary, hw *midievent.Sink) {
	if gx == s.lastGX && gy == s.lastGY {
		return
	}
	s.lastGX, s.lastGY = gx, gy

	switch gx {
	case SentinelReset:
		ctrl.ExplicitReset(primary, hw)
		return
	case SentinelDeviceInquiry:
		ctrl.EmitDeviceInquiry(primary, hw)
		return
	case SentinelClearAll:
		p.ClearAll()
		ctrl.MarkDirty()
		return
	case SentinelRecenter:
		p.SetPitchOffset(pattern.DefaultPitchOffset)
		ctrl.MarkDirty()
		return
	}
	if gx < 0 {
		// Reserved/unknown sentinel: ignored.
		return
	}
	if gx >= 0 && gx < pattern.MaxSteps && gy >= 0 && gy < pattern.VisibleRows {
		if p.Toggle(gx, p.PitchOffset()+gy) {
			ctrl.MarkDirty()
		}
	}
}

// ApplyLength reads the sequence_length channel and, on a change from
// the last observed value, clamps and stores it. Called at step 1 of
// the Scheduler's tick ordering, before any MIDI draining.
func (s *Sync) ApplyLength(length int, p *pattern.Store, ctrl *bridge.Controller) {
	if length == s.lastLength {
		return
	}
	s.lastLength = length
	p.SetLength(length)
	ctrl.MarkDirty()
}

// Observe produces this tick's observable outputs from p and the
// Scheduler-maintained current step.
func Observe(p *pattern.Store, currentStep int) Outputs {
	out := Outputs{
		CurrentStep:    uint8(currentStep),
		SequenceLength: uint8(p.SequenceLength()),
		GridChanged:    p.ChangeCounter() % gridChangedModulus,
	}
	for x := 0; x < pattern.MaxSteps; x++ {
		out.Rows[x] = p.PackVisibleRow(x)
	}
	return out
}

// NotificationBlob returns the 64-byte editor-notification payload of
// to be emitted at offset 0 on any pattern mutation.
func NotificationBlob(p *pattern.Store) [64]byte {
	return p.Viewport64()
}
