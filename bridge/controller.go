// Package bridge implements the Controller Bridge: it decodes raw
// MIDI from the 8x8 hardware pad device into pattern edits and
// navigation commands, and refreshes the device's LEDs to mirror
// pattern state.
package bridge

import (
	"github.com/gridseq/gridseq/midievent"
	"github.com/gridseq/gridseq/pattern"
)

// Controller holds the hardware device's session state: whether the
// one-time mode-entry sysex has been sent, and whether LEDs are due a
// refresh.
type Controller struct {
	modeEntered bool
	dirty       bool
}

// New returns a Controller that has not yet entered programmer mode.
func New() *Controller {
	return &Controller{}
}

// Dirty reports whether a pattern/viewport edit has happened since the
// last ClearDirty call.
func (c *Controller) Dirty() bool { return c.dirty }

// markDirty flags the next tick's LED refresh as needed.
func (c *Controller) markDirty() { c.dirty = true }

// MarkDirty flags the next tick's LED refresh as needed. Exported so
// collaborators outside this package (editorsync's pattern edits) can
// request a refresh without reaching into Controller internals.
func (c *Controller) MarkDirty() { c.markDirty() }

// ClearDirty clears the dirty flag; called by the Scheduler right
// after it refreshes LEDs.
func (c *Controller) ClearDirty() { c.dirty = false }

// ModeEntered reports whether the enter-programmer-mode sysex has
// already been sent this session.
func (c *Controller) ModeEntered() bool { return c.modeEntered }

// ResetModeOnActivate clears modeEntered without emitting the exit
// sysex, so the next tick's EnsureMode re-enters programmer mode. This
// is distinct from ExplicitReset: activation never talked to the
// device yet, so there is no mode to exit.
func (c *Controller) ResetModeOnActivate() {
	c.modeEntered = false
	c.markDirty()
}

// EnsureMode emits the enter-programmer-mode sysex on both outputs if
// it has not yet been sent this session (on the first tick after
// activation, or after a reset request).
func (c *Controller) EnsureMode(primary, hw *midievent.Sink) {
	if c.modeEntered {
		return
	}
	primary.Emit(midievent.SysEx(0, enterProgrammerMode))
	hw.Emit(midievent.SysEx(0, enterProgrammerMode))
	c.modeEntered = true
}

// ExplicitReset emits the exit-programmer-mode sysex on both outputs
// and clears modeEntered, so the next tick's EnsureMode call
// re-enters programmer mode.
func (c *Controller) ExplicitReset(primary, hw *midievent.Sink) {
	primary.Emit(midievent.SysEx(0, exitProgrammerMode))
	hw.Emit(midievent.SysEx(0, exitProgrammerMode))
	c.modeEntered = false
	c.markDirty()
}

// EmitDeviceInquiry emits the universal device-inquiry sysex on both
// outputs, per the editor's device-inquiry sentinel.
func (c *Controller) EmitDeviceInquiry(primary, hw *midievent.Sink) {
	primary.Emit(midievent.SysEx(0, deviceInquiry))
	hw.Emit(midievent.SysEx(0, deviceInquiry))
}

// HandleInput parses one raw MIDI message (status byte plus its data
// bytes) and applies it: pad Note On toggles a pattern cell, CC 91-94
// adjust the viewport. Malformed input (too short, unknown status) is
// silently skipped. It mutates p in place.
func (c *Controller) HandleInput(raw []byte, p *pattern.Store) {
	if len(raw) == 0 {
		return
	}
	status := raw[0]
	hi := status & 0xF0

	switch hi {
	case 0x90: // Note On
		if len(raw) < 3 {
			return
		}
		note, velocity := raw[1], raw[2]
		if velocity == 0 {
			return
		}
		c.handlePad(note, p)
	case 0xB0: // Control Change
		if len(raw) < 3 {
			return
		}
		cc, value := raw[1], raw[2]
		if value == 0 {
			return
		}
		c.handleAux(cc, p)
	default:
		// Note Off, sysex echoes, and anything else: not interpreted.
	}
}

// handlePad maps a pad Note On to pattern coordinates and toggles the
// cell.
func (c *Controller) handlePad(note byte, p *pattern.Store) {
	if note < 11 || note > 88 {
		return
	}
	n := int(note) - 11
	x := n % 10
	y := n / 10
	if x >= 8 || y >= 8 {
		return
	}
	step := x + 8*p.HardwarePage()
	pitch := p.PitchOffset() + y
	if step < p.SequenceLength() && pitch < pattern.PitchRange {
		if p.Toggle(step, pitch) {
			c.markDirty()
		}
	}
}

// handleAux applies an auxiliary CC (pitch scroll / hardware page) to
// the viewport.
func (c *Controller) handleAux(cc byte, p *pattern.Store) {
	switch cc {
	case ccPitchDown:
		if p.PitchOffset() > 0 {
			p.SetPitchOffset(p.PitchOffset() - 1)
			c.markDirty()
		}
	case ccPitchUp:
		if p.PitchOffset() < pattern.PitchRange-pattern.VisibleRows {
			p.SetPitchOffset(p.PitchOffset() + 1)
			c.markDirty()
		}
	case ccPageZero:
		if p.HardwarePage() > 0 {
			p.SetHardwarePage(0)
			c.markDirty()
		}
	case ccPageOne:
		if p.SequenceLength() > pattern.VisibleRows && p.HardwarePage() == 0 {
			p.SetHardwarePage(1)
			c.markDirty()
		}
	}
}

// RefreshLEDs writes the full 8x8 pad grid plus the four auxiliary LEDs
// to out, reflecting the current pattern/viewport/playhead state. The
// Scheduler calls this only when Dirty() or the current step changed
// since the prior refresh.
func (c *Controller) RefreshLEDs(p *pattern.Store, currentStep int, out *midievent.Sink) {
	page := p.HardwarePage()
	for y := 0; y < pattern.VisibleRows; y++ {
		for x := 0; x < 8; x++ {
			step := x + 8*page
			pitch := p.PitchOffset() + y
			note := byte(11 + x + 10*y)

			var color byte
			switch {
			case step >= p.SequenceLength():
				color = ColorOff
			case step == currentStep:
				if p.Get(step, pitch) {
					color = ColorYellow
				} else {
					color = ColorDimGreen
				}
			default:
				if p.Get(step, pitch) {
					color = ColorGreen
				} else {
					color = ColorOff
				}
			}
			out.Emit(midievent.NoteOn(0, padChannel, note, color))
		}
	}

	aux := func(cc byte, lit bool) {
		color := ColorOff
		if lit {
			color = ColorWhite
		}
		out.Emit(midievent.ControlChange(0, padChannel, cc, color))
	}
	aux(ccPitchDown, p.PitchOffset() > 0)
	aux(ccPitchUp, p.PitchOffset() < pattern.PitchRange-pattern.VisibleRows)
	aux(ccPageZero, p.HardwarePage() > 0)
	aux(ccPageOne, p.SequenceLength() > pattern.VisibleRows && p.HardwarePage() == 0)
}
