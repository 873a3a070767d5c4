// Package harness wires a core.Engine to real MIDI ports via
// gitlab.com/gomidi/midi/v2, translating bytes in both directions and
// driving Tick on a fixed-period host clock. This is reference wiring
// for running the engine against hardware, not part of the real-time
// core itself.
package harness

import (
	"fmt"
	"strings"
	"time"

	"github.com/gridseq/gridseq/core"
	"github.com/gridseq/gridseq/debuglog"
	"github.com/gridseq/gridseq/editorsync"
	"github.com/gridseq/gridseq/midievent"
	"github.com/gridseq/gridseq/transport"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Ports bundles the open MIDI connections the harness drives an Engine
// through.
type Ports struct {
	PrimaryOut  drivers.Out
	HardwareOut drivers.Out
	HardwareIn  drivers.In
}

// FindInPort returns the first input port whose name contains substr
// (case-insensitive), or nil if none match.
func FindInPort(substr string) drivers.In {
	for _, p := range gomidi.GetInPorts() {
		if strings.Contains(strings.ToLower(p.String()), strings.ToLower(substr)) {
			return p
		}
	}
	return nil
}

// FindOutPort returns the first output port whose name contains substr
// (case-insensitive), or nil if none match.
func FindOutPort(substr string) drivers.Out {
	for _, p := range gomidi.GetOutPorts() {
		if strings.Contains(strings.ToLower(p.String()), strings.ToLower(substr)) {
			return p
		}
	}
	return nil
}

// Runner drives an Engine's Tick loop against open MIDI ports on a
// fixed host-buffer period.
type Runner struct {
	engine      *core.Engine
	ports       Ports
	sendPrimary func(gomidi.Message) error
	sendHW      func(gomidi.Message) error
	stopListen  func()

	incoming chan []byte
}

// NewRunner opens send functions for the given ports and starts
// listening on HardwareIn, if set. Call Close when done.
func NewRunner(e *core.Engine, ports Ports) (*Runner, error) {
	r := &Runner{engine: e, ports: ports, incoming: make(chan []byte, 256)}

	if ports.PrimaryOut != nil {
		send, err := gomidi.SendTo(ports.PrimaryOut)
		if err != nil {
			return nil, fmt.Errorf("gridseq: open primary output: %w", err)
		}
		r.sendPrimary = send
		debuglog.LogPortOpen("primary-out", ports.PrimaryOut.String())
	}
	if ports.HardwareOut != nil {
		send, err := gomidi.SendTo(ports.HardwareOut)
		if err != nil {
			return nil, fmt.Errorf("gridseq: open hardware output: %w", err)
		}
		r.sendHW = send
		debuglog.LogPortOpen("hardware-out", ports.HardwareOut.String())
	}
	if ports.HardwareIn != nil {
		stop, err := gomidi.ListenTo(ports.HardwareIn, func(msg gomidi.Message, _ int32) {
			raw := append([]byte(nil), msg.Data...)
			select {
			case r.incoming <- raw:
			default:
			}
		})
		if err != nil {
			return nil, fmt.Errorf("gridseq: listen on hardware input: %w", err)
		}
		r.stopListen = stop
		debuglog.LogPortOpen("hardware-in", ports.HardwareIn.String())
	}
	return r, nil
}

// Close stops listening on the hardware input, if any.
func (r *Runner) Close() {
	if r.stopListen != nil {
		r.stopListen()
	}
}

// RunForever activates the engine and calls Tick once per period,
// forever, draining any queued hardware input into each tick's Inputs.
// period should match the host buffer duration a real audio or MIDI
// clock would drive (e.g. frames_per_step-scale granularity); the
// harness has no audio callback, so it free-runs on a wall-clock
// ticker instead.
func (r *Runner) RunForever(samplesPerTick int32, period time.Duration, editorInputs func() editorsync.Inputs) {
	r.engine.Activate()
	wasPlaying := r.engine.Clock().Playing()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for range ticker.C {
		in := core.Inputs{}
		if editorInputs != nil {
			in.Editor = editorInputs()
		}
		for {
			select {
			case raw := <-r.incoming:
				in.MIDI = append(in.MIDI, raw)
				continue
			default:
			}
			break
		}

		out := r.engine.Tick(samplesPerTick, in)
		r.flush(out.Primary, r.sendPrimary)
		r.flush(out.Hardware, r.sendHW)

		debuglog.LogTick(int(out.Editor.CurrentStep), int(out.Editor.SequenceLength), len(out.Primary), len(out.Hardware))

		if playing := r.engine.Clock().Playing(); playing != wasPlaying {
			kind := "stop"
			if playing {
				kind = "start"
			}
			debuglog.LogTransportEdge(kind, r.engine.Clock().Tempo())
			wasPlaying = playing
		}
	}
}

func (r *Runner) flush(events []midievent.Event, send func(gomidi.Message) error) {
	if send == nil {
		return
	}
	for _, ev := range events {
		midievent.WriteGomidi(ev, send)
	}
}

// Stop sends a synthetic stop transport event through one more Tick,
// so callers that are about to exit can guarantee All Notes Off. It is
// a convenience; Engine.Deactivate plus one ordinary Tick does the
// same thing.
func (r *Runner) Stop(samplesPerTick int32) {
	r.engine.Deactivate()
	out := r.engine.Tick(samplesPerTick, core.Inputs{
		Transport: []transport.Position{{Speed: 0, HasSpeed: true}},
	})
	r.flush(out.Primary, r.sendPrimary)
	r.flush(out.Hardware, r.sendHW)
}
