// Package transport parses structured transport ("position") events
// from the host input stream and applies them to the Clock.
package transport

import "github.com/gridseq/gridseq/clock"

// Position is one transport update event. HasTempo/HasSpeed mark which
// optional fields are present, since either may be carried alone.
type Position struct {
	Tempo    float32
	HasTempo bool
	Speed    float32
	HasSpeed bool
}

// Decoder tracks the last-seen play/stop edge so that speed updates
// only trigger Clock.Start/Stop on a true transition.
type Decoder struct {
	lastPlaying bool
}

// New returns a Decoder synced to clk's current playing state.
func New(clk *clock.Clock) *Decoder {
	return &Decoder{lastPlaying: clk.Playing()}
}

// Sync resyncs the decoder's edge tracking to clk, without emitting an
// edge. Used after the Scheduler performs its own Start/Stop (e.g. on
// Activate) so a subsequent identical Position event is not
// mistaken for a second edge.
func (d *Decoder) Sync(clk *clock.Clock) {
	d.lastPlaying = clk.Playing()
}

// Apply applies a batch of Position events to clk in order, forwarding
// tempo changes unconditionally when positive and translating
// speed-derived play/stop transitions into Clock.Start/Clock.Stop
// calls. It reports whether a stop edge (true->false) or a start edge
// (false->true) occurred anywhere in the batch — the Scheduler uses a
// stop edge to trigger the Sequencer Core's all-notes-off guarantee.
func (d *Decoder) Apply(events []Position, clk *clock.Clock) (stopEdge, startEdge bool) {
	for _, ev := range events {
		if ev.HasTempo && ev.Tempo > 0 {
			clk.SetTempo(float64(ev.Tempo))
		}
		if ev.HasSpeed {
			playing := ev.Speed > 0
			if playing != d.lastPlaying {
				if playing {
					clk.Start()
					startEdge = true
				} else {
					clk.Stop()
					stopEdge = true
				}
				d.lastPlaying = playing
			}
		}
	}
	return stopEdge, startEdge
}
