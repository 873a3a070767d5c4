// Package midievent defines the tick-stamped MIDI event representation
// shared by the Sequencer Core and the Controller Bridge, and the
// fixed-capacity sink that backs every output stream of the engine.
//
// Nothing in this package touches gitlab.com/gomidi/midi/v2 except
// WriteGomidi, which exists only to hand a finished tick's events to a
// real drivers.Out at the harness boundary.
package midievent

import gomidi "gitlab.com/gomidi/midi/v2"

// Status nibbles for the channel-voice messages the core ever emits.
const (
	StatusNoteOn  byte = 0x90
	StatusNoteOff byte = 0x80
	StatusCC      byte = 0xB0
)

// Event is one timestamped MIDI message. SysEx is nil for channel-voice
// messages (NoteOn/NoteOff/CC) and holds the full payload (without the
// leading F0 / trailing F7) for system-exclusive messages, in which
// case Status/Data1/Data2 are unused.
type Event struct {
	Offset int32 // sample offset within the tick this event belongs to
	Status byte
	Data1  byte
	Data2  byte
	SysEx  []byte
}

// NoteOn builds a Note On event at the given offset and channel.
func NoteOn(offset int32, channel, note, velocity byte) Event {
	return Event{Offset: offset, Status: StatusNoteOn | (channel & 0x0F), Data1: note, Data2: velocity}
}

// NoteOff builds a Note Off event at the given offset and channel.
func NoteOff(offset int32, channel, note, velocity byte) Event {
	return Event{Offset: offset, Status: StatusNoteOff | (channel & 0x0F), Data1: note, Data2: velocity}
}

// ControlChange builds a CC event at the given offset and channel.
func ControlChange(offset int32, channel, cc, value byte) Event {
	return Event{Offset: offset, Status: StatusCC | (channel & 0x0F), Data1: cc, Data2: value}
}

// SysEx builds a system-exclusive event from a constant payload. The
// payload is referenced, never copied, so callers must pass a
// package-level byte slice, not one allocated per tick.
func SysEx(offset int32, payload []byte) Event {
	return Event{Offset: offset, SysEx: payload}
}

// IsSysEx reports whether ev carries a system-exclusive payload.
func (ev Event) IsSysEx() bool { return ev.SysEx != nil }

// Sink is a fixed-capacity, array-backed event buffer. It never
// reallocates: Emit drops events once full rather than growing, and
// Reset rewinds the length without releasing the backing array. One
// Sink type backs all three output streams (primary MIDI, hardware,
// editor notification) — they differ only in capacity.
type Sink struct {
	buf []Event
	n   int
}

// NewSink allocates a sink with room for capacity events. This is the
// only allocation point; it is meant to be called once at Engine
// construction, never from inside Tick.
func NewSink(capacity int) *Sink {
	return &Sink{buf: make([]Event, capacity)}
}

// Reset rewinds the sink to empty without releasing its backing array.
func (s *Sink) Reset() { s.n = 0 }

// Emit appends ev, timestamped in non-decreasing offset order by
// convention of the caller. It reports false (dropping ev) if the sink
// is already at capacity: emit-what-fits, never block, never grow.
func (s *Sink) Emit(ev Event) bool {
	if s.n >= len(s.buf) {
		return false
	}
	s.buf[s.n] = ev
	s.n++
	return true
}

// Len reports how many events are currently held.
func (s *Sink) Len() int { return s.n }

// Cap reports the sink's fixed capacity.
func (s *Sink) Cap() int { return len(s.buf) }

// Events returns a read-only view of the events emitted since the last
// Reset, in emission order. The slice aliases the sink's backing array
// and is only valid until the next Reset/Emit call.
func (s *Sink) Events() []Event { return s.buf[:s.n] }

// WriteGomidi hands ev to send as a gomidi message. This is the single
// function in the module permitted to construct gomidi.Message values;
// everywhere else, Event is the currency.
func WriteGomidi(ev Event, send func(gomidi.Message) error) error {
	if ev.IsSysEx() {
		return send(gomidi.SysEx(ev.SysEx))
	}
	switch ev.Status & 0xF0 {
	case StatusNoteOn:
		return send(gomidi.NoteOn(ev.Status&0x0F, ev.Data1, ev.Data2))
	case StatusNoteOff:
		return send(gomidi.NoteOff(ev.Status&0x0F, ev.Data1))
	case StatusCC:
		return send(gomidi.ControlChange(ev.Status&0x0F, ev.Data1, ev.Data2))
	}
	return nil
}
