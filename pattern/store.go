// Package pattern holds the step x pitch activation grid and the
// viewport/navigation state derived from it. It is pure state: no
// MIDI, no I/O, no locking — the Scheduler is the only caller and it
// runs on a single real-time thread.
package pattern

// Grid dimensions.
const (
	MaxSteps    = 16
	PitchRange  = 128
	VisibleRows = 8

	// DefaultPitchOffset is the viewport recenter target used by the
	// editor's recenter sentinel.
	DefaultPitchOffset = 36
)

// Store is the editable musical content: a fixed 16x128 grid of
// boolean cells plus sequence length, pitch viewport offset, and
// hardware page. All fields are unexported; every mutation goes
// through a method that bumps the change counter.
type Store struct {
	grid [MaxSteps][PitchRange]bool

	sequenceLength int
	pitchOffset    int
	hardwarePage   int

	changed uint32 // monotonic, wraps per editorsync's modulus, not here
}

// New returns a Store with sequence length 16, pitch offset centered
// on DefaultPitchOffset, and hardware page 0.
func New() *Store {
	return &Store{
		sequenceLength: MaxSteps,
		pitchOffset:    DefaultPitchOffset,
	}
}

// Toggle flips grid[step][pitch] iff both coordinates are in range,
// and reports whether a change occurred. Out-of-range coordinates are
// a silent no-op.
func (s *Store) Toggle(step, pitch int) bool {
	if step < 0 || step >= MaxSteps || pitch < 0 || pitch >= PitchRange {
		return false
	}
	s.grid[step][pitch] = !s.grid[step][pitch]
	s.changed++
	return true
}

// Set forces grid[step][pitch] to v, reporting whether it changed.
// Out-of-range coordinates are a silent no-op.
func (s *Store) Set(step, pitch int, v bool) bool {
	if step < 0 || step >= MaxSteps || pitch < 0 || pitch >= PitchRange {
		return false
	}
	if s.grid[step][pitch] == v {
		return false
	}
	s.grid[step][pitch] = v
	s.changed++
	return true
}

// Get reports the state of grid[step][pitch], or false if out of
// range.
func (s *Store) Get(step, pitch int) bool {
	if step < 0 || step >= MaxSteps || pitch < 0 || pitch >= PitchRange {
		return false
	}
	return s.grid[step][pitch]
}

// ClearAll sets every cell to false. SequenceLength, PitchOffset, and
// HardwarePage are left untouched.
func (s *Store) ClearAll() {
	for x := range s.grid {
		for y := range s.grid[x] {
			s.grid[x][y] = false
		}
	}
	s.changed++
}

// SequenceLength returns the number of columns that participate in
// playback.
func (s *Store) SequenceLength() int { return s.sequenceLength }

// SetLength clamps n to [1, MaxSteps] and stores it without touching
// any grid cell. If the hardware page was viewing the second half of
// the sequence and the new length no longer reaches it, the page is
// reset to 0.
func (s *Store) SetLength(n int) {
	if n < 1 {
		n = 1
	} else if n > MaxSteps {
		n = MaxSteps
	}
	s.sequenceLength = n
	if s.hardwarePage == 1 && n <= VisibleRows {
		s.hardwarePage = 0
	}
	s.changed++
}

// PitchOffset returns the bottom row of the 8-row viewport.
func (s *Store) PitchOffset() int { return s.pitchOffset }

// SetPitchOffset clamps o to [0, PitchRange-VisibleRows] and stores it.
func (s *Store) SetPitchOffset(o int) {
	if o < 0 {
		o = 0
	} else if o > PitchRange-VisibleRows {
		o = PitchRange - VisibleRows
	}
	s.pitchOffset = o
	s.changed++
}

// HardwarePage returns which 8-column slice of the sequence the
// hardware device is viewing.
func (s *Store) HardwarePage() int { return s.hardwarePage }

// SetHardwarePage accepts p in {0,1}; page 1 is rejected unless
// SequenceLength() > VisibleRows. Any other value of
// p is a no-op.
func (s *Store) SetHardwarePage(p int) {
	if p != 0 && p != 1 {
		return
	}
	if p == 1 && s.sequenceLength <= VisibleRows {
		return
	}
	s.hardwarePage = p
	s.changed++
}

// ChangeCounter returns the raw monotonic mutation counter exposed via
// Editor Sync. It wraps silently at
// the uint32 boundary; editorsync reduces it modulo 10^6 for the
// observable grid_changed channel.
func (s *Store) ChangeCounter() uint32 { return s.changed }

// PackVisibleRow returns the 8-bit packing of column x's visible
// slice: bit y is set iff grid[x][pitchOffset+y] is true. Defined for
// every x in [0, MaxSteps), including columns beyond SequenceLength
// regardless of SequenceLength.
func (s *Store) PackVisibleRow(x int) uint8 {
	if x < 0 || x >= MaxSteps {
		return 0
	}
	var row uint8
	for y := 0; y < VisibleRows; y++ {
		pitch := s.pitchOffset + y
		if pitch < PitchRange && s.grid[x][pitch] {
			row |= 1 << uint(y)
		}
	}
	return row
}

// Snapshot returns one packed byte per step (see PackVisibleRow) for
// the currently visible 8-pitch viewport, enough for a host to persist
// or restore what a player can currently see and edit without reaching
// into grid internals. A host needing the full 128-pitch grid reads
// Get(step, pitch) directly instead.
func (s *Store) Snapshot() [MaxSteps]uint8 {
	var out [MaxSteps]uint8
	for x := 0; x < MaxSteps; x++ {
		out[x] = s.PackVisibleRow(x)
	}
	return out
}

// Viewport64 packs the current 8x8 visible slice into the 64-byte
// editor-notification blob: grid_data[x*8+y] = 1 if
// grid[x][pitchOffset+y] is set, else 0. It always covers columns 0-7,
// regardless of SequenceLength and HardwarePage.
func (s *Store) Viewport64() [64]byte {
	var out [64]byte
	for x := 0; x < MaxSteps && x < 8; x++ {
		for y := 0; y < VisibleRows; y++ {
			pitch := s.pitchOffset + y
			if pitch < PitchRange && s.grid[x][pitch] {
				out[x*8+y] = 1
			}
		}
	}
	return out
}
