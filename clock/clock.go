// Package clock converts tempo and sample rate into a frame-accurate
// timebase and detects step-start and mid-step boundary crossings
// within a tick.
package clock

// Crossing describes the boundaries detected during one Advance call.
// Offsets are sample counts relative to the start of the tick that was
// advanced, suitable for stamping a MIDI event within that tick.
type Crossing struct {
	StepStart  bool
	StepOffset int32
	MidStep    bool
	MidOffset  int32
}

// Clock is the sequencer's timebase: tempo and sample rate combine
// into frames_per_step (one step = one quarter note), and a 64-bit
// frame counter advances while playing.
type Clock struct {
	sampleRate    float64
	tempo         float64
	framesPerStep uint64

	frameCounter uint64
	playing      bool
}

// New creates a Clock at the given sample rate and tempo. Non-positive
// values are ignored in favor of harmless defaults (48000 Hz, 120 BPM)
// so a Clock is always usable; callers that need strict validation
// should check their own inputs before calling New.
func New(sampleRate, tempo float64) *Clock {
	c := &Clock{sampleRate: 48000, tempo: 120}
	c.recompute()
	c.SetSampleRate(sampleRate)
	c.SetTempo(tempo)
	return c
}

// recompute derives frames_per_step = round(sample_rate * 60 / tempo).
func (c *Clock) recompute() {
	if c.sampleRate <= 0 || c.tempo <= 0 {
		return
	}
	fps := c.sampleRate * 60 / c.tempo
	c.framesPerStep = uint64(fps + 0.5)
	if c.framesPerStep == 0 {
		c.framesPerStep = 1
	}
}

// SetSampleRate recomputes frames_per_step for a new sample rate.
// Non-positive values are ignored.
func (c *Clock) SetSampleRate(sr float64) {
	if sr <= 0 {
		return
	}
	c.sampleRate = sr
	c.recompute()
}

// SetTempo recomputes frames_per_step for a new tempo. Non-positive
// values are ignored. The change takes effect immediately and does
// not retroactively alter the current step index, since current step
// is always re-derived from frame_counter.
func (c *Clock) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	c.tempo = bpm
	c.recompute()
}

// FramesPerStep returns the current L value.
func (c *Clock) FramesPerStep() uint64 { return c.framesPerStep }

// Tempo returns the current tempo in BPM.
func (c *Clock) Tempo() float64 { return c.tempo }

// Playing reports whether the clock is advancing.
func (c *Clock) Playing() bool { return c.playing }

// FrameCounter returns the raw, monotonic (while playing) frame
// counter.
func (c *Clock) FrameCounter() uint64 { return c.frameCounter }

// Start sets playing=true and resets frame_counter to 0.
func (c *Clock) Start() {
	c.playing = true
	c.frameCounter = 0
}

// Stop sets playing=false; the clock no longer advances.
func (c *Clock) Stop() {
	c.playing = false
}

// CurrentStep derives the 0-based playhead column from frame_counter,
// wrapped to sequenceLength.
func (c *Clock) CurrentStep(sequenceLength int) int {
	if sequenceLength < 1 {
		sequenceLength = 1
	}
	if c.framesPerStep == 0 {
		return 0
	}
	step := (c.frameCounter / c.framesPerStep) % uint64(sequenceLength)
	return int(step)
}

// Advance moves the frame counter forward by nSamples (only while
// playing) and reports which boundaries were crossed during this
// tick.
//
// Advance assumes nSamples does not span more than one step boundary
// of each kind; callers ticking longer spans must loop in chunks small
// enough to guarantee that.
func (c *Clock) Advance(nSamples int32) Crossing {
	if !c.playing || nSamples <= 0 {
		return Crossing{}
	}
	L := c.framesPerStep
	f0 := c.frameCounter
	f1 := f0 + uint64(nSamples)
	c.frameCounter = f1

	var cr Crossing
	if L == 0 {
		return cr
	}

	if f1/L > f0/L {
		s := (f0/L + 1) * L
		cr.StepStart = true
		cr.StepOffset = int32(s - f0)
	}

	mid := (f0/L)*L + L/2
	if mid >= f0 && mid < f1 {
		cr.MidStep = true
		cr.MidOffset = int32(mid - f0)
	}
	return cr
}
