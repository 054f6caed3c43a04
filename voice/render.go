package voice

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
)

// controlBlock is how many samples share one set of filter coefficients.
const controlBlock = 32

// noiseSeed makes renders reproducible.
const noiseSeed = 1

// chainState is the running DSP state of one chain.
type chainState struct {
	phase  float64
	noise  int
	filter biquad
}

// Renderer turns the engine's parameter timelines into samples. It is a
// beep.Streamer; sample n sits at audio time n/sampleRate.
type Renderer struct {
	engine     *Engine
	sampleRate beep.SampleRate
	pos        int64
	noise      []float64
	state      [NumMachines][]chainState
}

func NewRenderer(e *Engine, sr beep.SampleRate) *Renderer {
	r := &Renderer{
		engine:     e,
		sampleRate: sr,
		noise:      noiseLoop(sr.N(time.Second)),
	}
	for i, m := range e.machines {
		r.state[i] = make([]chainState, len(m.Chains))
	}
	return r
}

// noiseLoop pre-generates one second of white noise.
func noiseLoop(n int) []float64 {
	rng := rand.New(rand.NewSource(noiseSeed))
	buf := make([]float64, max(n, 1))
	for i := range buf {
		buf[i] = rng.Float64()*2 - 1
	}
	return buf
}

// Time returns the audio clock: the time of the next sample to render.
func (r *Renderer) Time() float64 {
	return float64(r.pos) / float64(r.sampleRate)
}

func (r *Renderer) SampleRate() beep.SampleRate { return r.sampleRate }

// Stream renders len(samples) frames of mono output into both channels.
func (r *Renderer) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		samples[i] = [2]float64{}
	}
	for slot, m := range r.engine.machines {
		r.renderMachine(m, r.state[slot], samples)
	}
	for i := range samples {
		samples[i][1] = samples[i][0]
	}
	r.pos += int64(len(samples))
	return len(samples), true
}

func (r *Renderer) Err() error { return nil }

func (r *Renderer) renderMachine(m *Machine, state []chainState, out [][2]float64) {
	sr := float64(r.sampleRate)
	start := r.pos

	m.mu.Lock()
	defer m.mu.Unlock()

	for ci, c := range m.Chains {
		st := &state[ci]
		for i := range out {
			t := float64(start+int64(i)) / sr
			if c.Filter != nil && i%controlBlock == 0 {
				st.filter.update(c.Filter.Kind, c.Filter.Frequency.ValueAt(t), c.Filter.Q.ValueAt(t), sr)
			}

			var x float64
			if c.Noise {
				x = r.noise[st.noise]
				st.noise = (st.noise + 1) % len(r.noise)
			} else {
				x = oscillate(c.Shape, st.phase)
				st.phase += c.Frequency.ValueAt(t) / sr
				st.phase -= math.Floor(st.phase)
			}
			if c.Filter != nil {
				x = st.filter.process(x)
			}
			x *= c.Gain.ValueAt(t)
			out[i][0] += x * m.Output.ValueAt(t)
		}
	}
	end := float64(start) / sr
	for _, p := range m.params {
		p.Prune(end)
	}
}

func oscillate(shape Waveform, phase float64) float64 {
	switch shape {
	case WaveTriangle:
		return 4*math.Abs(phase-0.5) - 1
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveSawtooth:
		return 2*phase - 1
	}
	return math.Sin(2 * math.Pi * phase)
}
