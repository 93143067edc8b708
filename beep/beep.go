// Package beep plays the short audio cues around listening.
package beep

import (
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

func Enabled() bool { return !disabled.Load() }

const sampleRate = 44100

type Cue int

const (
	CueStart Cue = iota // listening began
	CueEnd              // listening stopped
	CueError            // recognition failed
)

type toneSpec struct {
	freq, volume, decay float64
	duration            float64 // seconds per beep
	gap                 float64 // seconds between beeps, 0 for a single tick
}

var cues = map[Cue]toneSpec{
	CueStart: {freq: 1200, volume: 0.5, decay: 60, duration: 0.2},
	CueEnd:   {freq: 900, volume: 0.5, decay: 40, duration: 0.2},
	CueError: {freq: 350, volume: 0.6, decay: 30, duration: 0.08, gap: 0.05},
}

// samples renders a cue as mono PCM16 at sampleRate.
func (s toneSpec) samples() []int16 {
	tick := tone(s.freq, s.duration, s.volume, s.decay)
	if s.gap == 0 {
		return tick
	}
	out := make([]int16, 0, 2*len(tick)+int(sampleRate*s.gap))
	out = append(out, tick...)
	out = append(out, make([]int16, int(sampleRate*s.gap))...)
	return append(out, tick...)
}

// tone is a sine with an exponential decay envelope.
func tone(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * math.Exp(-t*decay))
	}
	return out
}

func stereo(mono []int16) []int16 {
	out := make([]int16, 2*len(mono))
	for i, s := range mono {
		out[2*i] = s
		out[2*i+1] = s
	}
	return out
}

func littleEndian(pcm []int16) []byte {
	out := make([]byte, 2*len(pcm))
	for i, s := range pcm {
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

func PlayStart() { Play(CueStart) }
func PlayEnd()   { Play(CueEnd) }
func PlayError() { Play(CueError) }

// Play starts the cue and returns without waiting for it to finish.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	play(c)
}
