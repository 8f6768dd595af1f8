// Package audio generates the beeper tone and records it to WAV files.
package audio

import (
	"github.com/go-audio/audio"
)

// Defaults for the beeper tone.
const (
	DefaultSampleRate = 44100
	DefaultFrequency  = 440
	DefaultVolume     = 48

	// Silence is the center value of unsigned 8-bit samples.
	Silence = 128

	bitDepth = 8
)

// Tone is a square wave generator producing unsigned 8-bit samples. The
// phase is kept between calls so consecutive buffers join without clicks.
type Tone struct {
	sampleRate int
	volume     int
	half       int // samples per half period
	phase      int
}

// NewTone returns a square wave generator. The frequency is clamped to the
// range the sample rate can represent and the volume is the amplitude
// around the silence value.
func NewTone(sampleRate, frequency int, volume uint8) *Tone {
	half := 1
	if frequency > 0 {
		half = max(1, sampleRate/(2*frequency))
	}
	return &Tone{
		sampleRate: sampleRate,
		volume:     min(int(volume), Silence-1),
		half:       half,
	}
}

// SampleRate returns the sample rate of the tone.
func (t *Tone) SampleRate() int {
	return t.sampleRate
}

// Format returns the buffer format of the generated samples.
func (t *Tone) Format() *audio.Format {
	return &audio.Format{
		NumChannels: 1,
		SampleRate:  t.sampleRate,
	}
}

// Fill writes the next samples of the wave into the buffer.
func (t *Tone) Fill(buf *audio.IntBuffer) {
	for i := range buf.Data {
		buf.Data[i] = t.next()
	}
}

// PCM8 returns the next n samples as unsigned 8-bit PCM data.
func (t *Tone) PCM8(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(t.next())
	}
	return data
}

// Reset restarts the wave at the beginning of a period.
func (t *Tone) Reset() {
	t.phase = 0
}

func (t *Tone) next() int {
	high := t.phase < t.half
	t.phase++
	if t.phase >= 2*t.half {
		t.phase = 0
	}

	if high {
		return Silence + t.volume
	}
	return Silence - t.volume
}

// FillSilence sets all samples of the buffer to the silence value.
func FillSilence(buf *audio.IntBuffer) {
	for i := range buf.Data {
		buf.Data[i] = Silence
	}
}
