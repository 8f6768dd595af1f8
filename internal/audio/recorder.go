package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

var errRecorderClosed = errors.New("recorder is closed")

// Recorder writes the beeper output as mono 8-bit WAV data. Every frame of
// the host loop adds either a slice of the tone or silence.
type Recorder struct {
	enc    *wav.Encoder
	tone   *Tone
	buf    *audio.IntBuffer
	frames int
	closed bool
}

// NewRecorder returns a recorder writing to w. The WAV header is finalized
// by Close, which requires w to be seekable.
func NewRecorder(w io.WriteSeeker, sampleRate int) *Recorder {
	tone := NewTone(sampleRate, DefaultFrequency, DefaultVolume)
	return &Recorder{
		enc:  wav.NewEncoder(w, sampleRate, bitDepth, 1, wavFormatPCM),
		tone: tone,
		buf: &audio.IntBuffer{
			Format:         tone.Format(),
			SourceBitDepth: bitDepth,
		},
	}
}

// Frame records one frame of audio at the given frame rate.
func (r *Recorder) Frame(beeping bool, frameRate int) error {
	if r.closed {
		return errRecorderClosed
	}
	if frameRate <= 0 {
		return fmt.Errorf("invalid frame rate %d", frameRate)
	}

	n := r.tone.SampleRate() / frameRate
	if cap(r.buf.Data) < n {
		r.buf.Data = make([]int, n)
	}
	r.buf.Data = r.buf.Data[:n]

	if beeping {
		r.tone.Fill(r.buf)
	} else {
		FillSilence(r.buf)
		r.tone.Reset()
	}

	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("writing audio frame: %w", err)
	}
	r.frames++
	return nil
}

// Frames returns the number of recorded frames.
func (r *Recorder) Frames() int {
	return r.frames
}

// Close finalizes the WAV header. The underlying writer is not closed.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav data: %w", err)
	}
	return nil
}
