// Package sdl implements a frontend using an SDL2 window for output,
// keyboard events for input and an audio device for the beeper tone.
//
// SDL requires all calls to happen on the main OS thread, New locks the
// calling goroutine to its thread.
package sdl

import (
	"fmt"
	"runtime"
	"time"

	"github.com/retroenv/retrochip8/internal/audio"
	"github.com/retroenv/retrochip8/internal/bus"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/frontend"
	"github.com/retroenv/retrogolib/log"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	title = "retrochip8"

	audioBufferSamples = 512
	// audio queued ahead of playback, kept short to limit latency
	audioQueueLimit = 4 * audioBufferSamples
)

// Frontend is an SDL2 window frontend.
type Frontend struct {
	logger *log.Logger

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	audioDevice sdl.AudioDeviceID
	tone        *audio.Tone
	beeping     bool

	keys *frontend.Keys
	quit bool
}

var _ emulator.Frontend = (*Frontend)(nil)

// New opens the window scaled by the given factor and the audio device. A
// missing audio device is logged and leaves the frontend silent.
func New(logger *log.Logger, scale int) (*Frontend, error) {
	scale = max(1, scale)

	runtime.LockOSThread()
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("initializing sdl: %w", err)
	}

	f := &Frontend{
		logger: logger,
		keys:   frontend.NewKeys(0),
	}

	var err error
	f.window, err = sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(display.Width*scale), int32(display.Height*scale), sdl.WINDOW_SHOWN)
	if err != nil {
		f.destroy()
		return nil, fmt.Errorf("creating window: %w", err)
	}

	f.renderer, err = sdl.CreateRenderer(f.window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		f.destroy()
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	f.texture, err = f.renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING, display.Width, display.Height)
	if err != nil {
		f.destroy()
		return nil, fmt.Errorf("creating texture: %w", err)
	}

	if err := f.openAudio(); err != nil {
		logger.Warn("Audio output not available", log.Err(err))
	}
	return f, nil
}

func (f *Frontend) openAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     audio.DefaultSampleRate,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  audioBufferSamples,
	}

	var actual sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, spec, &actual, 0)
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}

	f.audioDevice = id
	f.tone = audio.NewTone(int(actual.Freq), audio.DefaultFrequency, audio.DefaultVolume)
	sdl.PauseAudioDevice(id, false)
	return nil
}

// Poll processes the pending SDL events.
func (f *Frontend) Poll() (emulator.Input, error) {
	now := time.Now()

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			f.quit = true

		case *sdl.KeyboardEvent:
			if e.Keysym.Sym == sdl.K_ESCAPE {
				f.quit = true
				continue
			}
			key, ok := bus.KeyFromRune(rune(e.Keysym.Sym))
			if !ok {
				continue
			}
			if e.Type == sdl.KEYDOWN {
				f.keys.Press(key, now)
			} else {
				f.keys.Release(key)
			}
		}
	}

	f.queueAudio()

	return emulator.Input{
		Key:  f.keys.Current(now),
		Quit: f.quit,
	}, nil
}

// Render copies the framebuffer into the window.
func (f *Frontend) Render(fb *display.Framebuffer) error {
	pixels, pitch, err := f.texture.Lock(nil)
	if err != nil {
		return fmt.Errorf("locking texture: %w", err)
	}
	frontend.FillARGB(pixels, pitch, fb, frontend.ColorOn, frontend.ColorOff)
	f.texture.Unlock()

	if err := f.renderer.Clear(); err != nil {
		return fmt.Errorf("clearing renderer: %w", err)
	}
	if err := f.renderer.Copy(f.texture, nil, nil); err != nil {
		return fmt.Errorf("copying texture: %w", err)
	}
	f.renderer.Present()
	return nil
}

// Beep switches the tone on or off.
func (f *Frontend) Beep(on bool) {
	f.beeping = on
	if f.tone == nil {
		return
	}
	if !on {
		sdl.ClearQueuedAudio(f.audioDevice)
		f.tone.Reset()
		return
	}
	f.queueAudio()
}

// queueAudio keeps the device queue filled while the tone is on.
func (f *Frontend) queueAudio() {
	if !f.beeping || f.tone == nil {
		return
	}

	queued := int(sdl.GetQueuedAudioSize(f.audioDevice))
	if queued >= audioQueueLimit {
		return
	}
	if err := sdl.QueueAudio(f.audioDevice, f.tone.PCM8(audioQueueLimit-queued)); err != nil {
		f.logger.Warn("Queueing audio failed", log.Err(err))
	}
}

// Close releases all SDL resources.
func (f *Frontend) Close() error {
	f.destroy()
	return nil
}

func (f *Frontend) destroy() {
	if f.audioDevice != 0 {
		sdl.CloseAudioDevice(f.audioDevice)
		f.audioDevice = 0
	}
	if f.texture != nil {
		_ = f.texture.Destroy()
		f.texture = nil
	}
	if f.renderer != nil {
		_ = f.renderer.Destroy()
		f.renderer = nil
	}
	if f.window != nil {
		_ = f.window.Destroy()
		f.window = nil
	}
	sdl.Quit()
}
