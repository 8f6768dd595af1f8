package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Program
	}{
		{
			name: "default flags",
			args: []string{"prog", "game.ch8"},
			want: options.Program{
				Parameters: options.Parameters{Input: "game.ch8"},
				Flags:      options.Flags{Frontend: "sdl", Scale: 10, Clock: 600},
			},
		},
		{
			name: "disasm mode with output flags",
			args: []string{"prog", "-mode", "DISASM", "-o", "game.asm", "-nohexcomments", "-nooffsets", "game.ch8"},
			want: options.Program{
				Parameters:  options.Parameters{Input: "game.ch8", Output: "game.asm"},
				Flags:       options.Flags{Mode: "disasm", Frontend: "sdl", Scale: 10, Clock: 600},
				OutputFlags: options.OutputFlags{NoHexComments: true, NoOffsets: true},
			},
		},
		{
			name: "terminal frontend with quirks",
			args: []string{"prog", "-frontend", "terminal", "-clock", "900", "-seed", "3", "-shift-vy", "-loadstore-inc", "game.ch8"},
			want: options.Program{
				Parameters: options.Parameters{Input: "game.ch8"},
				Flags:      options.Flags{Frontend: "terminal", Scale: 10, Clock: 900, Seed: 3},
				QuirkFlags: options.QuirkFlags{ShiftUsesVY: true, LoadStoreIncrementsI: true},
			},
		},
		{
			name: "empty argument after input file",
			args: []string{"prog", "game.ch8", ""},
			want: options.Program{
				Parameters: options.Parameters{Input: "game.ch8"},
				Flags:      options.Flags{Frontend: "sdl", Scale: 10, Clock: 600},
			},
		},
		{
			name: "file and behavior flags",
			args: []string{"prog", "-wav", "beep.wav", "-memviz", "state.dot", "-scale", "4", "-statsview", "-debug", "-q", "game.ch8"},
			want: options.Program{
				Parameters: options.Parameters{Input: "game.ch8", Wav: "beep.wav", MemViz: "state.dot"},
				Flags:      options.Flags{Frontend: "sdl", Scale: 4, Clock: 600, StatsView: true, Debug: true, Quiet: true},
			},
		},
		{
			name: "input flag",
			args: []string{"prog", "-mode", "asm", "-i", "game.asm"},
			want: options.Program{
				Parameters: options.Parameters{Input: "game.asm"},
				Flags:      options.Flags{Mode: "asm", Frontend: "sdl", Scale: 10, Clock: 600},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			got, err := ParseFlags()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		usage bool
	}{
		{name: "no input", args: []string{"prog"}, usage: true},
		{name: "flag after file", args: []string{"prog", "game.ch8", "-q"}, usage: true},
		{name: "help", args: []string{"prog", "-h"}, usage: true},
		{name: "unknown flag", args: []string{"prog", "-fullscreen", "game.ch8"}},
		{name: "invalid mode", args: []string{"prog", "-mode", "debug", "game.ch8"}},
		{name: "invalid frontend", args: []string{"prog", "-frontend", "gl", "game.ch8"}},
		{name: "invalid scale", args: []string{"prog", "-scale", "0", "game.ch8"}},
		{name: "clock below timer rate", args: []string{"prog", "-clock", "30", "game.ch8"}},
		{name: "verify in run mode", args: []string{"prog", "-mode", "run", "-verify", "-o", "x.asm", "game.ch8"}},
		{name: "verify without output", args: []string{"prog", "-mode", "disasm", "-verify", "game.ch8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			_, err := ParseFlags()
			assert.Error(t, err)

			var usageErr *UsageError
			assert.Equal(t, tt.usage, errors.As(err, &usageErr))
		})
	}
}

func TestValidateArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "single file", args: []string{"game.ch8"}},
		{name: "empty argument", args: []string{"game.ch8", ""}},
		{name: "dash as first argument", args: []string{"-"}},
		{name: "flag after file", args: []string{"game.ch8", "-debug"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
