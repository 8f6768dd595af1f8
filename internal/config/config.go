// Package config handles application configuration and setup
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/audio"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// CreateRecorder creates a WAV recorder writing to the given file. The
// returned closer finalizes the recording and closes the file.
func CreateRecorder(path string) (*audio.Recorder, io.Closer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating wav file %s: %w", path, err)
	}

	rec := audio.NewRecorder(file, audio.DefaultSampleRate)
	return rec, &recording{rec: rec, file: file}, nil
}

type recording struct {
	rec  *audio.Recorder
	file *os.File
}

func (r *recording) Close() error {
	recErr := r.rec.Close()
	fileErr := r.file.Close()
	if recErr != nil {
		return recErr
	}
	if fileErr != nil {
		return fmt.Errorf("closing wav file: %w", fileErr)
	}
	return nil
}
