// Package verification verifies that the generated listing recreates the input.
package verification

import (
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/retrochip8/internal/asm"
	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// maxReportedMismatches limits the logged mismatches of a comparison.
const maxReportedMismatches = 10

// VerifyOutput assembles the written listing and compares the result with
// the input image.
func VerifyOutput(logger *log.Logger, opts options.Program, image []byte) error {
	if opts.Output == "" {
		return errors.New("can not verify console output")
	}

	file, err := os.Open(opts.Output)
	if err != nil {
		return fmt.Errorf("opening listing '%s': %w", opts.Output, err)
	}
	defer func() { _ = file.Close() }()

	reassembled, err := asm.Assemble(file)
	if err != nil {
		return fmt.Errorf("reassembling listing: %w", err)
	}

	return checkBufferEqual(logger, image, reassembled)
}

func checkBufferEqual(logger *log.Logger, input, output []byte) error {
	if len(input) != len(output) {
		return fmt.Errorf("mismatched lengths, %d != %d", len(input), len(output))
	}

	var diffs uint64
	for i := range input {
		if input[i] == output[i] {
			continue
		}

		diffs++
		if diffs <= maxReportedMismatches {
			logger.Error("Address mismatch",
				log.Hex("address", memory.ProgramStart+i),
				log.Hex("expected", input[i]),
				log.Hex("got", output[i]))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d address mismatches", diffs)
}
