package encryption

import "time"

// Result represents the outcome of processing a single file.
type Result struct {
	// Input file path
	Input string

	// Output file path
	Output string

	// Input file size in bytes
	InputSize int64

	// Output file size in bytes
	OutputSize int64

	// Time spent on the file
	Duration time.Duration

	// Any error that occurred during processing
	Error error
}

// Summary aggregates the results of a run.
type Summary struct {
	Processed int
	Errored   int
	Deleted   int
	InputSize int64
	TotalSize int64
}

func (s *Summary) add(r Result) {
	if r.Error != nil {
		s.Errored++

		return
	}

	s.Processed++
	s.InputSize += r.InputSize
	s.TotalSize += r.OutputSize
}
