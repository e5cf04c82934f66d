package encryption

import "errors"

// ErrFilesFailed is returned by Process when at least one file could not be processed.
var ErrFilesFailed = errors.New("one or more files failed")
