package har

import "fmt"

// DefaultMissingHint tells the test author how to create a missing archive.
const DefaultMissingHint = "run the test once with REPLAY_RECORD_MODE=once to record it"

// ArchiveMissingError is returned when an archive location does not exist.
type ArchiveMissingError struct {
	Location string
	Hint     string
}

func (e *ArchiveMissingError) Error() string {
	hint := e.Hint
	if hint == "" {
		hint = DefaultMissingHint
	}
	return fmt.Sprintf("archive %s does not exist: %s", e.Location, hint)
}

// ArchiveDecodeError is returned when an archive cannot be decoded or fails
// validation.
type ArchiveDecodeError struct {
	Location string
	Detail   string
	Err      error
}

func (e *ArchiveDecodeError) Error() string {
	return fmt.Sprintf("archive %s is invalid: %s (fix or delete the file, or re-record it with REPLAY_RECORD_MODE=rewrite)", e.Location, e.Detail)
}

func (e *ArchiveDecodeError) Unwrap() error {
	return e.Err
}
