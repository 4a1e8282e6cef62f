package upload

// Error codes for upload orchestration failures.
const (
	// CodeTransferFailed is attached to per-file transfer errors surfaced
	// in a BatchResult.
	CodeTransferFailed = "TRANSFER_FAILED"

	// CodeSourceUnreadable is returned when a pending file's source
	// handle cannot be opened for reading.
	CodeSourceUnreadable = "SOURCE_UNREADABLE"
)
