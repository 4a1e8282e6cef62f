package pipeline

// Error codes for session-level operations.
const (
	// CodeSessionClosed is returned for any operation on a closed session.
	CodeSessionClosed = "SESSION_CLOSED"

	// CodeUploadInFlight is returned when a resync is attempted while a
	// batch is still uploading.
	CodeUploadInFlight = "UPLOAD_IN_FLIGHT"

	// CodeNothingPending is returned when Upload is called with no
	// pending files to submit.
	CodeNothingPending = "NOTHING_PENDING"

	// CodePendingNotFound is returned when a pending-file operation names
	// an unknown or already submitted entry.
	CodePendingNotFound = "PENDING_NOT_FOUND"

	// CodeBatchAborted is returned when an upload batch was cancelled
	// before completion; its partial results are discarded.
	CodeBatchAborted = "BATCH_ABORTED"
)
