package validate

// Error codes for intake validation failures.
const (
	// CodeFileTooLarge is returned when a file exceeds the byte ceiling
	// configured for its media kind.
	CodeFileTooLarge = "FILE_TOO_LARGE"

	// CodeTypeNotAccepted is returned when neither the declared MIME type
	// nor the filename extension matches the accepted set.
	CodeTypeNotAccepted = "TYPE_NOT_ACCEPTED"

	// CodeVideoNotAllowed is returned for video candidates when video
	// intake is disabled by configuration.
	CodeVideoNotAllowed = "VIDEO_NOT_ALLOWED"

	// CodeTooManyFiles is returned when admitting a new batch would push
	// the total media count past the configured maximum.
	CodeTooManyFiles = "TOO_MANY_FILES"
)
