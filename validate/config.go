package validate

// Config defines the intake rules enforced by the Gate.
// All values are fixed for the lifetime of an editing session.
type Config struct {
	// MaxFiles caps the total number of media entries a session may hold,
	// counting both committed items and pending files.
	MaxFiles int `yaml:"max_files" default:"10" validate:"min=1"`

	// MaxImageBytes is the byte ceiling for image-kind files.
	MaxImageBytes int64 `yaml:"max_image_bytes" default:"10000000" validate:"min=1"`

	// MaxVideoBytes is the byte ceiling for video-kind files.
	MaxVideoBytes int64 `yaml:"max_video_bytes" default:"50000000" validate:"min=1"`

	// AllowVideo enables video intake. When false (the zero value) every
	// video candidate is rejected regardless of its size or type.
	AllowVideo bool `yaml:"allow_video"`

	// Accept maps accepted MIME types to their filename extensions.
	// A candidate passes the type check if its declared MIME type is a
	// key of this map, or its extension (case-insensitive) appears in
	// any of the values. Nil means DefaultAccept().
	Accept map[string][]string `yaml:"accept"`
}

// DefaultAccept returns the accepted MIME-type/extension map used when
// Config.Accept is not provided.
func DefaultAccept() map[string][]string {
	return map[string][]string{
		"image/jpeg":      {".jpg", ".jpeg"},
		"image/png":       {".png"},
		"image/webp":      {".webp"},
		"image/gif":       {".gif"},
		"video/mp4":       {".mp4"},
		"video/quicktime": {".mov"},
		"video/webm":      {".webm"},
		"application/pdf": {".pdf"},
	}
}
