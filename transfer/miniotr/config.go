package miniotr

// Config defines the configuration options for the MinIO transferrer.
type Config struct {
	// Endpoint is the MinIO server endpoint (e.g., "localhost:9000").
	Endpoint string `yaml:"endpoint" validate:"required"`

	// AccessKey is the access key for authentication.
	AccessKey string `yaml:"access_key" validate:"required"`

	// SecretKey is the secret key for authentication.
	SecretKey string `yaml:"secret_key" validate:"required"`

	// Bucket is the bucket uploads are stored in.
	Bucket string `yaml:"bucket" validate:"required"`

	// UseSSL enables HTTPS connection to the MinIO server.
	UseSSL bool `yaml:"use_ssl" default:"false"`

	// PublicBaseURL, when set, is used to build the durable URL returned
	// for uploaded objects (<PublicBaseURL>/<object>). When empty the
	// upload location reported by MinIO is returned instead.
	PublicBaseURL string `yaml:"public_base_url"`
}
