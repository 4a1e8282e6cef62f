package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rise-and-shine/mediakit/logger"
	"github.com/rise-and-shine/mediakit/tracing"
	"github.com/rise-and-shine/mediakit/transfer/miniotr"
	"github.com/rise-and-shine/mediakit/validate"
	"gopkg.in/yaml.v3"
)

// Config is the full application-level configuration for a media pipeline:
// intake rules plus the ambient logger/tracing setup and the MinIO storage
// the default transferrer talks to. Hosts embedding only the session can
// ignore it and construct validate.Config directly.
type Config struct {
	Logger  logger.Config   `yaml:"logger"`
	Tracing tracing.Config  `yaml:"tracing"`
	Intake  validate.Config `yaml:"intake"`
	Storage miniotr.Config  `yaml:"storage"`
}

// LoadConfig reads a YAML config file, expanding ${VAR} references from the
// environment (a .env file is loaded first when present), applies struct
// defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errx.Wrap(err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errx.Wrap(err)
	}

	if err := defaults.Set(&cfg); err != nil {
		return cfg, errx.Wrap(err)
	}

	if err := validateStruct(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// validateStruct runs go-playground validation and flattens field failures
// into one readable error.
func validateStruct(v any) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(v)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors) //nolint: errorlint // validator returns its error slice directly
	if !ok {
		return errx.Wrap(err)
	}

	failed := make([]string, 0, len(errs))
	for _, fe := range errs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		failed = append(failed, fmt.Sprintf("%s: %s", fe.Namespace(), tag))
	}

	return errx.New(
		"invalid configuration -> "+strings.Join(failed, ", "),
		errx.WithType(errx.T_Validation),
	)
}
