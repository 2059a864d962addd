package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrRepoConfig        = fmt.Errorf("invalid repository configuration")

	// Fetch errors.
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrUnexpectedStatus = fmt.Errorf("unexpected HTTP status")

	// Integrity errors.
	ErrChecksumMismatch = fmt.Errorf("checksum mismatch")
	ErrUnknownDigest    = fmt.Errorf("unknown digest algorithm")

	// Metadata errors.
	ErrMetadataMissing     = fmt.Errorf("repository metadata missing")
	ErrPrimaryMissing      = fmt.Errorf("primary metadata missing")
	ErrUnknownCompression  = fmt.Errorf("unsupported metadata compression")
	ErrMetadataParse       = fmt.Errorf("failed to parse repository metadata")
	ErrInvalidLocationHref = fmt.Errorf("invalid package location href")

	// Path errors.
	ErrInvalidPath = fmt.Errorf("invalid path")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
