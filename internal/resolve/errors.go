package resolve

import (
	"fmt"
	"strings"
)

// ManifestNotFoundError occurs when manifest.yaml doesn't exist.
type ManifestNotFoundError struct {
	Path string
	Err  error
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest not found at %s: %v", e.Path, e.Err)
}

func (e *ManifestNotFoundError) Unwrap() error {
	return e.Err
}

// ManifestParseError occurs when manifest.yaml is malformed.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ManifestValidationError occurs when a manifest field is missing or invalid.
type ManifestValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ManifestValidationError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %s: %s", e.Path, e.Field, e.Message)
}

// ArtifactNotFoundError occurs when no library artifact exists for the
// requested platform in any searched location.
type ArtifactNotFoundError struct {
	File     string
	Searched []string
}

func (e *ArtifactNotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("library artifact %s not found", e.File)
	}
	return fmt.Sprintf("library artifact %s not found, searched: %s",
		e.File, strings.Join(e.Searched, ", "))
}
