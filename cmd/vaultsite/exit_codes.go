package main

import (
	"errors"
	"os"

	vaultsite "github.com/alnah/go-vaultsite"
	"github.com/alnah/go-vaultsite/internal/config"
)

// Exit codes for the vaultsite CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Site built without failures
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or validation
	ExitIO       = 3 // Vault not found, permission denied
	ExitDocument = 4 // One or more pages, assets or directories failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, vaultsite.ErrEmptyVault) ||
		errors.Is(err, vaultsite.ErrOutputIsRoot) ||
		errors.Is(err, vaultsite.ErrInvalidPattern) ||
		errors.Is(err, vaultsite.ErrInvalidAssetPath) ||
		errors.Is(err, vaultsite.ErrInvalidDateFormat) ||
		errors.Is(err, vaultsite.ErrStyleNotFound) ||
		errors.Is(err, vaultsite.ErrHighlightStyle) {
		return ExitUsage
	}

	// Document errors (exit 4). Checked before I/O: a page that failed to
	// write usually wraps an os.ErrPermission too.
	if errors.Is(err, ErrBuildFailed) ||
		errors.Is(err, vaultsite.ErrPipelineFatal) ||
		errors.Is(err, vaultsite.ErrFrontmatter) ||
		errors.Is(err, vaultsite.ErrWritePage) ||
		errors.Is(err, vaultsite.ErrCopyAsset) ||
		errors.Is(err, vaultsite.ErrSharedAsset) ||
		errors.Is(err, vaultsite.ErrDirectoryRename) {
		return ExitDocument
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, vaultsite.ErrVaultWalk) {
		return ExitIO
	}

	return ExitGeneral
}
