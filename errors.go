package vaultsite

import (
	"errors"

	"github.com/alnah/go-vaultsite/internal/assets"
	"github.com/alnah/go-vaultsite/internal/dateutil"
	"github.com/alnah/go-vaultsite/internal/dirnorm"
	"github.com/alnah/go-vaultsite/internal/pathmap"
	"github.com/alnah/go-vaultsite/internal/pipeline"
	"github.com/alnah/go-vaultsite/internal/vault"
)

// Sentinel errors for library operations.
var (
	ErrInvalidPath         = pathmap.ErrInvalidPath
	ErrPipelineFatal       = pipeline.ErrPipelineFatal
	ErrFrontmatter         = pipeline.ErrFrontmatter
	ErrRunnerNotConfigured = pipeline.ErrRunnerNotConfigured
	ErrVaultWalk           = vault.ErrVaultWalk
	ErrInvalidPattern      = vault.ErrInvalidPattern
	ErrDirectoryCollision  = dirnorm.ErrDirectoryCollision
	ErrDirectoryRename     = dirnorm.ErrDirectoryRename

	ErrWritePage    = errors.New("cannot write page")
	ErrCopyAsset    = errors.New("cannot copy asset")
	ErrSharedAsset  = errors.New("cannot write shared asset")
	ErrEmptyVault   = errors.New("vault directory cannot be empty")
	ErrOutputIsRoot = errors.New("output directory cannot be the vault or contain it")
	ErrPageConflict = errors.New("another note already maps to this page")

	// Asset loading errors.
	ErrStyleNotFound    = assets.ErrStyleNotFound
	ErrHighlightStyle   = assets.ErrHighlightStyle
	ErrKatexDir         = assets.ErrKatexDir
	ErrInvalidAssetPath = errors.New("invalid asset path")

	ErrInvalidDateFormat = dateutil.ErrInvalidDateFormat
)
