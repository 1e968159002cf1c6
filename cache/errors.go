package cache

import (
	"errors"
	"fmt"
)

// Sentinel and structured error kinds per the cache's error handling design.
// Mirrors the teacher's pattern of small per-package errors.go files
// (indexes/errors.go, store/types/errors.go) plus original_source's
// CacheError enum.
var (
	ErrDirectoryNotFound = errors.New("cache: directory not found")
	ErrDataFileNotFound  = errors.New("cache: data file not found")
	ErrIndexFileNotFound = errors.New("cache: index file not found")
	ErrIndexNotExists    = errors.New("cache: index does not exist")

	ErrUnsupportedCompression = errors.New("cache: unsupported compression tag")
	ErrDecompressionFailed    = errors.New("cache: decompression failed")
	ErrInvalidContainer       = errors.New("cache: invalid container format")
	ErrReferenceTable         = errors.New("cache: reference table parse error")
)

// ArchiveNotFoundError reports a missing (index, archive) entry.
type ArchiveNotFoundError struct {
	Index   IndexId
	Archive ArchiveId
}

func (e *ArchiveNotFoundError) Error() string {
	return fmt.Sprintf("cache: archive %s not found in index %s", e.Archive, e.Index)
}

// FileNotFoundError reports a missing file within an otherwise-resolved archive.
type FileNotFoundError struct {
	Archive ArchiveId
	File    FileId
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("cache: file %s not found in archive %s", e.File, e.Archive)
}

// InvalidIndexEntryError reports an index entry pointing outside the data file.
type InvalidIndexEntryError struct {
	Archive ArchiveId
}

func (e *InvalidIndexEntryError) Error() string {
	return fmt.Sprintf("cache: invalid index entry for archive %s", e.Archive)
}

// CorruptedChainError reports a sector chain that ended early or looped.
type CorruptedChainError struct {
	Archive ArchiveId
	Reason  string
}

func (e *CorruptedChainError) Error() string {
	return fmt.Sprintf("cache: corrupted sector chain for archive %s: %s", e.Archive, e.Reason)
}

// HeaderMismatchError reports a sector header that disagrees with its
// expected archive id.
type HeaderMismatchError struct {
	Expected ArchiveId
	Actual   uint32
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("cache: sector header mismatch: expected archive %s, got %d", e.Expected, e.Actual)
}
