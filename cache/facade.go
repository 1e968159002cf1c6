package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Cache composes the data store, per-index stores, and reference tables into
// the read-only view sessions query. It is safe for concurrent use: readers
// never block each other, and reference-table memoization is guarded by a
// single RWMutex.
type Cache struct {
	data    *DataStore
	indices map[IndexId]*IndexStore

	mu         sync.RWMutex
	references map[IndexId]*ReferenceTable

	refIndex *IndexStore
}

// Open mmaps main_file_cache.dat2 and every main_file_cache.idxN /
// main_file_cache.idx255 file found under dir.
func Open(dir string) (*Cache, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}

	data, err := OpenDataStore(filepath.Join(dir, "main_file_cache.dat2"))
	if err != nil {
		return nil, err
	}

	c := &Cache{
		data:       data,
		indices:    make(map[IndexId]*IndexStore),
		references: make(map[IndexId]*ReferenceTable),
	}

	refIndex, err := OpenIndexStore(filepath.Join(dir, "main_file_cache.idx255"), ReferenceIndex)
	if err != nil {
		data.Close()
		return nil, err
	}
	c.refIndex = refIndex

	for i := IndexId(0); i.IsValidDataIndex(); i++ {
		path := filepath.Join(dir, fmt.Sprintf("main_file_cache.idx%d", i))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		store, err := OpenIndexStore(path, i)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.indices[i] = store
		if i == MaxIndex {
			break
		}
	}

	return c, nil
}

// Close releases every underlying memory mapping.
func (c *Cache) Close() error {
	var firstErr error
	if err := c.data.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if c.refIndex != nil {
		if err := c.refIndex.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, idx := range c.indices {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Indices enumerates the non-reference indices that have an on-disk index
// file, in ascending order.
func (c *Cache) Indices() []IndexId {
	ids := make([]IndexId, 0, len(c.indices))
	for id := range c.indices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Cache) indexStore(index IndexId) (*IndexStore, error) {
	if index.IsReference() {
		return c.refIndex, nil
	}
	store, ok := c.indices[index]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotExists, index)
	}
	return store, nil
}

// ReadArchiveRaw returns the raw container bytes for (index, archive),
// exactly as stored on disk.
func (c *Cache) ReadArchiveRaw(index IndexId, archive ArchiveId) ([]byte, error) {
	store, err := c.indexStore(index)
	if err != nil {
		return nil, err
	}

	size, firstSector, ok := store.Entry(archive)
	if !ok {
		return nil, &ArchiveNotFoundError{Index: index, Archive: archive}
	}

	data, err := c.data.ReadArchive(index, archive, firstSector, size)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ReadArchive returns the decoded (decompressed) container payload for
// (index, archive).
func (c *Cache) ReadArchive(index IndexId, archive ArchiveId) ([]byte, error) {
	raw, err := c.ReadArchiveRaw(index, archive)
	if err != nil {
		return nil, err
	}
	return decodeContainer(raw)
}

// ReferenceTable returns the memoized, parsed reference table for index,
// reading and parsing it on first access.
func (c *Cache) ReferenceTable(index IndexId) (*ReferenceTable, error) {
	c.mu.RLock()
	if table, ok := c.references[index]; ok {
		c.mu.RUnlock()
		return table, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if table, ok := c.references[index]; ok {
		return table, nil
	}

	raw, err := c.ReadArchive(ReferenceIndex, ArchiveId(index))
	if err != nil {
		return nil, err
	}
	table, err := parseReferenceTable(raw)
	if err != nil {
		return nil, err
	}
	c.references[index] = table
	return table, nil
}

// ReadFile resolves (index, archive) through the reference table, unpacks
// the archive, and returns the named file's bytes.
func (c *Cache) ReadFile(index IndexId, archive ArchiveId, file FileId) ([]byte, error) {
	table, err := c.ReferenceTable(index)
	if err != nil {
		return nil, err
	}
	entry, ok := table.Archive(archive)
	if !ok {
		return nil, &ArchiveNotFoundError{Index: index, Archive: archive}
	}
	if _, ok := entry.Files[file]; !ok {
		return nil, &FileNotFoundError{Archive: archive, File: file}
	}

	decoded, err := c.ReadArchive(index, archive)
	if err != nil {
		return nil, err
	}

	fileIDs := sortedFileIDs(entry.Files)
	files, err := unpackArchive(decoded, fileIDs)
	if err != nil {
		return nil, err
	}
	return files[file], nil
}

// ReadAllFiles unpacks every file contained in (index, archive).
func (c *Cache) ReadAllFiles(index IndexId, archive ArchiveId) (map[FileId][]byte, error) {
	table, err := c.ReferenceTable(index)
	if err != nil {
		return nil, err
	}
	entry, ok := table.Archive(archive)
	if !ok {
		return nil, &ArchiveNotFoundError{Index: index, Archive: archive}
	}

	decoded, err := c.ReadArchive(index, archive)
	if err != nil {
		return nil, err
	}

	fileIDs := sortedFileIDs(entry.Files)
	return unpackArchive(decoded, fileIDs)
}

// FindArchive resolves an archive by its precomputed name hash within index.
func (c *Cache) FindArchive(index IndexId, nameHash int32) (ArchiveId, bool) {
	table, err := c.ReferenceTable(index)
	if err != nil {
		return 0, false
	}
	id, _, ok := table.FindByName(nameHash)
	return id, ok
}

// ReadNamedFile resolves an archive and file both by name hash within index.
func (c *Cache) ReadNamedFile(index IndexId, archiveName, fileName string) ([]byte, error) {
	table, err := c.ReferenceTable(index)
	if err != nil {
		return nil, err
	}
	archiveID, entry, ok := table.FindByName(NameHash(archiveName))
	if !ok {
		return nil, fmt.Errorf("%w: archive named %q", ErrReferenceTable, archiveName)
	}
	fileID, _, ok := entry.FindFileByName(NameHash(fileName))
	if !ok {
		return nil, fmt.Errorf("%w: file named %q", ErrReferenceTable, fileName)
	}
	return c.ReadFile(index, archiveID, fileID)
}

func sortedFileIDs(files map[FileId]FileEntry) []FileId {
	ids := make([]FileId, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
