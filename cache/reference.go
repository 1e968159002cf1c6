package cache

import (
	"fmt"

	"github.com/ironspire/coreserver/wire"
)

const (
	flagNames     uint8 = 0x01
	flagWhirlpool uint8 = 0x02
	flagSizes     uint8 = 0x04
)

// FileEntry is one file's metadata within an archive entry.
type FileEntry struct {
	NameHash int32
	HasName  bool
}

// ArchiveEntry is one archive's metadata within a reference table, including
// the files it contains.
type ArchiveEntry struct {
	NameHash int32
	HasName  bool
	CRC      uint32
	Version  uint32
	Files    map[FileId]FileEntry
}

// FindFileByName looks up a file by its precomputed name hash.
func (a *ArchiveEntry) FindFileByName(hash int32) (FileId, FileEntry, bool) {
	for id, f := range a.Files {
		if f.HasName && f.NameHash == hash {
			return id, f, true
		}
	}
	return 0, FileEntry{}, false
}

// ReferenceTable is the parsed catalog describing every archive (and its
// files) within one index.
type ReferenceTable struct {
	Format     uint8
	Version    uint32
	HasVersion bool
	Flags      uint8
	Archives   map[ArchiveId]*ArchiveEntry
}

// Archive looks up an archive entry by id.
func (t *ReferenceTable) Archive(id ArchiveId) (*ArchiveEntry, bool) {
	e, ok := t.Archives[id]
	return e, ok
}

// FindByName looks up an archive by its precomputed name hash.
func (t *ReferenceTable) FindByName(hash int32) (ArchiveId, *ArchiveEntry, bool) {
	for id, e := range t.Archives {
		if e.HasName && e.NameHash == hash {
			return id, e, true
		}
	}
	return 0, nil, false
}

// parseReferenceTable decodes a reference table from its decompressed
// container payload.
func parseReferenceTable(data []byte) (*ReferenceTable, error) {
	r := wire.NewReader(data)

	format, err := r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("%w: format: %v", ErrReferenceTable, err)
	}

	table := &ReferenceTable{Format: format, Archives: make(map[ArchiveId]*ArchiveEntry)}
	if format >= 6 {
		version, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("%w: version: %v", ErrReferenceTable, err)
		}
		table.Version = version
		table.HasVersion = true
	}

	flags, err := r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("%w: flags: %v", ErrReferenceTable, err)
	}
	table.Flags = flags
	hasNames := flags&flagNames != 0
	hasWhirlpool := flags&flagWhirlpool != 0
	hasSizes := flags&flagSizes != 0

	readCount := func() (uint32, error) {
		if format >= 7 {
			return r.ReadSmartU32()
		}
		v, err := r.ReadU16()
		return uint32(v), err
	}

	archiveCount, err := readCount()
	if err != nil {
		return nil, fmt.Errorf("%w: archive count: %v", ErrReferenceTable, err)
	}

	archiveIDs := make([]ArchiveId, 0, archiveCount)
	var accumulator uint32
	for i := uint32(0); i < archiveCount; i++ {
		delta, err := readCount()
		if err != nil {
			return nil, fmt.Errorf("%w: archive id delta: %v", ErrReferenceTable, err)
		}
		accumulator += delta
		archiveIDs = append(archiveIDs, ArchiveId(accumulator))
	}

	for _, id := range archiveIDs {
		table.Archives[id] = &ArchiveEntry{Files: make(map[FileId]FileEntry)}
	}

	if hasNames {
		for _, id := range archiveIDs {
			h, err := r.ReadI32()
			if err != nil {
				return nil, fmt.Errorf("%w: archive name hash: %v", ErrReferenceTable, err)
			}
			table.Archives[id].NameHash = h
			table.Archives[id].HasName = true
		}
	}

	for _, id := range archiveIDs {
		crc, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("%w: archive crc: %v", ErrReferenceTable, err)
		}
		table.Archives[id].CRC = crc
	}

	if hasWhirlpool {
		if err := r.Skip(64 * len(archiveIDs)); err != nil {
			return nil, fmt.Errorf("%w: whirlpool digests: %v", ErrReferenceTable, err)
		}
	}

	if hasSizes {
		if err := r.Skip(8 * len(archiveIDs)); err != nil {
			return nil, fmt.Errorf("%w: archive sizes: %v", ErrReferenceTable, err)
		}
	}

	for _, id := range archiveIDs {
		version, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("%w: archive version: %v", ErrReferenceTable, err)
		}
		table.Archives[id].Version = version
	}

	fileCounts := make([]uint32, len(archiveIDs))
	for i := range archiveIDs {
		count, err := readCount()
		if err != nil {
			return nil, fmt.Errorf("%w: file count: %v", ErrReferenceTable, err)
		}
		fileCounts[i] = count
	}

	for i, archiveID := range archiveIDs {
		archive := table.Archives[archiveID]
		var fileAccumulator uint32
		for j := uint32(0); j < fileCounts[i]; j++ {
			delta, err := readCount()
			if err != nil {
				return nil, fmt.Errorf("%w: file id delta: %v", ErrReferenceTable, err)
			}
			fileAccumulator += delta
			archive.Files[FileId(fileAccumulator)] = FileEntry{}
		}
	}

	if hasNames {
		for _, archiveID := range archiveIDs {
			archive := table.Archives[archiveID]
			for _, fileID := range sortedFileIDs(archive.Files) {
				h, err := r.ReadI32()
				if err != nil {
					return nil, fmt.Errorf("%w: file name hash: %v", ErrReferenceTable, err)
				}
				archive.Files[fileID] = FileEntry{NameHash: h, HasName: true}
			}
		}
	}

	return table, nil
}
