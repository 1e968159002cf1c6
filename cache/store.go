package cache

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/exp/mmap"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

const (
	sectorSize            = 520
	sectorHeaderNormal    = 8
	sectorHeaderExtended  = 10
	sectorPayloadExtended = sectorSize - sectorHeaderExtended // retained 510-byte cap
	indexEntrySize        = 6
)

// DataStore memory-maps the packed sector file (main_file_cache.dat2) for
// the process lifetime. It is read-only and safe for concurrent use.
type DataStore struct {
	ra *mmap.ReaderAt
}

// OpenDataStore maps path read-only. The mapping lives until Close is called
// at process shutdown.
func OpenDataStore(path string) (*DataStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDataFileNotFound, path)
	}
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataFileNotFound, path, err)
	}
	adviseRandom(ra, path)
	return &DataStore{ra: ra}, nil
}

// adviseRandom hints the kernel that reads against this mapping will be
// random-access, the way compactindexsized/query.go fadvises its index
// files before querying them.
func adviseRandom(ra *mmap.ReaderAt, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM); err != nil {
		klog.V(4).Infof("fadvise(RANDOM) failed for %s: %v", path, err)
	}
}

// Close releases the mapping.
func (d *DataStore) Close() error { return d.ra.Close() }

// ReadArchive reassembles the sector chain for (index, archive) starting at
// firstSector, for a payload of exactly size bytes.
func (d *DataStore) ReadArchive(index IndexId, archive ArchiveId, firstSector uint32, size uint32) ([]byte, error) {
	extended := archive > extendedArchiveThreshold
	headerSize := sectorHeaderNormal
	if extended {
		headerSize = sectorHeaderExtended
	}
	dataPerSector := sectorSize - headerSize

	out := make([]byte, 0, size)
	currentSector := firstSector
	remaining := int(size)
	expectedChunk := uint16(0)

	for remaining > 0 {
		offset := int64(currentSector) * sectorSize
		if offset < 0 || offset+sectorSize > int64(d.ra.Len()) {
			return nil, &CorruptedChainError{Archive: archive, Reason: "sector offset out of bounds"}
		}

		sector := make([]byte, sectorSize)
		if _, err := d.ra.ReadAt(sector, offset); err != nil {
			return nil, &CorruptedChainError{Archive: archive, Reason: err.Error()}
		}

		var headerArchive uint32
		var headerChunk uint16
		var nextSector uint32
		var headerIndex uint8

		if extended {
			headerArchive = binary.BigEndian.Uint32(sector[0:4])
			headerChunk = binary.BigEndian.Uint16(sector[4:6])
			nextSector = uint32(sector[6])<<16 | uint32(sector[7])<<8 | uint32(sector[8])
			headerIndex = sector[9]
		} else {
			headerArchive = uint32(binary.BigEndian.Uint16(sector[0:2]))
			headerChunk = binary.BigEndian.Uint16(sector[2:4])
			nextSector = uint32(sector[4])<<16 | uint32(sector[5])<<8 | uint32(sector[6])
			headerIndex = sector[7]
		}

		if headerArchive != uint32(archive) {
			return nil, &HeaderMismatchError{Expected: archive, Actual: headerArchive}
		}
		if headerChunk != expectedChunk {
			return nil, &CorruptedChainError{Archive: archive, Reason: "chunk index out of sequence"}
		}
		if headerIndex != uint8(index) {
			return nil, &CorruptedChainError{Archive: archive, Reason: "owning index mismatch"}
		}

		toRead := remaining
		if toRead > dataPerSector {
			toRead = dataPerSector
		}
		out = append(out, sector[headerSize:headerSize+toRead]...)

		remaining -= toRead
		currentSector = nextSector
		expectedChunk++
	}

	return out, nil
}

// IndexStore memory-maps one index directory (main_file_cache.idxN).
type IndexStore struct {
	ra *mmap.ReaderAt
}

// OpenIndexStore maps path read-only for the given index id (used only for
// error context).
func OpenIndexStore(path string, index IndexId) (*IndexStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: index %s at %s", ErrIndexFileNotFound, index, path)
	}
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: index %s at %s: %v", ErrIndexFileNotFound, index, path, err)
	}
	adviseRandom(ra, path)
	return &IndexStore{ra: ra}, nil
}

// Close releases the mapping.
func (s *IndexStore) Close() error { return s.ra.Close() }

// Entry returns (size, firstSector) for archive, or ok=false when the
// archive is absent (entry is all-zero or offset is out of range).
func (s *IndexStore) Entry(archive ArchiveId) (size uint32, firstSector uint32, ok bool) {
	offset := int64(archive) * indexEntrySize
	if offset < 0 || offset+indexEntrySize > int64(s.ra.Len()) {
		return 0, 0, false
	}

	entry := make([]byte, indexEntrySize)
	if _, err := s.ra.ReadAt(entry, offset); err != nil {
		return 0, 0, false
	}

	size = uint32(entry[0])<<16 | uint32(entry[1])<<8 | uint32(entry[2])
	firstSector = uint32(entry[3])<<16 | uint32(entry[4])<<8 | uint32(entry[5])
	if size == 0 && firstSector == 0 {
		return 0, 0, false
	}
	return size, firstSector, true
}

// ArchiveCount returns the number of archive slots this index can address.
func (s *IndexStore) ArchiveCount() uint32 {
	return uint32(s.ra.Len() / indexEntrySize)
}
