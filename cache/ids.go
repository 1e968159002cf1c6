// Package cache implements the read-only, content-addressed on-disk game
// cache: the packed sector data file, per-index directories, reference
// tables, and the client-bootstrap checksum table.
package cache

import "fmt"

// IndexId identifies one of the cache's index directories. 255 is reserved
// for the reference index, the catalog-of-catalogs.
type IndexId uint8

// ReferenceIndex is the special index holding the reference table for every
// other index, keyed by that index's id used as an archive id.
const ReferenceIndex IndexId = 255

// MaxIndex is the highest valid data index id (build-time constant).
const MaxIndex IndexId = 27

// Named data indices, fixed by the client build this cache serves.
const (
	IndexAnimations        IndexId = 0
	IndexSkeletons         IndexId = 1
	IndexConfigs           IndexId = 2
	IndexInterfaces        IndexId = 3
	IndexSoundEffects      IndexId = 4
	IndexMaps              IndexId = 5
	IndexMusicTracks       IndexId = 6
	IndexModels            IndexId = 7
	IndexSprites           IndexId = 8
	IndexTextures          IndexId = 9
	IndexBinary            IndexId = 10
	IndexMusicJingles      IndexId = 11
	IndexClientScripts     IndexId = 12
	IndexFontMetrics       IndexId = 13
	IndexVorbis            IndexId = 14
	IndexOggInstruments    IndexId = 15
	IndexWorldMapOld       IndexId = 16
	IndexDefaults          IndexId = 17
	IndexWorldMapGeography IndexId = 18
	IndexItems             IndexId = 19
	IndexNPCs              IndexId = 20
	IndexObjects           IndexId = 21
	IndexFloors            IndexId = 22
	IndexIdentKit          IndexId = 23
	IndexOverlays          IndexId = 24
	IndexInventories       IndexId = 25
	IndexWorldMap          IndexId = 26
	IndexParticles         IndexId = 27
)

// IsReference reports whether this is the reference-of-references index.
func (i IndexId) IsReference() bool { return i == ReferenceIndex }

// IsValidDataIndex reports whether i is within the fixed data-index range.
func (i IndexId) IsValidDataIndex() bool { return i <= MaxIndex }

func (i IndexId) String() string { return fmt.Sprintf("%d", uint8(i)) }

// ArchiveId identifies an archive within an index.
type ArchiveId uint32

func (a ArchiveId) String() string { return fmt.Sprintf("%d", uint32(a)) }

// FileId identifies a file within an archive.
type FileId uint32

func (f FileId) String() string { return fmt.Sprintf("%d", uint32(f)) }

// extendedArchiveThreshold is the archive id above which sectors use the
// extended (32-bit archive id) header layout.
const extendedArchiveThreshold ArchiveId = 0xFFFF
