package cache

import "github.com/ironspire/coreserver/wire"

// BuildChecksumTable builds the client-bootstrap payload served in response
// to a request for (reference_index, reference_archive): one status byte,
// the u32 BE payload length, then 8 bytes per index from 0 to MaxIndex
// (CRC-32 of its raw reference-table container, then its version), zeroed
// when either read fails.
func BuildChecksumTable(c *Cache) []byte {
	body := wire.NewWriter(int(MaxIndex+1) * 8)

	for i := IndexId(0); i <= MaxIndex; i++ {
		crc, version := checksumEntry(c, i)
		body.WriteU32(crc)
		body.WriteU32(version)
	}

	out := wire.NewWriter(5 + body.Len())
	out.WriteU8(0x00)
	out.WriteU32(uint32(body.Len()))
	out.WriteBytes(body.Bytes())
	return out.Bytes()
}

func checksumEntry(c *Cache, index IndexId) (crc uint32, version uint32) {
	raw, err := c.ReadArchiveRaw(ReferenceIndex, ArchiveId(index))
	if err != nil {
		return 0, 0
	}
	crc = CRC32(raw)

	decoded, err := decodeContainer(raw)
	if err != nil {
		return crc, 0
	}
	table, err := parseReferenceTable(decoded)
	if err != nil {
		return crc, 0
	}
	return crc, table.Version
}
