package cache

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildReferenceTableFixture() []byte {
	var b []byte
	put16 := func(v uint16) { var x [2]byte; binary.BigEndian.PutUint16(x[:], v); b = append(b, x[:]...) }
	put32 := func(v uint32) { var x [4]byte; binary.BigEndian.PutUint32(x[:], v); b = append(b, x[:]...) }

	b = append(b, 5)          // format < 6: no version field
	b = append(b, flagNames)  // flags
	put16(2)                  // archive count
	put16(10)                 // delta -> archive id 10
	put16(5)                  // delta -> archive id 15
	put32(uint32(int32(1001))) // name hash for archive 10
	put32(uint32(int32(1002))) // name hash for archive 15
	put32(0xAAAAAAAA)         // crc archive 10
	put32(0xBBBBBBBB)         // crc archive 15
	put32(1)                  // version archive 10
	put32(2)                  // version archive 15
	put16(1)                  // file count archive 10
	put16(2)                  // file count archive 15
	put16(100)                // file delta archive 10 -> file 100
	put16(5)                  // file delta archive 15 -> file 5
	put16(5)                  // file delta archive 15 -> file 10
	put32(uint32(int32(2001))) // file name hash archive10/file100
	put32(uint32(int32(2002))) // file name hash archive15/file5
	put32(uint32(int32(2003))) // file name hash archive15/file10

	return b
}

func TestParseReferenceTable(t *testing.T) {
	data := buildReferenceTableFixture()
	table, err := parseReferenceTable(data)
	require.NoError(t, err)

	require.Equal(t, uint8(5), table.Format)
	require.False(t, table.HasVersion)
	require.Len(t, table.Archives, 2)

	a10, ok := table.Archive(10)
	require.True(t, ok)
	require.EqualValues(t, 1001, a10.NameHash)
	require.Equal(t, uint32(0xAAAAAAAA), a10.CRC)
	require.Equal(t, uint32(1), a10.Version)
	require.Len(t, a10.Files, 1)
	f, ok := a10.Files[100]
	require.True(t, ok)
	require.EqualValues(t, 2001, f.NameHash)

	a15, ok := table.Archive(15)
	require.True(t, ok)
	require.Len(t, a15.Files, 2)

	id, entry, ok := table.FindByName(1002)
	require.True(t, ok)
	require.Equal(t, ArchiveId(15), id)
	require.Same(t, a15, entry)

	fid, _, ok := a10.FindFileByName(2001)
	require.True(t, ok)
	require.Equal(t, FileId(100), fid)
}

func TestParseReferenceTableTruncated(t *testing.T) {
	_, err := parseReferenceTable([]byte{5})
	require.ErrorIs(t, err, ErrReferenceTable)
}
