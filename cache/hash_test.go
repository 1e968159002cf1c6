package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC32KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{"empty", nil, 0x00000000},
		{"123456789", []byte("123456789"), 0xCBF43926},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CRC32(tt.data))
		})
	}
}

func TestNameHashWrapsAndLowercases(t *testing.T) {
	require.Equal(t, NameHash("config"), NameHash("CONFIG"))
	require.NotEqual(t, int32(0), NameHash("config"))

	var manual int32
	for _, b := range []byte("config") {
		manual = manual*31 + int32(b)
	}
	require.Equal(t, manual, NameHash("config"))
}
