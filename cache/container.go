package cache

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

// Compression identifies how a container's payload is stored on disk.
type Compression uint8

const (
	CompressionNone  Compression = 0
	CompressionBzip2 Compression = 1
	CompressionGzip  Compression = 2
)

func compressionFromByte(b byte) (Compression, error) {
	switch Compression(b) {
	case CompressionNone, CompressionBzip2, CompressionGzip:
		return Compression(b), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedCompression, b)
	}
}

// ContainerHeader is the leading metadata of a packed archive payload: a
// compression tag, the on-disk compressed size, and (when compressed) the
// expected decompressed size.
type ContainerHeader struct {
	Compression      Compression
	CompressedSize   uint32
	UncompressedSize uint32
	HasUncompressed  bool
}

// parseContainerHeader reads the header at the front of data and returns it
// along with the offset of the payload that follows it.
func parseContainerHeader(data []byte) (ContainerHeader, int, error) {
	if len(data) < 5 {
		return ContainerHeader{}, 0, fmt.Errorf("%w: too small for header", ErrInvalidContainer)
	}

	compression, err := compressionFromByte(data[0])
	if err != nil {
		return ContainerHeader{}, 0, err
	}
	compressedSize := binary.BigEndian.Uint32(data[1:5])

	if compression == CompressionNone {
		return ContainerHeader{Compression: compression, CompressedSize: compressedSize}, 5, nil
	}

	if len(data) < 9 {
		return ContainerHeader{}, 0, fmt.Errorf("%w: too small for compression header", ErrInvalidContainer)
	}
	uncompressedSize := binary.BigEndian.Uint32(data[5:9])
	return ContainerHeader{
		Compression:      compression,
		CompressedSize:   compressedSize,
		UncompressedSize: uncompressedSize,
		HasUncompressed:  true,
	}, 9, nil
}

// decompress inflates payload according to compression, sized as a hint for
// the output buffer only.
//
// Bzip2/gzip decompression uses the standard library (compress/bzip2,
// compress/gzip): no third-party codec appears anywhere in the example
// corpus, and both formats are read-only here, which is exactly the subset
// compress/bzip2 supports.
func decompress(compression Compression, payload []byte, expectedSize uint32) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return payload, nil

	case CompressionBzip2:
		// The on-disk payload omits the standard bzip2 stream header; the
		// client always reconstructs it as "BZh1" (100k block size) before
		// decoding.
		framed := make([]byte, 0, len(payload)+4)
		framed = append(framed, 'B', 'Z', 'h', '1')
		framed = append(framed, payload...)

		reader := bzip2.NewReader(bytes.NewReader(framed))
		out := make([]byte, 0, expectedSize)
		buf := &growBuffer{b: out}
		if _, err := io.Copy(buf, reader); err != nil {
			return nil, fmt.Errorf("%w: bzip2: %v", ErrDecompressionFailed, err)
		}
		return buf.b, nil

	case CompressionGzip:
		reader, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrDecompressionFailed, err)
		}
		defer reader.Close()

		out := make([]byte, 0, expectedSize)
		buf := &growBuffer{b: out}
		if _, err := io.Copy(buf, reader); err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrDecompressionFailed, err)
		}
		return buf.b, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompression, compression)
	}
}

// growBuffer is an io.Writer over a growable byte slice, avoiding the extra
// copy bytes.Buffer would incur when handing the final slice back.
type growBuffer struct{ b []byte }

func (g *growBuffer) Write(p []byte) (int, error) {
	g.b = append(g.b, p...)
	return len(p), nil
}

// decodeContainer parses the header from raw and returns the decompressed
// payload it describes.
func decodeContainer(raw []byte) ([]byte, error) {
	header, offset, err := parseContainerHeader(raw)
	if err != nil {
		return nil, err
	}
	if offset+int(header.CompressedSize) > len(raw) {
		return nil, fmt.Errorf("%w: compressed size exceeds container", ErrInvalidContainer)
	}
	payload := raw[offset : offset+int(header.CompressedSize)]

	expected := header.CompressedSize
	if header.HasUncompressed {
		expected = header.UncompressedSize
	}
	return decompress(header.Compression, payload, expected)
}
