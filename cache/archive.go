package cache

import "fmt"

// unpackArchive splits a decompressed archive payload into its constituent
// files. A single-file archive is the payload itself; a multi-file archive
// carries a trailer of delta-encoded per-chunk sizes that accumulate into
// each file's total size.
func unpackArchive(data []byte, fileIDs []FileId) (map[FileId][]byte, error) {
	if len(fileIDs) == 1 {
		return map[FileId][]byte{fileIDs[0]: data}, nil
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: archive data is empty", ErrInvalidContainer)
	}

	fileCount := len(fileIDs)
	chunks := int(data[len(data)-1])
	trailerSize := fileCount*chunks*4 + 1
	if trailerSize > len(data) {
		return nil, fmt.Errorf("%w: archive trailer larger than archive data", ErrInvalidContainer)
	}

	trailerStart := len(data) - trailerSize
	trailer := data[trailerStart : len(data)-1]

	fileSizes := make([]uint32, fileCount)
	trailerPos := 0

	for chunk := 0; chunk < chunks; chunk++ {
		var accumulator int32
		for fileIdx := 0; fileIdx < fileCount; fileIdx++ {
			if trailerPos+4 > len(trailer) {
				return nil, fmt.Errorf("%w: trailer read past end", ErrInvalidContainer)
			}
			delta := int32(trailer[trailerPos])<<24 | int32(trailer[trailerPos+1])<<16 |
				int32(trailer[trailerPos+2])<<8 | int32(trailer[trailerPos+3])
			trailerPos += 4

			accumulator += delta // wraps naturally on int32 overflow
			fileSizes[fileIdx] += uint32(accumulator)
		}
	}

	result := make(map[FileId][]byte, fileCount)
	offset := 0
	for idx, fileID := range fileIDs {
		size := int(fileSizes[idx])
		end := offset + size
		if end > trailerStart {
			return nil, fmt.Errorf("%w: file extends into trailer", ErrInvalidContainer)
		}
		result[fileID] = data[offset:end]
		offset = end
	}

	return result, nil
}
