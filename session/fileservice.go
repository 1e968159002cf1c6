package session

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"k8s.io/klog/v2"

	"github.com/ironspire/coreserver/cache"
	"github.com/ironspire/coreserver/protocol"
	"github.com/ironspire/coreserver/server"
)

// FileService answers JS5 file requests against a cache, special-casing
// the reference table's own checksum bootstrap request. Grounded on
// original_source/net/src/file_service.rs's FileService (and its js5/src/
// service.rs sibling, which is identical in all but import paths).
type FileService struct {
	cache    *cache.Cache
	checksum []byte
}

// NewFileService builds the checksum table once up front, matching the
// source's eager FileService::new.
func NewFileService(c *cache.Cache) *FileService {
	return &FileService{cache: c, checksum: cache.BuildChecksumTable(c)}
}

// Serve resolves and frames the response for one decoded JS5 file request.
func (s *FileService) Serve(req protocol.JS5FileRequest) ([]byte, error) {
	data, err := s.fileData(req)
	if err != nil {
		return nil, err
	}
	return protocol.EncodeJS5Response(req.Index, req.Archive, data, req.Urgent), nil
}

func (s *FileService) fileData(req protocol.JS5FileRequest) ([]byte, error) {
	if req.Index == cache.ReferenceIndex && uint32(req.Archive) == 255 {
		return s.checksum, nil
	}

	start := time.Now()
	data, err := s.cache.ReadArchiveRaw(req.Index, req.Archive)
	server.ObserveCacheRead(req.Index.String(), time.Since(start))
	if err != nil {
		return nil, err
	}

	key := xxhash.Sum64(append([]byte(req.Index.String()+"/"), []byte(req.Archive.String())...))
	klog.V(4).Infof("js5 cache read key=%x size=%d", key, len(data))

	if req.Index != cache.ReferenceIndex && len(data) >= 2 {
		data = data[:len(data)-2]
	}

	return data, nil
}
