package session

import (
	"bufio"

	"github.com/ironspire/coreserver/protocol"
)

// WorldListSource builds the payload for one world-list response. Kept as
// a function rather than a fixed struct since the set of worlds/countries
// and live player counts are server-wide state the caller owns.
type WorldListSource func(fullUpdate bool) protocol.WorldListPayload

// RunWorldList writes one encoded world-list response for the full-update
// flag already decoded off the handshake (spec.md's handshake frame reads
// this flag as part of the dialect trailer, unlike
// original_source/net/src/connection.rs's handle_worldlist, which defers
// the read to the handler — spec.md's wording governs here).
func RunWorldList(w *bufio.Writer, fullUpdate bool, source WorldListSource) error {
	payload := source(fullUpdate)
	response := protocol.EncodeWorldList(payload)

	if _, err := w.Write(response); err != nil {
		return err
	}
	return w.Flush()
}
