package session

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// isExpectedDisconnect reports whether err is the client simply going
// away mid-read (EOF / reset / aborted / broken pipe / closed), which should end a session
// quietly rather than propagate as a logged failure. Grounded on
// original_source/net/src/connection.rs's read_message, which matches
// UnexpectedEof and ConnectionReset the same way.
func isExpectedDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	return false
}
