package gamecipher

// SeedFromSessionKeys derives the ISAAC seed words from the concatenation of
// the client and server session keys exchanged during login, matching the
// classic client/server key layout: each 64-bit key contributes its high
// and low 32-bit halves, client key first.
func SeedFromSessionKeys(clientKey, serverKey int64) []uint32 {
	return []uint32{
		uint32(uint64(clientKey) >> 32),
		uint32(uint64(clientKey)),
		uint32(uint64(serverKey) >> 32),
		uint32(uint64(serverKey)),
	}
}

// Pair holds the two independent keystreams installed after a successful
// login: one per direction, both seeded from the same session keys but
// advanced independently.
type Pair struct {
	In  *ISAAC
	Out *ISAAC
}

// NewPair seeds both directions of a game channel from the session's
// client/server key pair.
func NewPair(clientKey, serverKey int64) Pair {
	seed := SeedFromSessionKeys(clientKey, serverKey)
	return Pair{
		In:  NewISAAC(append([]uint32{}, seed...)),
		Out: NewISAAC(append([]uint32{}, seed...)),
	}
}
