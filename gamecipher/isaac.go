// Package gamecipher implements the per-direction keystream cipher that
// obfuscates opcodes on the game channel. No library in the example corpus
// implements this protocol-specific cipher, so it is hand-rolled here: an
// ISAAC generator (Bob Jenkins' public-domain algorithm) seeded from the
// session's client/server key pair, following the same approach this class
// of game server has used since the cipher was first documented publicly.
package gamecipher

const (
	wordBits = 8
	size     = 1 << wordBits // 256 words of keystream per generation
)

// ISAAC is a keystream generator producing one pseudo-random byte per call
// to Next. Two independent instances (inbound/outbound) are installed after
// a successful login, both seeded from the same key material so client and
// server derive matching streams.
type ISAAC struct {
	mem     [size]uint32
	rsl     [size]uint32
	a, b, c uint32

	resultPos int // index into rsl, in bytes (4 bytes per word)
}

// NewISAAC seeds a generator from seed, up to 256 uint32 words of key
// material; shorter seeds are zero-padded.
func NewISAAC(seed []uint32) *ISAAC {
	g := &ISAAC{}
	copy(g.rsl[:], seed)
	g.init(true)
	return g
}

// Next returns the next pseudo-random byte in the stream.
func (g *ISAAC) Next() uint8 {
	if g.resultPos == 0 {
		g.generate()
	}
	word := g.resultPos / 4
	shift := uint((g.resultPos % 4) * 8)
	b := uint8(g.rsl[word] >> shift)
	g.resultPos = (g.resultPos + 1) % (size * 4)
	return b
}

func mix(a, b, c, d, e, f, g, h *uint32) {
	*a ^= *b << 11
	*d += *a
	*b += *c
	*b ^= *c >> 2
	*e += *b
	*c += *d
	*c ^= *d << 8
	*f += *c
	*d += *e
	*d ^= *e >> 16
	*g += *d
	*e += *f
	*e ^= *f << 10
	*h += *e
	*f += *g
	*f ^= *g >> 4
	*a += *f
	*g += *h
	*g ^= *h >> 8
	*b += *g
	*h += *a
	*h ^= *a << 9
	*c += *h
	*a += *b
}

func (gen *ISAAC) init(useSeed bool) {
	a, b, c, d, e, f, g, h := golden, golden, golden, golden, golden, golden, golden, golden
	for n := 0; n < 4; n++ {
		mix(&a, &b, &c, &d, &e, &f, &g, &h)
	}

	for n := 0; n < size; n += 8 {
		if useSeed {
			a += gen.rsl[n]
			b += gen.rsl[n+1]
			c += gen.rsl[n+2]
			d += gen.rsl[n+3]
			e += gen.rsl[n+4]
			f += gen.rsl[n+5]
			g += gen.rsl[n+6]
			h += gen.rsl[n+7]
		}
		mix(&a, &b, &c, &d, &e, &f, &g, &h)
		gen.mem[n], gen.mem[n+1], gen.mem[n+2], gen.mem[n+3] = a, b, c, d
		gen.mem[n+4], gen.mem[n+5], gen.mem[n+6], gen.mem[n+7] = e, f, g, h
	}

	if useSeed {
		for n := 0; n < size; n += 8 {
			a += gen.mem[n]
			b += gen.mem[n+1]
			c += gen.mem[n+2]
			d += gen.mem[n+3]
			e += gen.mem[n+4]
			f += gen.mem[n+5]
			g += gen.mem[n+6]
			h += gen.mem[n+7]
			mix(&a, &b, &c, &d, &e, &f, &g, &h)
			gen.mem[n], gen.mem[n+1], gen.mem[n+2], gen.mem[n+3] = a, b, c, d
			gen.mem[n+4], gen.mem[n+5], gen.mem[n+6], gen.mem[n+7] = e, f, g, h
		}
	}

	gen.generate()
	gen.resultPos = 0
}

const golden uint32 = 0x9e3779b9

// generate produces the next 256 keystream words into rsl, per the ISAAC
// reference algorithm (mm is updated in place, rsl holds this round's
// output).
func (gen *ISAAC) generate() {
	gen.c++
	gen.b += gen.c

	for i := 0; i < size; i++ {
		x := gen.mem[i]
		switch i % 4 {
		case 0:
			gen.a ^= gen.a << 13
		case 1:
			gen.a ^= gen.a >> 6
		case 2:
			gen.a ^= gen.a << 2
		case 3:
			gen.a ^= gen.a >> 16
		}
		gen.a += gen.mem[(i+size/2)%size]

		y := gen.mem[(x>>2)&(size-1)] + gen.a + gen.b
		gen.mem[i] = y
		gen.b = gen.mem[(y>>(2+wordBits))&(size-1)] + x
		gen.rsl[i] = gen.b
	}
}
