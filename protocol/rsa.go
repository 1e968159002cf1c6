package protocol

import "math/big"

// RSAKey is the server's raw (unpadded) RSA key pair for the login
// envelope, configured rather than hardcoded since the historical modulus
// and exponent constants were not present in the retrieved source
// (original_source/util/src/lib.rs re-exports EXPONENT/MODULUS from a
// rsa.rs file the retrieval pack did not include). spec.md describes
// these as "the configured public (modulus, exponent)", so treating them
// as server configuration rather than inventing historical constants
// matches the spec's own wording.
type RSAKey struct {
	Modulus  *big.Int
	Exponent *big.Int
}

// Decrypt performs raw modular-exponentiation RSA decryption: m = c^e mod
// n, with no padding scheme. This is not what crypto/rsa.DecryptPKCS1v15
// or DecryptOAEP implement, so the client's bespoke unpadded envelope is
// decrypted directly via math/big's modexp, matching
// original_source/util/src/rsa.rs's rsa_decrypt contract described in
// spec.md (the file itself was not retrieved, only its signature via
// lib.rs's re-export).
func (k RSAKey) Decrypt(block []byte) []byte {
	c := new(big.Int).SetBytes(block)
	m := new(big.Int).Exp(c, k.Exponent, k.Modulus)
	return m.Bytes()
}
