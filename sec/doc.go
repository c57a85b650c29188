// Package sec seals backup payloads with a passphrase.
//
// A sealed payload is the magic "SQPSEAL1", a random argon2id salt, a random
// XChaCha20-Poly1305 nonce and the ciphertext, in that order. The key is
// derived from the passphrase and salt, so every payload carries what is
// needed to open it except the passphrase.
package sec
