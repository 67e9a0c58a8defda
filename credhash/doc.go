/*
Package credhash derives and verifies salted password hashes with PBKDF2.

	salt, _ := credhash.NewSalt(credhash.DefaultSaltLength)
	key, _ := credhash.Derive([]byte("password"), salt, 10000, 512)
	ok, _ := credhash.Verify([]byte("password"), salt, 10000, 512, key)

A Hasher bundles a parameter set and produces self-describing credentials:

	h, _ := credhash.NewHasher(credhash.WithIterations(210000))
	cred, _ := h.Hash([]byte("password"))
	stored := cred.String() // $pbkdf2-sha512$i=210000,l=512$<salt>$<key>

	parsed, _ := credhash.ParseCredential(stored)
	err := credhash.Check([]byte("password"), parsed)

Comparison of derived keys is constant time. Derived keys are deterministic for identical
password, salt, iteration count and output length.
*/
package credhash
