package auth

import "github.com/alexedwards/argon2id"

// passwordParams is the OWASP argon2id baseline (19 MiB, 2 passes).
// Changing it only affects new hashes; verification reads the parameters
// encoded in each stored hash.
var passwordParams = &argon2id.Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword returns an encoded argon2id hash suitable for the
// password_hash column of auth_users.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, passwordParams)
}

// ComparePassword reports whether password matches the stored encoded
// hash. A mismatch is (false, nil); the error is for malformed hashes.
func ComparePassword(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}
