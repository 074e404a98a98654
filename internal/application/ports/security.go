package ports

// PasswordHasher hashes and verifies passwords (Argon2id). Verify returns an
// error only for hashing-infrastructure failures (e.g. an undecodable stored
// hash); a clean mismatch is (false, nil). Callers must never treat a Verify
// error as a wrong password.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// CodeAlphabet selects the character set for generated verification codes.
type CodeAlphabet string

const (
	// AlphabetAlphanumeric is mixed-case letters and digits (email codes).
	AlphabetAlphanumeric CodeAlphabet = "alphanumeric"
	// AlphabetDigits is 0-9 only (SMS codes).
	AlphabetDigits CodeAlphabet = "digits"
)

// CodeGenerator produces verification codes from a cryptographically strong
// source. Implementations must never be deterministic or seeded from
// predictable input.
type CodeGenerator interface {
	Generate(length int, alphabet CodeAlphabet) (string, error)
}
