// Package fingerprint derives the content digest that identifies a
// submission artifact on the ledger. The digest is the sha256 of the
// exact file bytes, rendered as lowercase hex with the standard 0x
// prefix. Equal inputs always yield equal digests, which is the whole
// point: a verifier who recomputes the digest years later must get the
// same string the submitter anchored.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/models"
)

// FingerprintBytes returns the digest of the given bytes. Empty input
// is valid and yields the well-known digest of the empty string.
func FingerprintBytes(data []byte) string {
	digest := sha256.Sum256(data)
	return fmt.Sprintf("%s%x", constants.DigestPrefix, digest)
}

// FingerprintReader streams the reader through sha256 and returns the
// digest. It fails only if reading fails; no content is invalid.
func FingerprintReader(reader io.Reader) (string, error) {
	_hash := sha256.New()
	_, err := io.Copy(_hash, reader)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%x", constants.DigestPrefix, _hash.Sum(nil)), nil
}

// FingerprintFile returns the digest of the file at pathToFile.
// The file is streamed, not slurped, so large artifacts are fine.
func FingerprintFile(pathToFile string) (string, error) {
	inputFile, err := os.Open(pathToFile)
	if err != nil {
		return "", err
	}
	defer inputFile.Close()
	return FingerprintReader(inputFile)
}

// DigestsMatch compares two digests using case-insensitive equality
// over the hex representation. The ledger does not guarantee hex
// casing, and probes may arrive without the 0x prefix.
func DigestsMatch(a, b string) bool {
	return models.NormalizeDigest(a) == models.NormalizeDigest(b)
}

// LooksLikeDigest reports whether str is a plausible digest: 64 hex
// characters, with or without the 0x prefix.
func LooksLikeDigest(str string) bool {
	return constants.DigestPattern.MatchString(str)
}
