package fingerprint_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/acadtrust/anchor/util/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloDigest = "0x2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
const emptyDigest = "0xe3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestFingerprintBytes(t *testing.T) {
	assert.Equal(t, helloDigest, fingerprint.FingerprintBytes([]byte("hello")))
	// Empty input is valid, and yields the digest of the empty string.
	assert.Equal(t, emptyDigest, fingerprint.FingerprintBytes([]byte{}))
	assert.Equal(t, emptyDigest, fingerprint.FingerprintBytes(nil))
}

func TestFingerprintDeterminism(t *testing.T) {
	inputs := [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte("The quick brown fox jumps over the lazy dog"),
		bytes.Repeat([]byte{0}, 8192),
	}
	for _, input := range inputs {
		first := fingerprint.FingerprintBytes(input)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, fingerprint.FingerprintBytes(input))
		}
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := bytes.Repeat([]byte("a"), 1024)
	baseDigest := fingerprint.FingerprintBytes(base)
	// Flip one byte at a few positions; every flip must change
	// the digest.
	for _, position := range []int{0, 1, 511, 1023} {
		altered := make([]byte, len(base))
		copy(altered, base)
		altered[position] = 'b'
		assert.NotEqual(t, baseDigest, fingerprint.FingerprintBytes(altered),
			"Flipping byte %d did not change the digest", position)
	}
	// One byte longer also changes the digest.
	assert.NotEqual(t, baseDigest, fingerprint.FingerprintBytes(append(base, 'a')))
}

func TestFingerprintReader(t *testing.T) {
	digest, err := fingerprint.FingerprintReader(bytes.NewReader([]byte("hello")))
	require.Nil(t, err)
	assert.Equal(t, helloDigest, digest)
}

func TestFingerprintFile(t *testing.T) {
	tempDir, err := ioutil.TempDir("", "fingerprint_test")
	require.Nil(t, err)
	defer os.RemoveAll(tempDir)

	pathToFile := filepath.Join(tempDir, "submission.txt")
	err = ioutil.WriteFile(pathToFile, []byte("hello"), 0644)
	require.Nil(t, err)

	digest, err := fingerprint.FingerprintFile(pathToFile)
	require.Nil(t, err)
	assert.Equal(t, helloDigest, digest)

	// The file and bytes paths must agree.
	assert.Equal(t, fingerprint.FingerprintBytes([]byte("hello")), digest)

	_, err = fingerprint.FingerprintFile(filepath.Join(tempDir, "no_such_file"))
	assert.NotNil(t, err)
}

func TestDigestsMatch(t *testing.T) {
	upper := "0x2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824"
	assert.True(t, fingerprint.DigestsMatch(helloDigest, upper))
	assert.True(t, fingerprint.DigestsMatch(helloDigest, helloDigest))
	assert.True(t, fingerprint.DigestsMatch(
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		helloDigest))
	assert.False(t, fingerprint.DigestsMatch(helloDigest, emptyDigest))
}

func TestLooksLikeDigest(t *testing.T) {
	assert.True(t, fingerprint.LooksLikeDigest(helloDigest))
	assert.True(t, fingerprint.LooksLikeDigest(
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"))
	assert.False(t, fingerprint.LooksLikeDigest("0x2cf2"))
	assert.False(t, fingerprint.LooksLikeDigest("not a digest"))
	assert.False(t, fingerprint.LooksLikeDigest(""))
}
