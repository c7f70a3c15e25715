package engine

import (
	"crypto/sha256"
	"io"
	"sync"
)

// hashBufSize is the fixed read buffer size used when streaming a file
// through the digest, per spec's "1 MiB chunk" sizing used throughout the
// pipeline.
const hashBufSize = 1 << 20

// hashBufPool recycles the 1 MiB read buffer across HashFile calls so a
// full backup pass doesn't reallocate it per file.
var hashBufPool = sync.Pool{
	New: func() any { return make([]byte, hashBufSize) },
}

// Digest is a SHA-256 digest. The zero value is the empty-digest sentinel:
// it must never be considered equal to any other digest, including another
// zero value from a different unreadable file.
type Digest [sha256.Size]byte

// HashFile streams path through SHA-256 using a pooled 1 MiB buffer.
// ok is false if the file could not be opened or read; in that case the
// returned digest is the zero value and must not be compared for equality.
func HashFile(fs FileSystem, path string) (digest Digest, ok bool) {
	r, err := fs.Open(path)
	if err != nil {
		return Digest{}, false
	}
	defer r.Close()

	h := sha256.New()
	buf := hashBufPool.Get().([]byte)
	defer hashBufPool.Put(buf)

	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return Digest{}, false
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, true
}

// digestsEqual reports whether two digests are equal AND both were successfully
// computed (an empty/sentinel digest never compares equal to anything).
func digestsEqual(a Digest, aOK bool, b Digest, bOK bool) bool {
	if !aOK || !bOK {
		return false
	}
	return a == b
}
