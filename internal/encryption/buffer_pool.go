package encryption

import (
	"crypto/aes"
	"sync"

	"github.com/idelchi/idxcrypt/internal/secret"
)

// ChunkSize is the amount of input read and transformed per step.
const ChunkSize = 64 * 1024

// chunkPool provides reusable buffers large enough for one chunk plus the
// block a cipher call may emit on top of its input.
//
//nolint:gochecknoglobals
var chunkPool = sync.Pool{
	New: func() any {
		buf := make([]byte, ChunkSize+2*aes.BlockSize)

		return &buf
	},
}

func getChunk() *[]byte {
	buf, _ := chunkPool.Get().(*[]byte) //nolint:errcheck // only *[]byte is ever stored

	return buf
}

// putChunk wipes the buffer before handing it back, since it may hold plaintext.
func putChunk(buf *[]byte) {
	secret.Wipe(*buf)
	chunkPool.Put(buf)
}
