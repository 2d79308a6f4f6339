package util

import "sync"

// BufPool holds the copy buffers of [Relay], one per direction of an
// interactive session.  The decoder keeps its own bufio.Reader of the
// same size and does not draw from the pool.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf takes a relay buffer from the pool; hand it back with [PutBuf].
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns buf to the pool.  A nil buf is ignored.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
