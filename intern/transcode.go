package intern

import (
	"sync"

	"golang.org/x/text/encoding"
)

const (
	// asciiSub replaces bytes outside the 7-bit range on the ASCII path.
	asciiSub = '?'
	// stackBufLen is the largest input folded through a stack buffer;
	// bigger inputs rent a scratch buffer from the pool.
	stackBufLen = 256
)

// scratchPool holds reusable fold buffers for over-stack ASCII inputs.
var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 1024)
		return &b
	},
}

// byteInterner is the subset of Interner the transcoding helpers need;
// both *Table and *Pool satisfy it.
type byteInterner interface {
	InternBytes(b []byte) string
}

// internASCII interns b interpreted as 7-bit character data. Inputs that are
// already pure ASCII take the plain byte path with no copying; the rest are
// folded with '?' substitution into a stack or rented buffer first.
func internASCII(in byteInterner, b []byte) string {
	if isASCII(b) {
		return in.InternBytes(b)
	}
	if len(b) <= stackBufLen {
		var buf [stackBufLen]byte
		return in.InternBytes(foldASCII(buf[:0], b))
	}
	sp := scratchPool.Get().(*[]byte)
	folded := foldASCII((*sp)[:0], b)
	s := in.InternBytes(folded)
	*sp = folded[:0]
	scratchPool.Put(sp)
	return s
}

// internEncoding decodes b in the given encoding and interns the decoded
// UTF-8 form. Decode failures propagate unchanged.
func internEncoding(in byteInterner, b []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		return "", ErrNilEncoding
	}
	if len(b) == 0 {
		return in.InternBytes(b), nil
	}
	decoded, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return in.InternBytes(decoded), nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

func foldASCII(dst, b []byte) []byte {
	for _, c := range b {
		if c >= 0x80 {
			c = asciiSub
		}
		dst = append(dst, c)
	}
	return dst
}
