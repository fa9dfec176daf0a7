// Package wireutil provides the low-level byte-packing helpers shared by the
// destination codec, the stream-packet codec, and the router-control client:
// big-endian integer packing and single-bit flag access.
package wireutil

// PutUint16 appends the big-endian encoding of v to dst.
func PutUint16(dst []byte, v uint16) []byte {
	return append(dst, byte(v>>8), byte(v))
}

// PutUint32 appends the big-endian encoding of v to dst.
func PutUint32(dst []byte, v uint32) []byte {
	return append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// PutUint64 appends the big-endian encoding of v to dst.
func PutUint64(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Uint16 reads a big-endian uint16 from the front of b.
func Uint16(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0])<<8 | uint16(b[1])
}

// Uint32 reads a big-endian uint32 from the front of b.
func Uint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Uint64 reads a big-endian uint64 from the front of b.
func Uint64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}
