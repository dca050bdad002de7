// Package persistence reads and writes trained models.
//
// # File Layout
//
// All integers are little-endian.
//
//	offset  size  field
//	0       4     magic "SKM1"
//	4       2     format version
//	6       1     codec id (codec.ID)
//	7       1     compression (Compression)
//	8       8     raw payload length
//	16      8     stored payload length
//	24      4     reserved, zero
//	28      4     CRC32C of bytes 0..27
//	32      n     payload: codec-encoded model, compressed
//	32+n    4     CRC32C of the stored payload
//
// If compression does not shrink the payload below 90% of its raw size the
// payload is stored uncompressed and the compression byte is rewritten to
// CompressionNone.
package persistence
