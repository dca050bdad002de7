// Package hash provides the CRC32-Castagnoli checksums used by model files
// and S3 uploads.
//
//	sum := hash.CRC32C(data)
//
//	h := hash.NewCRC32C()
//	h.Write(chunk)
//	sum = h.Sum32()
package hash
