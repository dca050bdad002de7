// Package mmap maps model and sample blobs read-only into memory.
//
//	m, err := mmap.Open("models/A/v000001.skm")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix uses mmap(2) with madvise(2) hints; Windows uses
// CreateFileMapping/MapViewOfFile and ignores hints.
//
// A Mapping is safe for concurrent reads. Close is idempotent; slices
// returned by Bytes must not be used after Close.
package mmap
