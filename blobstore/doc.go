// Package blobstore abstracts where training images and trained models live.
//
// A Store is a flat namespace of immutable blobs addressed by slash-separated
// names, e.g. "train/17_A.png" or "models/A/v000003.skm". Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, mmap-backed reads
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 with range reads and managed uploads
//   - s3.DDBCommitStore: S3 plus DynamoDB conditional writes for CURRENT pointers
//   - minio.Store: MinIO and other S3-compatible services
package blobstore
