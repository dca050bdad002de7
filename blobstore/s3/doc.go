// Package s3 stores models and training images in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("kozinec/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// Reads use ranged GetObject calls; writes go through the multipart upload
// manager with CRC32C checksums. DDBCommitStore layers DynamoDB conditional
// writes over a Store so that concurrent publishers of the same model never
// lose a CURRENT update.
package s3
