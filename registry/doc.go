// Package registry publishes versioned models to a blobstore.Store.
//
// Each Publish writes "<name>/v<NNNNNN>.skm" and then points
// "<name>/CURRENT" at it. Readers resolve CURRENT, so a model becomes
// visible only after its blob is fully written.
//
// Stores implementing blobstore.ConditionalStore create version blobs
// exclusively, so concurrent publishers never overwrite each other's
// version. CURRENT is left alone once it names a newer version. Backed by
// s3.DDBCommitStore, the CURRENT update is a DynamoDB conditional write and
// a lost race is retried after re-reading CURRENT; on other stores the
// CURRENT update is last-writer-wins.
package registry
