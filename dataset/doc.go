// Package dataset loads labeled feature vectors and splits them into the
// positive and negative sample sets a trainer consumes.
//
// Images are read from any blobstore.Store. A file named "<id>_<label>.png"
// becomes one Sample whose vector is the grayscale image flattened row-major
// and scaled to [0,1]. Sparse libsvm text ("label idx:val ...") is also
// supported.
//
//	samples, err := dataset.LoadImages(ctx, store, "train/")
//	pos, neg, err := dataset.Partition(samples, dataset.LabelIs("A"))
package dataset
