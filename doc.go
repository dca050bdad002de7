// Package kozinec trains binary maximum-margin classifiers with the
// Schlesinger–Kozinec algorithm.
//
// The trainer searches for the closest pair of points between the convex
// hulls of the positive and negative samples in the feature space induced by
// a polynomial kernel. The feature space is never materialized: every hull
// point is a convex combination of training samples and all distances are
// expressed through kernel evaluations (the kernel trick).
//
// # Quick Start
//
//	samples, _ := dataset.LoadImages(ctx, blobstore.NewLocalStore("./train"), "")
//	pos, neg, _ := dataset.Partition(samples, dataset.LabelIs("A"))
//
//	tr, _ := kozinec.New(
//	    kozinec.WithEpsilon(0.01),
//	    kozinec.WithMaxUpdates(100000),
//	    kozinec.WithDegree(4),
//	)
//	model, err := tr.Train(ctx, pos, neg)
//
// # Termination
//
// Each iteration computes, for both classes, the sample whose projection onto
// the line between the hull points is smallest. When both of those margins
// are within epsilon of the current hull distance the model is Converged.
// Otherwise the hull point of the worse class steps toward its violating
// sample by the exact line-search minimizer of the new hull distance. After
// max-updates steps the model is returned with StatusBudgetExhausted; that is
// a usable model, not an error.
//
// # Classification
//
//	clf, _ := kozinec.NewClassifier(model, pos, neg)
//	ok, _ := clf.Predict(x)
//
// # Persistence
//
// Models are stored with the persistence package and published with
// versioned CURRENT pointers by the registry package, on local disk, S3,
// MinIO or any other blobstore.Store.
package kozinec
