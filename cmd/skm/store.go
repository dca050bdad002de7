package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/hupe1980/kozinec/blobstore"
	miniostore "github.com/hupe1980/kozinec/blobstore/minio"
	s3store "github.com/hupe1980/kozinec/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// openStore resolves a store URI:
//
//	/some/dir or file:///some/dir      local directory
//	s3://bucket/prefix                 S3, CURRENT pointers in ddbTable if set
//	minio://endpoint/bucket/prefix     MinIO, credentials from MINIO_ACCESS_KEY
//	                                   and MINIO_SECRET_KEY, ?secure=true for TLS
func openStore(ctx context.Context, uri, ddbTable string) (blobstore.Store, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("store uri %q: %w", uri, err)
	}

	switch u.Scheme {
	case "", "file":
		dir := u.Path
		if u.Scheme == "" {
			dir = uri
		}
		if dir == "" {
			return nil, fmt.Errorf("store uri %q: empty path", uri)
		}
		return blobstore.NewLocalStore(dir), nil

	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("store uri %q: missing bucket", uri)
		}
		store, err := s3store.New(ctx, u.Host, s3store.WithPrefix(strings.TrimPrefix(u.Path, "/")))
		if err != nil {
			return nil, err
		}
		if ddbTable == "" {
			return store, nil
		}
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return s3store.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), ddbTable, uri), nil

	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("store uri %q: want minio://endpoint/bucket[/prefix]", uri)
		}
		client, err := minio.New(u.Host, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: u.Query().Get("secure") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, bucket, prefix), nil

	default:
		return nil, fmt.Errorf("store uri %q: unsupported scheme %q", uri, u.Scheme)
	}
}
