package dataset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path"
	"runtime"
	"strings"

	"github.com/hupe1980/kozinec/blobstore"
	"golang.org/x/sync/errgroup"
)

// ImageExt is the extension of image blobs picked up by LoadImages.
const ImageExt = ".png"

// LoadOption configures LoadImages.
type LoadOption func(*loadOptions)

type loadOptions struct {
	parallelism int
}

// WithLoadParallelism bounds concurrent image decodes. Values < 1 use
// GOMAXPROCS.
func WithLoadParallelism(n int) LoadOption {
	return func(o *loadOptions) { o.parallelism = n }
}

// ParseImageName splits "<dir>/<id>_<label>.png" into id and label. The
// label is everything after the last underscore.
func ParseImageName(name string) (id, label string, err error) {
	base := path.Base(name)
	if !strings.EqualFold(path.Ext(base), ImageExt) {
		return "", "", fmt.Errorf("dataset: %q is not a %s file", name, ImageExt)
	}
	stem := strings.TrimSuffix(base, path.Ext(base))

	i := strings.LastIndexByte(stem, '_')
	if i <= 0 || i == len(stem)-1 {
		return "", "", fmt.Errorf("dataset: %q does not match <id>_<label>%s", name, ImageExt)
	}
	return stem[:i], stem[i+1:], nil
}

// LoadImages decodes every "<id>_<label>.png" blob under prefix. Samples are
// returned in name order; blobs with other names are skipped. All images
// must have the same pixel count.
//
// A sample's ID is its blob name below prefix without the extension, e.g.
// "0_b" for "train/0_b.png", so samples sharing an index stay distinct.
func LoadImages(ctx context.Context, store blobstore.Store, prefix string, optFns ...LoadOption) ([]Sample, error) {
	opts := loadOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.parallelism < 1 {
		opts.parallelism = runtime.GOMAXPROCS(0)
	}

	names, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("dataset: list %q: %w", prefix, err)
	}

	var samples []Sample
	var blobs []string
	for _, name := range names {
		_, label, err := ParseImageName(name)
		if err != nil {
			continue
		}
		samples = append(samples, Sample{ID: imageID(name, prefix), Label: label})
		blobs = append(blobs, name)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no images under %q", ErrNoData, prefix)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.parallelism)

	for i := range blobs {
		g.Go(func() error {
			data, err := blobstore.ReadAll(gctx, store, blobs[i])
			if err != nil {
				return err
			}
			v, err := DecodeGray(data)
			if err != nil {
				return fmt.Errorf("dataset: decode %s: %w", blobs[i], err)
			}
			samples[i].Vector = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectors := make([][]float64, len(samples))
	for i := range samples {
		vectors[i] = samples[i].Vector
	}
	if err := checkDims(vectors); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return samples, nil
}

func imageID(name, prefix string) string {
	stem := strings.TrimPrefix(name, prefix)
	return strings.TrimSuffix(stem, path.Ext(stem))
}

// DecodeGray decodes a PNG and returns its luminance, row-major, in [0,1].
func DecodeGray(data []byte) ([]float64, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return grayVector(img), nil
}

func grayVector(img image.Image) []float64 {
	b := img.Bounds()
	v := make([]float64, 0, b.Dx()*b.Dy())

	if g, ok := img.(*image.Gray); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				v = append(v, float64(g.GrayAt(x, y).Y)/255)
			}
		}
		return v
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			v = append(v, float64(c.Y)/255)
		}
	}
	return v
}
