package registry

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/hupe1980/kozinec/blobstore"
	"github.com/hupe1980/kozinec/model"
	"github.com/hupe1980/kozinec/persistence"
)

const (
	currentName = "CURRENT"
	ext         = ".skm"

	// maxAttempts bounds the retries of a publisher that keeps losing races.
	maxAttempts = 16
)

var (
	// ErrNotPublished is returned when a name has no committed version.
	ErrNotPublished = errors.New("model not published")
	// ErrInvalidName is returned for names that cannot be used as a prefix.
	ErrInvalidName = errors.New("invalid model name")
)

// Registry publishes and resolves models in a Store.
type Registry struct {
	store blobstore.Store
	opts  []persistence.Option
}

// New creates a Registry. opts apply to every published model.
func New(store blobstore.Store, opts ...persistence.Option) *Registry {
	return &Registry{store: store, opts: opts}
}

func checkName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// VersionPath returns the blob name of a model version.
func VersionPath(name string, version uint64) string {
	return path.Join(name, fmt.Sprintf("v%06d%s", version, ext))
}

func parseVersion(name, blob string) (uint64, bool) {
	base, ok := strings.CutPrefix(blob, name+"/v")
	if !ok || strings.Contains(base, "/") {
		return 0, false
	}
	digits, ok := strings.CutSuffix(base, ext)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// Versions returns the stored versions of name in ascending order.
func (r *Registry) Versions(ctx context.Context, name string) ([]uint64, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	blobs, err := r.store.List(ctx, name+"/")
	if err != nil {
		return nil, err
	}

	var versions []uint64
	for _, b := range blobs {
		if v, ok := parseVersion(name, b); ok {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// Publish stores m as the next version of name and makes it current.
//
// On a ConditionalStore every version blob is created exclusively, so
// concurrent publishers get distinct versions: a publisher that loses the
// race for a version retries with the next one. CURRENT only moves forward.
func (r *Registry) Publish(ctx context.Context, name string, m *model.Model) (uint64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}

	data, err := persistence.Marshal(m, r.opts...)
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		versions, err := r.Versions(ctx, name)
		if err != nil {
			return 0, err
		}

		next := uint64(1)
		if len(versions) > 0 {
			next = versions[len(versions)-1] + 1
		}

		target := VersionPath(name, next)
		if err := r.create(ctx, target, data); err != nil {
			if errors.Is(err, blobstore.ErrExists) {
				continue
			}
			return 0, fmt.Errorf("save model %s: %w", target, err)
		}
		if err := r.commit(ctx, name, next); err != nil {
			return 0, err
		}
		return next, nil
	}
	return 0, fmt.Errorf("publish %s: %w after %d attempts", name, blobstore.ErrConflict, maxAttempts)
}

// create writes a version blob, exclusively where the store supports it.
func (r *Registry) create(ctx context.Context, target string, data []byte) error {
	if cs, ok := r.store.(blobstore.ConditionalStore); ok {
		err := cs.PutIfNotExists(ctx, target, data)
		if !errors.Is(err, errors.ErrUnsupported) {
			return err
		}
	}
	return r.store.Put(ctx, target, data)
}

// commit points CURRENT at version unless a newer version is current.
func (r *Registry) commit(ctx context.Context, name string, version uint64) error {
	target := VersionPath(name, version)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		current, err := r.Current(ctx, name)
		switch {
		case errors.Is(err, ErrNotPublished):
		case err != nil:
			return err
		default:
			if v, ok := parseVersion(name, current); ok && v >= version {
				return nil
			}
		}

		err = r.store.Put(ctx, path.Join(name, currentName), []byte(target))
		if errors.Is(err, blobstore.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("commit %s: %w", target, err)
		}
		return nil
	}
	return fmt.Errorf("commit %s: %w after %d attempts", target, blobstore.ErrConflict, maxAttempts)
}

// Current returns the blob name CURRENT points to.
func (r *Registry) Current(ctx context.Context, name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	data, err := blobstore.ReadAll(ctx, r.store, path.Join(name, currentName))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotPublished, name)
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Latest loads the current model of name.
func (r *Registry) Latest(ctx context.Context, name string) (*model.Model, error) {
	target, err := r.Current(ctx, name)
	if err != nil {
		return nil, err
	}
	return persistence.Load(ctx, r.store, target)
}

// Load loads a specific version of name.
func (r *Registry) Load(ctx context.Context, name string, version uint64) (*model.Model, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return persistence.Load(ctx, r.store, VersionPath(name, version))
}
