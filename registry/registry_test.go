package registry

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/kozinec/blobstore"
	"github.com/hupe1980/kozinec/blobstore/s3"
	"github.com/hupe1980/kozinec/kernel"
	"github.com/hupe1980/kozinec/model"
	"github.com/hupe1980/kozinec/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel(iterations int) *model.Model {
	return &model.Model{
		AlphaPos:   []float64{1, 0},
		IDsPos:     []string{"1", "2"},
		AlphaNeg:   []float64{0.5, 0.5},
		IDsNeg:     []string{"3", "4"},
		Status:     model.StatusConverged,
		Kernel:     kernel.Linear(),
		Iterations: iterations,
	}
}

func TestRegistry_PublishLatest(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	reg := New(store, persistence.WithCompression(persistence.CompressionLZ4))

	_, err := reg.Latest(ctx, "models/A")
	assert.ErrorIs(t, err, ErrNotPublished)

	for i := 1; i <= 3; i++ {
		v, err := reg.Publish(ctx, "models/A", testModel(i))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), v)
	}
	_, err = reg.Publish(ctx, "models/AB", testModel(99))
	require.NoError(t, err)

	versions, err := reg.Versions(ctx, "models/A")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, versions)

	current, err := reg.Current(ctx, "models/A")
	require.NoError(t, err)
	assert.Equal(t, "models/A/v000003.skm", current)

	latest, err := reg.Latest(ctx, "models/A")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Iterations)

	first, err := reg.Load(ctx, "models/A", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Iterations)

	other, err := reg.Latest(ctx, "models/AB")
	require.NoError(t, err)
	assert.Equal(t, 99, other.Iterations)
}

func TestRegistry_LocalStore(t *testing.T) {
	ctx := context.Background()
	reg := New(blobstore.NewLocalStore(t.TempDir()))

	_, err := reg.Publish(ctx, "A", testModel(7))
	require.NoError(t, err)

	m, err := reg.Latest(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, testModel(7), m)
}

// racingStore creates the next version blob on behalf of a competing
// publisher right before each exclusive write.
type racingStore struct {
	*blobstore.MemoryStore
	competitor []byte
	races      int
}

func (s *racingStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	if s.races > 0 {
		s.races--
		if err := s.MemoryStore.PutIfNotExists(ctx, name, s.competitor); err != nil {
			return err
		}
	}
	return s.MemoryStore.PutIfNotExists(ctx, name, data)
}

// plainStore hides the conditional writes of the wrapped store.
type plainStore struct {
	blobstore.Store
}

func labeledModel(label string) *model.Model {
	m := testModel(1)
	m.Label = label
	return m
}

func TestRegistry_PublishLosesVersionRace(t *testing.T) {
	ctx := context.Background()

	competitor, err := persistence.Marshal(labeledModel("other"))
	require.NoError(t, err)
	store := &racingStore{MemoryStore: blobstore.NewMemoryStore(), competitor: competitor, races: 2}
	reg := New(store)

	v, err := reg.Publish(ctx, "A", labeledModel("mine"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)

	for version, label := range map[uint64]string{1: "other", 2: "other", 3: "mine"} {
		m, err := reg.Load(ctx, "A", version)
		require.NoError(t, err)
		assert.Equal(t, label, m.Label, "version %d", version)
	}

	latest, err := reg.Latest(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "mine", latest.Label)

	t.Run("GivesUp", func(t *testing.T) {
		store := &racingStore{MemoryStore: blobstore.NewMemoryStore(), competitor: competitor, races: maxAttempts}
		_, err := New(store).Publish(ctx, "A", labeledModel("mine"))
		assert.ErrorIs(t, err, blobstore.ErrConflict)
	})
}

// commitTable is an in-memory commit table holding the latest item per
// partition.
type commitTable struct {
	mu     sync.Mutex
	latest map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *commitTable {
	return &commitTable{latest: make(map[string]map[string]types.AttributeValue)}
}

func itemVersion(item map[string]types.AttributeValue) uint64 {
	if item == nil {
		return 0
	}
	v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
	return v
}

func (c *commitTable) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uri := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	if itemVersion(c.latest[uri]) >= itemVersion(params.Item) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	c.latest[uri] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (c *commitTable) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uri := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value
	if item, ok := c.latest[uri]; ok {
		return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil
	}
	return &dynamodb.QueryOutput{}, nil
}

func TestRegistry_ConcurrentPublish(t *testing.T) {
	const publishers = 8

	stores := map[string]blobstore.Store{
		"Memory": blobstore.NewMemoryStore(),
		"Local":  blobstore.NewLocalStore(t.TempDir()),
		"DDB":    s3.NewDDBCommitStore(blobstore.NewMemoryStore(), newMockDDBClient(), "kozinec-commits", "s3://bucket/prefix"),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			reg := New(store)

			var wg sync.WaitGroup
			published := make([]uint64, publishers)
			for i := 0; i < publishers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					v, err := reg.Publish(ctx, "A", labeledModel(fmt.Sprintf("L%d", i)))
					assert.NoError(t, err)
					published[i] = v
				}(i)
			}
			wg.Wait()

			versions, err := reg.Versions(ctx, "A")
			require.NoError(t, err)
			require.Len(t, versions, publishers)
			assert.ElementsMatch(t, versions, published)

			labels := make(map[string]uint64)
			for _, v := range versions {
				m, err := reg.Load(ctx, "A", v)
				require.NoError(t, err)
				labels[m.Label] = v
			}
			assert.Len(t, labels, publishers)
			for i, v := range published {
				assert.Equal(t, v, labels[fmt.Sprintf("L%d", i)])
			}

			current, err := reg.Current(ctx, "A")
			require.NoError(t, err)
			v, ok := parseVersion("A", current)
			require.True(t, ok, current)
			assert.Contains(t, versions, v)
		})
	}
}

func TestRegistry_NonConditionalStore(t *testing.T) {
	ctx := context.Background()
	reg := New(plainStore{blobstore.NewMemoryStore()})

	for i := 1; i <= 2; i++ {
		v, err := reg.Publish(ctx, "A", testModel(i))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), v)
	}

	latest, err := reg.Latest(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Iterations)
}

func TestRegistry_CurrentOnlyMovesForward(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	reg := New(store)

	_, err := reg.Publish(ctx, "A", testModel(1))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "A/CURRENT", []byte(VersionPath("A", 5))))

	require.NoError(t, reg.commit(ctx, "A", 2))
	current, err := reg.Current(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "A/v000005.skm", current)
}

func TestRegistry_InvalidName(t *testing.T) {
	ctx := context.Background()
	reg := New(blobstore.NewMemoryStore())

	for _, name := range []string{"", "/A", "A/", "a//b", "../A", "a/./b"} {
		_, err := reg.Publish(ctx, name, testModel(1))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestRegistry_InvalidModel(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	reg := New(store)

	m := testModel(1)
	m.AlphaPos = []float64{0.2, 0.2}
	_, err := reg.Publish(ctx, "A", m)
	assert.ErrorIs(t, err, model.ErrInvalidModel)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		blob string
		want uint64
		ok   bool
	}{
		{"A/v000001.skm", 1, true},
		{"A/v1234567.skm", 1234567, true},
		{"A/CURRENT", 0, false},
		{"A/v000000.skm", 0, false},
		{"A/vx.skm", 0, false},
		{"A/sub/v000001.skm", 0, false},
		{"B/v000001.skm", 0, false},
	}
	for _, tt := range tests {
		v, ok := parseVersion("A", tt.blob)
		assert.Equal(t, tt.ok, ok, tt.blob)
		assert.Equal(t, tt.want, v, tt.blob)
	}
}
