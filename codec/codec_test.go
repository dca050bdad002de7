package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Alpha []float64 `json:"alpha"`
	IDs   []string  `json:"ids"`
	Label string    `json:"label"`
}

func TestCodecs(t *testing.T) {
	in := payload{Alpha: []float64{0.25, 0, 0.75}, IDs: []string{"1", "2", "3"}, Label: "A"}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			b, err := c.Marshal(in)
			require.NoError(t, err)

			// Both codecs read each other's output.
			for _, other := range []Codec{JSON{}, GoJSON{}} {
				var out payload
				require.NoError(t, other.Unmarshal(b, &out))
				assert.Equal(t, in, out)
			}

			byName, ok := ByName(c.Name())
			require.True(t, ok)
			assert.Equal(t, c, byName)

			byID, err := ByID(c.ID())
			require.NoError(t, err)
			assert.Equal(t, c, byID)
		})
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
	_, err := ByID(0)
	assert.Error(t, err)
	assert.Equal(t, IDGoJSON, Default.ID())
}
