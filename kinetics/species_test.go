package kinetics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeciesProduceDestroy(t *testing.T) {
	s := Species{name: "A", count: 1}
	s.Produce()
	assert.Equal(t, int64(2), s.Count())

	require.NoError(t, s.Destroy())
	require.NoError(t, s.Destroy())
	assert.Equal(t, int64(0), s.Count())

	err := s.Destroy()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, int64(0), s.Count(), "failed destroy must not mutate")

	var se *StateError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "A", se.Species)
}

func TestSpeciesDestroyNAllOrNothing(t *testing.T) {
	s := Species{name: "A", count: 1}
	err := s.DestroyN(2)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, int64(1), s.Count())

	s.ProduceN(3)
	require.NoError(t, s.DestroyN(2))
	assert.Equal(t, int64(2), s.Count())
}

func TestRegistryAdd(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *Registry) error
	}{
		{"empty name", func(r *Registry) error { _, err := r.Add("", 1); return err }},
		{"negative count", func(r *Registry) error { _, err := r.Add("A", -1); return err }},
		{"duplicate", func(r *Registry) error {
			if _, err := r.Add("A", 1); err != nil {
				return err
			}
			_, err := r.Add("A", 2)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.setup(NewRegistry())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	a, err := r.Add("A", 5)
	require.NoError(t, err)
	b, err := r.Add("B", 1)
	require.NoError(t, err)

	c := r.Clone()
	c.Produce(a, 10)
	require.NoError(t, c.Destroy(b, 1))

	assert.Equal(t, []int64{5, 1}, r.Snapshot())
	assert.Equal(t, []int64{15, 0}, c.Snapshot())
	assert.Equal(t, []string{"A", "B"}, c.Names())

	id, ok := c.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, b, id)
	assert.Equal(t, int64(15), c.Total())
}
