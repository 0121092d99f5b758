package cache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/lshdb/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct{ evicted atomic.Int32 }

func (s *slot) Evict() { s.evicted.Add(1) }

func TestResidency_BlockBudget(t *testing.T) {
	r, err := NewResidency(2, nil)
	require.NoError(t, err)
	owner := NewOwner()

	a, b, c := &slot{}, &slot{}, &slot{}
	assert.True(t, r.Admit(Key{owner, 0}, 10, a))
	assert.True(t, r.Admit(Key{owner, 1}, 10, b))
	r.Touch(Key{owner, 0})
	assert.True(t, r.Admit(Key{owner, 2}, 10, c))

	assert.Equal(t, int32(0), a.evicted.Load())
	assert.Equal(t, int32(1), b.evicted.Load())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, int64(1), r.Evictions())
}

func TestResidency_MemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	r, err := NewResidency(10, rc)
	require.NoError(t, err)
	owner := NewOwner()

	a, b := &slot{}, &slot{}
	assert.True(t, r.Admit(Key{owner, 0}, 60, a))
	assert.True(t, r.Admit(Key{owner, 1}, 60, b))
	assert.Equal(t, int32(1), a.evicted.Load())
	assert.Equal(t, int64(60), rc.MemoryUsage())

	assert.False(t, r.Admit(Key{owner, 2}, 200, &slot{}))
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Equal(t, int32(1), b.evicted.Load())
}

func TestResidency_Resize(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	r, err := NewResidency(10, rc)
	require.NoError(t, err)
	s := &slot{}
	k := Key{NewOwner(), 0}

	assert.True(t, r.Admit(k, 10, s))
	assert.True(t, r.Admit(k, 30, s))
	assert.Equal(t, int64(30), rc.MemoryUsage())
	assert.True(t, r.Admit(k, 5, s))
	assert.Equal(t, int64(5), rc.MemoryUsage())
	assert.False(t, r.Admit(k, 500, s))
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestResidency_ConcurrentAdmitSameKey(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1000})
	r, err := NewResidency(10, rc)
	require.NoError(t, err)
	k := Key{NewOwner(), 0}
	s := &slot{}

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Admit(k, 10, s)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, r.Len())
		assert.Equal(t, int64(10), rc.MemoryUsage())

		r.Remove(k)
		assert.Equal(t, int64(0), rc.MemoryUsage())
	}
}

func TestResidency_RemoveOwner(t *testing.T) {
	r, err := NewResidency(10, nil)
	require.NoError(t, err)
	o1, o2 := NewOwner(), NewOwner()
	s1, s2 := &slot{}, &slot{}
	r.Admit(Key{o1, 0}, 1, s1)
	r.Admit(Key{o2, 0}, 1, s2)

	r.RemoveOwner(o1)
	assert.Equal(t, int32(1), s1.evicted.Load())
	assert.Equal(t, int32(0), s2.evicted.Load())
	assert.Equal(t, 1, r.Len())
}

func TestResidency_Nil(t *testing.T) {
	r, err := NewResidency(0, nil)
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.True(t, r.Admit(Key{}, 1, &slot{}))
	r.Touch(Key{})
	r.Remove(Key{})
	r.RemoveOwner(1)
	assert.Zero(t, r.Len())
}
