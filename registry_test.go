package propdex

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/propdex/digest"
	"github.com/hupe1980/propdex/index"
	"github.com/hupe1980/propdex/model"
)

var (
	pName   = NewProperty[string]("name")
	pRegion = NewProperty[string]("region")
	pAge    = NewProperty[int]("age")
)

func ids(set index.Entities) []model.EntityID {
	if set == nil {
		return nil
	}
	return set.ToSlice()
}

func TestRegistry(t *testing.T) {
	t.Run("InsertAndLookup", func(t *testing.T) {
		r := New()

		added, err := Insert(r, pName, "Alice", 1)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = Insert(r, pName, "Alice", 2)
		require.NoError(t, err)
		assert.True(t, added)

		set, ok := Lookup(r, pName, "Alice")
		require.True(t, ok)
		assert.Equal(t, []model.EntityID{1, 2}, ids(set))

		_, ok = Lookup(r, pName, "Bob")
		assert.False(t, ok)
	})

	t.Run("InsertIdempotent", func(t *testing.T) {
		r := New()

		_, err := Insert(r, pName, "Alice", 1)
		require.NoError(t, err)
		added, err := Insert(r, pName, "Alice", 1)
		require.NoError(t, err)
		assert.False(t, added)

		set, _ := Lookup(r, pName, "Alice")
		assert.Equal(t, 1, set.Len())
	})

	t.Run("RegisterIsIdempotent", func(t *testing.T) {
		r := New()

		a, err := Register(r, pAge)
		require.NoError(t, err)
		b, err := Register(r, pAge)
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("RegisterTypeMismatch", func(t *testing.T) {
		r := New()

		_, err := Register(r, pAge)
		require.NoError(t, err)

		_, err = Register(r, NewProperty[string]("age"))
		require.ErrorIs(t, err, ErrTypeMismatch)

		var tm *TypeMismatchError
		require.ErrorAs(t, err, &tm)
		assert.Equal(t, "age", tm.Property)
		assert.Equal(t, "int", tm.Expected.String())
		assert.Equal(t, "string", tm.Actual.String())
	})

	t.Run("RegisterEmptyName", func(t *testing.T) {
		_, err := Register(New(), NewProperty[int](""))
		assert.ErrorIs(t, err, ErrInvalidProperty)
	})

	t.Run("LookupUnregistered", func(t *testing.T) {
		_, ok := Lookup(New(), pAge, 30)
		assert.False(t, ok)
	})

	t.Run("LookupReturnsSnapshot", func(t *testing.T) {
		r := New()
		_, err := Insert(r, pName, "Alice", 1)
		require.NoError(t, err)

		set, ok := Lookup(r, pName, "Alice")
		require.True(t, ok)

		_, err = Insert(r, pName, "Alice", 2)
		require.NoError(t, err)
		assert.Equal(t, 1, set.Len())
	})

	t.Run("Remove", func(t *testing.T) {
		r := New()
		_, _ = Insert(r, pName, "Alice", 1)
		_, _ = Insert(r, pName, "Alice", 2)

		removed, err := Remove(r, pName, "Alice", 1)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = Remove(r, pName, "Alice", 1)
		require.NoError(t, err)
		assert.False(t, removed)

		removed, err = Remove(r, pName, "Alice", 2)
		require.NoError(t, err)
		assert.True(t, removed)

		assert.False(t, r.HasHash("name", digest.Of("Alice")), "empty entries are pruned")

		_, err = Remove(r, pAge, 30, 1)
		assert.ErrorIs(t, err, ErrUnknownProperty)
	})

	t.Run("Properties", func(t *testing.T) {
		r := New()
		_, _ = Register(r, pRegion)
		_, _ = Register(r, pAge)
		_, _ = Register(r, pName)
		assert.Equal(t, []string{"age", "name", "region"}, r.Properties())

		id, ok := r.PropertyID("age")
		require.True(t, ok)
		assert.Equal(t, "age(int)", id.String())
	})
}

func TestRegistry_Erased(t *testing.T) {
	t.Run("TypedAndErasedAgree", func(t *testing.T) {
		r := New()
		for i := range 50 {
			_, err := Insert(r, pAge, i%7, model.EntityID(i))
			require.NoError(t, err)
		}

		ix, ok := r.Index("age")
		require.True(t, ok)
		assert.Equal(t, 7, ix.Len())

		for v := range 7 {
			typed, ok := Lookup(r, pAge, v)
			require.True(t, ok)

			erased, ok := r.GetWithHash("age", digest.Of(v))
			require.True(t, ok)
			assert.Equal(t, ids(typed), ids(erased))
		}
	})

	t.Run("InsertWithHashNeverCreates", func(t *testing.T) {
		r := New()
		_, _ = Insert(r, pName, "Alice", 1)

		_, err := r.InsertWithHash("name", digest.Of("Bob"), 2)
		require.ErrorIs(t, err, ErrNoSuchEntry)
		assert.False(t, r.HasHash("name", digest.Of("Bob")))

		added, err := r.InsertWithHash("name", digest.Of("Alice"), 2)
		require.NoError(t, err)
		assert.True(t, added)

		set, _ := Lookup(r, pName, "Alice")
		assert.Equal(t, []model.EntityID{1, 2}, ids(set))
	})

	t.Run("RemoveWithHash", func(t *testing.T) {
		r := New()
		_, _ = Insert(r, pName, "Alice", 1)

		removed, err := r.RemoveWithHash("name", digest.Of("Alice"), 1)
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = r.RemoveWithHash("name", digest.Of("Alice"), 1)
		assert.ErrorIs(t, err, ErrNoSuchEntry)
	})

	t.Run("UnknownProperty", func(t *testing.T) {
		r := New()

		_, err := r.InsertWithHash("missing", digest.Of(1), 1)
		assert.ErrorIs(t, err, ErrUnknownProperty)

		_, ok := r.GetWithHash("missing", digest.Of(1))
		assert.False(t, ok)

		_, ok = r.Index("missing")
		assert.False(t, ok)
	})
}

func TestRegistry_Fields(t *testing.T) {
	r := New()
	_, _ = Register(r, pRegion)
	_, _ = Register(r, pAge)

	t.Run("InsertField", func(t *testing.T) {
		added, err := r.InsertField(1, F("region", "eu"))
		require.NoError(t, err)
		assert.True(t, added)

		set, ok := Lookup(r, pRegion, "eu")
		require.True(t, ok)
		assert.True(t, set.Contains(1))
	})

	t.Run("TypeIdentity", func(t *testing.T) {
		_, err := r.InsertField(1, F("age", int64(30)))
		require.ErrorIs(t, err, ErrTypeMismatch)

		_, err = r.InsertField(1, F("unknown", 30))
		require.ErrorIs(t, err, ErrUnknownProperty)
	})

	t.Run("RemoveField", func(t *testing.T) {
		_, err := r.InsertField(9, F("age", 99))
		require.NoError(t, err)

		removed, err := r.RemoveField(9, F("age", 99))
		require.NoError(t, err)
		assert.True(t, removed)
	})
}

func TestRegistry_Match(t *testing.T) {
	r := New()
	people := []struct {
		id     model.EntityID
		region string
		age    int
	}{
		{1, "eu", 30},
		{2, "eu", 40},
		{3, "us", 30},
		{4, "eu", 30},
	}
	for _, p := range people {
		_, err := Insert(r, pRegion, p.region, p.id)
		require.NoError(t, err)
		_, err = Insert(r, pAge, p.age, p.id)
		require.NoError(t, err)
	}

	t.Run("Intersects", func(t *testing.T) {
		set, err := r.Match(F("region", "eu"), F("age", 30))
		require.NoError(t, err)
		assert.Equal(t, []model.EntityID{1, 4}, ids(set))
	})

	t.Run("MissYieldsEmpty", func(t *testing.T) {
		set, err := r.Match(F("region", "eu"), F("age", 50))
		require.NoError(t, err)
		assert.True(t, set.IsEmpty())
	})

	t.Run("NoFields", func(t *testing.T) {
		set, err := r.Match()
		require.NoError(t, err)
		assert.True(t, set.IsEmpty())
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := r.Match(F("shoe", 42))
		assert.ErrorIs(t, err, ErrUnknownProperty)

		_, err = r.Match(F("age", "30"))
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})
}

func TestRegistry_Stats(t *testing.T) {
	r := New()
	_, _ = Insert(r, pRegion, "eu", 1)
	_, _ = Insert(r, pRegion, "us", 2)
	_, _ = Insert(r, pAge, 30, 1)

	_, err := r.RegisterComposite("region", "age")
	require.NoError(t, err)

	stats := r.Stats()
	require.Len(t, stats, 3)

	assert.Equal(t, IndexStats{Name: "age", Type: "int", Entries: 1}, stats[0])
	assert.Equal(t, "age+region", stats[1].Name)
	assert.True(t, stats[1].Composite)
	assert.Equal(t, 0, stats[1].Entries)
	assert.Equal(t, IndexStats{Name: "region", Type: "string", Entries: 2}, stats[2])
}

func TestRegistry_Metrics(t *testing.T) {
	mc := &BasicMetricsCollector{}
	r := New(WithMetricsCollector(mc))

	_, _ = Insert(r, pName, "Alice", 1)
	_, _ = Insert(r, pName, "Bob", 2)
	_, _ = Lookup(r, pName, "Alice")
	_, _ = Lookup(r, pName, "Carol")
	_, _ = Register(r, NewProperty[int]("name"))

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.InsertCount)
	assert.Equal(t, int64(0), stats.InsertErrors)
	assert.Equal(t, int64(2), stats.LookupCount)
	assert.Equal(t, int64(1), stats.LookupHits)
	assert.Equal(t, int64(2), stats.RegisterCount)
	assert.Equal(t, int64(1), stats.RegisterErrors)
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				id := model.EntityID(w*1000 + i)
				_, err := Insert(r, pRegion, fmt.Sprintf("r%d", i%10), id)
				if err != nil {
					t.Error(err)
					return
				}
				_, _ = Lookup(r, pRegion, "r0")
			}
		}()
	}
	wg.Wait()

	total := 0
	for i := range 10 {
		set, ok := Lookup(r, pRegion, fmt.Sprintf("r%d", i))
		require.True(t, ok)
		total += set.Len()
	}
	assert.Equal(t, 8*200, total)
}

func TestTypeMismatchError(t *testing.T) {
	r := New()
	_, _ = Register(r, pAge)

	_, err := r.InsertField(1, F("age", "thirty"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.Equal(t, `type mismatch for property "age": expected int, got string`, err.Error())
}

type shape interface{ Area() float64 }

type square struct{ side float64 }

func (s square) Area() float64 { return s.side * s.side }

func TestRegistry_InterfaceProperty(t *testing.T) {
	r := New()
	_, err := Register(r, NewProperty[shape]("shape"))
	require.NoError(t, err)

	_, err = r.InsertField(1, F("shape", square{2}))
	require.NoError(t, err)
	_, err = r.InsertField(2, F("shape", nil))
	require.NoError(t, err)

	set, ok := Lookup(r, NewProperty[shape]("shape"), shape(square{2}))
	require.True(t, ok)
	assert.Equal(t, []model.EntityID{1}, ids(set))

	set, ok = Lookup(r, NewProperty[shape]("shape"), nil)
	require.True(t, ok)
	assert.Equal(t, []model.EntityID{2}, ids(set))

	t.Run("DynamicTypesStayApart", func(t *testing.T) {
		type rect struct{ side float64 }

		code := NewProperty[any]("code")
		_, err := Register(r, code)
		require.NoError(t, err)

		_, err = r.InsertField(1, F("code", 1))
		require.NoError(t, err)
		_, err = r.InsertField(2, F("code", int64(1)))
		require.NoError(t, err)
		_, err = r.InsertField(3, F("code", square{2}))
		require.NoError(t, err)
		_, err = r.InsertField(4, F("code", rect{2}))
		require.NoError(t, err)

		set, err := r.Match(F("code", int64(1)))
		require.NoError(t, err)
		assert.Equal(t, []model.EntityID{2}, ids(set))

		set, err = r.Match(F("code", rect{2}))
		require.NoError(t, err)
		assert.Equal(t, []model.EntityID{4}, ids(set))

		got, ok := Lookup(r, code, any(1))
		require.True(t, ok)
		assert.Equal(t, []model.EntityID{1}, ids(got))

		ix, ok := r.Index("code")
		require.True(t, ok)
		got, ok = r.GetWithHash("code", ix.KeyDigest(square{2}))
		require.True(t, ok)
		assert.Equal(t, []model.EntityID{3}, ids(got))
		assert.False(t, r.HasHash("code", digest.Of(square{2})), "interface keys hash their dynamic type")
	})
}
