package propdex

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/propdex/model"
	"github.com/hupe1980/propdex/testutil"
)

func TestLoad(t *testing.T) {
	t.Run("FillsPropertiesAndComposites", func(t *testing.T) {
		r := newPeopleRegistry(t)
		_, err := r.RegisterComposite("region", "age")
		require.NoError(t, err)

		err = r.Load(context.Background(), []Record{
			{ID: 1, Fields: []Field{F("region", "eu"), F("age", 30)}},
			{ID: 2, Fields: []Field{F("age", 30), F("region", "eu"), F("name", "Bob")}},
			{ID: 3, Fields: []Field{F("region", "us")}},
		})
		require.NoError(t, err)

		set, ok := Lookup(r, pRegion, "eu")
		require.True(t, ok)
		assert.Equal(t, []model.EntityID{1, 2}, ids(set))

		set, ok, err = r.QueryComposite(F("age", 30), F("region", "eu"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []model.EntityID{1, 2}, ids(set))

		_, ok, err = r.QueryComposite(F("age", 30), F("region", "us"))
		require.NoError(t, err)
		assert.False(t, ok, "records missing a member property skip the composite")
	})

	t.Run("RejectsInvalidRecords", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		r := New(WithMetricsCollector(mc))
		_, _ = Register(r, pRegion)
		_, _ = Register(r, pAge)

		err := r.Load(context.Background(), []Record{
			{ID: 1, Fields: []Field{F("region", "eu"), F("age", 30)}},
			{ID: 2, Fields: []Field{F("region", "eu"), F("age", "thirty")}},
			{ID: 3, Fields: []Field{F("shoe", 42)}},
			{ID: 4, Fields: []Field{F("age", 1), F("age", 2)}},
		})

		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, 3, le.Failed)
		assert.Equal(t, 4, le.Total)
		assert.ErrorIs(t, err, ErrTypeMismatch)
		assert.ErrorIs(t, err, ErrUnknownProperty)
		assert.ErrorIs(t, err, ErrInvalidProperty)

		set, ok := Lookup(r, pRegion, "eu")
		require.True(t, ok)
		assert.Equal(t, []model.EntityID{1}, ids(set), "rejected records are skipped as a whole")

		stats := mc.GetStats()
		assert.Equal(t, int64(1), stats.LoadCount)
		assert.Equal(t, int64(4), stats.LoadRecords)
		assert.Equal(t, int64(3), stats.LoadFailed)
	})

	t.Run("Canceled", func(t *testing.T) {
		r := newPeopleRegistry(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := r.Load(ctx, []Record{{ID: 1, Fields: []Field{F("age", 1)}}})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("MatchesSequentialInserts", func(t *testing.T) {
		rng := testutil.NewRNG(42)
		regions := rng.Strings(20, 6)

		loaded := New(WithLoadWorkers(4))
		_, _ = Register(loaded, pRegion)
		_, _ = Register(loaded, pAge)

		sequential := New()

		records := make([]Record, 0, 5000)
		for i := range 5000 {
			region := regions[rng.Intn(len(regions))]
			age := rng.Intn(90)
			records = append(records, Record{
				ID:     model.EntityID(i),
				Fields: []Field{F("region", region), F("age", age)},
			})
			_, _ = Insert(sequential, pRegion, region, model.EntityID(i))
			_, _ = Insert(sequential, pAge, age, model.EntityID(i))
		}
		require.NoError(t, loaded.Load(context.Background(), records))

		assert.Equal(t, sequential.Stats(), loaded.Stats())
		for _, region := range regions {
			want, _ := Lookup(sequential, pRegion, region)
			got, _ := Lookup(loaded, pRegion, region)
			assert.Equal(t, ids(want), ids(got), fmt.Sprintf("region %q", region))
		}
	})
}
