package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ashare/internal/provider"
)

func d(s string) time.Time {
	t, err := provider.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMissingFrom_PreservesOrderAndDedups(t *testing.T) {
	t.Parallel()

	candidates := []time.Time{d("2024-01-03"), d("2024-01-01"), d("2024-01-02"), d("2024-01-01")}
	present := map[string]struct{}{"2024-01-02": {}}

	require.Equal(t, []time.Time{d("2024-01-03"), d("2024-01-01")}, missingFrom(candidates, present))
	require.Empty(t, missingFrom(candidates[2:3], present))
}

func TestEmptyBatchesDoNoIO(t *testing.T) {
	t.Parallel()

	// A zero Postgres has no pool; any I/O would panic.
	s := &Postgres{logger: nil}
	ctx := context.Background()

	require.NoError(t, s.UpsertDailyBars(ctx, nil))
	require.NoError(t, s.UpsertSecurities(ctx, []Security{}))
	require.NoError(t, s.UpsertAdjustmentFactors(ctx, nil))

	missing, err := s.MissingDailyDates(ctx, "000001.SZ", nil)
	require.NoError(t, err)
	require.Empty(t, missing)
}

func TestOptionalDates(t *testing.T) {
	t.Parallel()

	require.Nil(t, optionalDate(nil))
	require.Nil(t, optionalDate(&time.Time{}))

	listed := d("1991-04-03")
	s := optionalDate(&listed)
	require.NotNil(t, s)
	require.Equal(t, "1991-04-03", *s)

	back, err := parseOptionalDate(s)
	require.NoError(t, err)
	require.Equal(t, listed, *back)

	none, err := parseOptionalDate(nil)
	require.NoError(t, err)
	require.Nil(t, none)

	bad := "03/04/1991"
	_, err = parseOptionalDate(&bad)
	require.Error(t, err)
}
