package fetcher

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ashare/internal/provider"
	"ashare/internal/slogx"
)

var day = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func mockProvider(ctrl *gomock.Controller, name string, priority int) *MockProvider {
	p := NewMockProvider(ctrl)
	p.EXPECT().Name().Return(name).AnyTimes()
	p.EXPECT().Priority().Return(priority).AnyTimes()
	return p
}

func TestNew_SortsByPriorityStable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	a := mockProvider(ctrl, "a", 1)
	b := mockProvider(ctrl, "b", 5)
	c := mockProvider(ctrl, "c", 1)
	d := mockProvider(ctrl, "d", 5)

	f := New([]provider.Provider{a, b, c, nil, d}, slogx.Discard())

	var names []string
	for _, p := range f.Providers() {
		names = append(names, p.Name())
	}
	require.Equal(t, []string{"b", "d", "a", "c"}, names)
}

func TestFetch_FallsBackPastErrorAndAbsence(t *testing.T) {
	t.Parallel()

	// Arrange: highest priority errors, next is absent, last has data
	ctrl := gomock.NewController(t)
	first := mockProvider(ctrl, "first", 3)
	second := mockProvider(ctrl, "second", 2)
	third := mockProvider(ctrl, "third", 1)

	gomock.InOrder(
		first.EXPECT().FetchDaily(gomock.Any(), "000001.SZ", day).Return(nil, errors.New("timeout")),
		second.EXPECT().FetchDaily(gomock.Any(), "000001.SZ", day).Return(nil, nil),
		third.EXPECT().FetchDaily(gomock.Any(), "000001.SZ", day).Return(&provider.Bar{
			Symbol: "000001.SZ", TradeDate: day, Open: 0, High: 9, Low: 11, Close: 10, Volume: -5, Turnover: math.NaN(),
		}, nil),
	)

	f := New([]provider.Provider{third, first, second}, slogx.Discard())

	// Act
	bar := f.Fetch(t.Context(), "000001.SZ", day.Add(15*time.Hour))

	// Assert: normalized and attributed to the provider that answered
	require.NotNil(t, bar)
	require.Equal(t, "third", bar.Source)
	require.InEpsilon(t, 10.0, bar.Open, 1e-9)
	require.InEpsilon(t, 10.0, bar.High, 1e-9)
	require.InEpsilon(t, 10.0, bar.Low, 1e-9)
	require.Zero(t, bar.Volume)
	require.Zero(t, bar.Turnover)
}

func TestFetch_StopsAtFirstBar(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	hi := mockProvider(ctrl, "hi", 2)
	lo := mockProvider(ctrl, "lo", 1)
	hi.EXPECT().FetchDaily(gomock.Any(), gomock.Any(), gomock.Any()).Return(&provider.Bar{Open: 1, High: 2, Low: 1, Close: 2, Source: "hi"}, nil)
	lo.EXPECT().FetchDaily(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	bar := New([]provider.Provider{lo, hi}, slogx.Discard()).Fetch(t.Context(), "600000.SH", day)
	require.NotNil(t, bar)
	require.Equal(t, "hi", bar.Source)
}

func TestFetch_AllFailReturnsNil(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	a := mockProvider(ctrl, "a", 1)
	b := mockProvider(ctrl, "b", 0)
	a.EXPECT().FetchDaily(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("x"))
	b.EXPECT().FetchDaily(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	require.Nil(t, New([]provider.Provider{a, b}, slogx.Discard()).Fetch(t.Context(), "600000.SH", day))
}

func TestFetch_ConcurrentSameKeyShareOneLookup(t *testing.T) {
	t.Parallel()

	// Arrange: the only provider blocks until released and may be called once
	ctrl := gomock.NewController(t)
	p := mockProvider(ctrl, "slow", 1)
	started := make(chan struct{})
	release := make(chan struct{})
	p.EXPECT().
		FetchDaily(gomock.Any(), "600000.SH", day).
		DoAndReturn(func(context.Context, string, time.Time) (*provider.Bar, error) {
			close(started)
			<-release
			return &provider.Bar{Symbol: "600000.SH", TradeDate: day, Open: 7, High: 7.2, Low: 6.9, Close: 7.1}, nil
		}).
		Times(1)
	f := New([]provider.Provider{p}, slogx.Discard())

	// Act
	results := make([]*provider.Bar, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = f.Fetch(t.Context(), "600000.SH", day)
	}()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1] = f.Fetch(t.Context(), "600000.SH", day)
	}()
	// give the second caller time to join the in-flight lookup
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	// Assert: same values, separate copies
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	require.Equal(t, *results[0], *results[1])
	require.NotSame(t, results[0], results[1])
	results[0].Close = 0
	require.InEpsilon(t, 7.1, results[1].Close, 1e-9)
}

func TestFetch_NoProviders(t *testing.T) {
	t.Parallel()

	require.Nil(t, New(nil, nil).Fetch(t.Context(), "600000.SH", day))
}

func TestClose_ClosesAllAndJoinsErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	a := mockProvider(ctrl, "a", 2)
	b := mockProvider(ctrl, "b", 1)
	errA := errors.New("a broke")
	a.EXPECT().Close().Return(errA)
	b.EXPECT().Close().Return(nil)

	err := New([]provider.Provider{a, b}, nil).Close()
	require.ErrorIs(t, err, errA)
}

func TestNormalize_Invariants(t *testing.T) {
	t.Parallel()

	bars := []provider.Bar{
		{Open: 5, High: 4, Low: 6, Close: 7},
		{Open: 0, High: 0, Low: 0, Close: 3},
		{Open: 2, High: 10, Low: 1, Close: 3, Volume: 100, Turnover: 300},
		{Open: 8, High: 9, Low: 7.5, Close: 7, Volume: -1, Turnover: -2},
		{Open: 10, High: math.NaN(), Low: 9.8, Close: 10.5},
		{Open: 10, High: 11, Low: math.NaN(), Close: 10.5},
		{Open: math.NaN(), High: math.Inf(1), Low: math.Inf(-1), Close: 4, Volume: math.Inf(1)},
	}
	for _, b := range bars {
		b := b
		Normalize(&b)
		require.LessOrEqual(t, b.Low, b.Open)
		require.LessOrEqual(t, b.Open, b.High)
		require.LessOrEqual(t, b.Low, b.Close)
		require.LessOrEqual(t, b.Close, b.High)
		require.GreaterOrEqual(t, b.Volume, 0.0)
		require.GreaterOrEqual(t, b.Turnover, 0.0)
	}

	b := provider.Bar{Open: 2, High: 10, Low: 1, Close: 3, Volume: 100}
	Normalize(&b)
	require.Equal(t, provider.Bar{Open: 2, High: 10, Low: 1, Close: 3, Volume: 100}, b)

	// a non-finite raw high is dropped, not propagated
	b = provider.Bar{Open: 10, High: math.NaN(), Low: 9.8, Close: 10.5}
	Normalize(&b)
	require.Equal(t, provider.Bar{Open: 10, High: 10.5, Low: 9.8, Close: 10.5}, b)
}
