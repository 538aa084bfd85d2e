package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplitCSV(t *testing.T) {
	require.Equal(t, []string{"600000.SH", "000001.SZ"}, splitCSV(" 600000.SH, ,000001.SZ,"))
	require.Empty(t, splitCSV(""))
}

func TestParseDayOr(t *testing.T) {
	def := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	got, err := parseDayOr("", def)
	require.NoError(t, err)
	require.Equal(t, def, got)

	got, err = parseDayOr("2023-12-29", def)
	require.NoError(t, err)
	require.Equal(t, time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDayOr("29/12/2023", def)
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"migrate", "universe", "init", "daily", "export"} {
		_, ok := lookup(name)
		require.True(t, ok, name)
	}
	_, ok := lookup("serve")
	require.False(t, ok)
}
