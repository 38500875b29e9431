package store

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
)

func TestDateValue(t *testing.T) {
	got := dateValue(civil.Date{Year: 2023, Month: time.March, Day: 31})
	want := time.Date(2023, time.March, 31, 0, 0, 0, 0, time.UTC)
	require.True(t, got.Equal(want), "got %v, want %v", got, want)
	require.Equal(t, time.UTC, got.Location())
	require.Equal(t, civil.Date{Year: 2023, Month: time.March, Day: 31}, civil.DateOf(got), "round trip changed the date")
}

var _ Repository = (*PgRepository)(nil)
