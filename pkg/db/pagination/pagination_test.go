package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "123", CreatedAt: "2026-01-02T03:04:05Z"})
	require.NoError(t, err)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "123", decoded.ID)

	_, err = DecodeCursor("%%%")
	assert.Error(t, err)
}

func TestPageTrimsExtraRow(t *testing.T) {
	rows := []int{1, 2, 3}
	kept, info := Page(rows, 2, func(v int) string { return strconv.Itoa(v) })

	assert.Equal(t, []int{1, 2}, kept)
	assert.True(t, info.HasMore)
	assert.Equal(t, "2", info.NextPageToken)

	kept, info = Page(rows, 5, func(v int) string { return strconv.Itoa(v) })
	assert.Len(t, kept, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestLimitClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 10, Pagination{PageSize: 10}.Limit())
}
