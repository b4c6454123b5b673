package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResult_FirstPageHasNoPrevPage(t *testing.T) {
	r := NewResult([]string{"a", "b"}, Page{Offset: 0, Limit: 2}, 5)
	assert.Nil(t, r.PrevPage)
	require := assert.New(t)
	require.NotNil(r.NextPage)
	require.Equal(Page{Offset: 2, Limit: 2}, *r.NextPage)
}

func TestNewResult_MiddlePageHasBothCursors(t *testing.T) {
	r := NewResult([]string{"c", "d"}, Page{Offset: 2, Limit: 2}, 5)
	require := assert.New(t)
	require.NotNil(r.PrevPage)
	require.Equal(Page{Offset: 0, Limit: 2}, *r.PrevPage)
	require.NotNil(r.NextPage)
	require.Equal(Page{Offset: 4, Limit: 2}, *r.NextPage)
}

func TestNewResult_PastLastPageReturnsEmptyItemsNoNextPage(t *testing.T) {
	r := NewResult([]string{}, Page{Offset: 10, Limit: 2}, 5)
	assert.Empty(t, r.Items)
	assert.Equal(t, 5, r.Total)
	assert.Nil(t, r.NextPage)
	assert.NotNil(t, r.PrevPage)
}

func TestPage_NormalizeAppliesDefaultAndCap(t *testing.T) {
	p := Page{Offset: -5, Limit: 0}.Normalize(20, 100)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, 20, p.Limit)

	p2 := Page{Offset: 0, Limit: 1000}.Normalize(20, 100)
	assert.Equal(t, 100, p2.Limit)
}
