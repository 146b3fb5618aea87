package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/bpmspec/internal/util"
)

func TestSet(t *testing.T) {
	s := util.SetOf("endA", "endB")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("endA"))
	assert.False(t, s.Contains("endC"))

	s.Add("endC")
	s.Add("endC")
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"endA", "endB", "endC"}, util.SortedStrings(s))
	assert.Zero(t, util.SetOf[string]().Len())
}

func TestSortedStrings(t *testing.T) {
	s := util.SetOf("zeta", "alpha", "mid")
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, util.SortedStrings(s))
	assert.Equal(t, "alpha, mid, zeta", util.JoinSorted(s))
	assert.Empty(t, util.SortedStrings(util.SetOf[string]()))
}
