package api_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/bpmspec/pkg/api"
)

func TestParseTimeUnit(t *testing.T) {
	for in, expected := range map[string]api.TimeUnit{
		"s":       api.Second,
		"Minutes": api.Minute,
		" hour ":  api.Hour,
		"days":    api.Day,
		"week":    api.Week,
		"month":   api.Month,
		"y":       api.Year,
	} {
		u, err := api.ParseTimeUnit(in)
		assert.NoError(t, err)
		assert.Equal(t, expected, u, in)
	}

	_, err := api.ParseTimeUnit("fortnight")
	assert.ErrorIs(t, err, api.ErrUnknownTimeUnit)
}

func TestTimeUnitAdd(t *testing.T) {
	base := time.Date(2015, 1, 31, 10, 0, 0, 0, time.UTC)

	res, err := api.Hour.Add(base, 2)
	assert.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Hour), res)

	res, err = api.Day.Add(base, 1)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2015, 2, 1, 10, 0, 0, 0, time.UTC), res)

	res, err = api.Week.Add(base, -1)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2015, 1, 24, 10, 0, 0, 0, time.UTC), res)

	res, err = api.Year.Add(base, 1)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2016, 1, 31, 10, 0, 0, 0, time.UTC), res)

	_, err = api.TimeUnit("eon").Add(base, 1)
	assert.ErrorIs(t, err, api.ErrUnknownTimeUnit)
}
