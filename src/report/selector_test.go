package report

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    []string
		wantErr bool
	}{
		{name: "single build", token: "12", want: []string{"12"}},
		{name: "non-numeric single token", token: "lastSuccessfulBuild", want: []string{"lastSuccessfulBuild"}},
		{name: "range", token: "12-15", want: []string{"12", "13", "14", "15"}},
		{name: "one element range", token: "7-7", want: []string{"7"}},
		{name: "reversed range", token: "5-3", wantErr: true},
		{name: "too many parts", token: "1-2-3", wantErr: true},
		{name: "non-numeric bound", token: "a-3", wantErr: true},
		{name: "missing start", token: "-3", wantErr: true},
		{name: "empty", token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelector(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				var rangeErr *InvalidRangeError
				require.True(t, errors.As(err, &rangeErr))
				assert.Equal(t, tt.token, rangeErr.Token)
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSelector_RangeSize(t *testing.T) {
	for _, r := range [][2]int{{0, 0}, {1, 10}, {95, 130}, {1000, 1001}} {
		a, b := r[0], r[1]
		ids, err := ParseSelector(strconv.Itoa(a) + "-" + strconv.Itoa(b))
		require.NoError(t, err)
		assert.Len(t, ids, b-a+1)

		seen := make(map[string]bool)
		for _, id := range ids {
			n, err := strconv.Atoi(id)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, a)
			assert.LessOrEqual(t, n, b)
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
}

func TestParseSelector_Bounds(t *testing.T) {
	maxInt := strconv.Itoa(math.MaxInt)
	beforeMax := strconv.Itoa(math.MaxInt - 1)

	ids, err := ParseSelector(beforeMax + "-" + maxInt)
	require.NoError(t, err)
	assert.Equal(t, []string{beforeMax, maxInt}, ids)

	ids, err = ParseSelector(maxInt + "-" + maxInt)
	require.NoError(t, err)
	assert.Equal(t, []string{maxInt}, ids)

	ids, err = ParseSelector("1-" + strconv.Itoa(MaxRangeSize))
	require.NoError(t, err)
	assert.Len(t, ids, MaxRangeSize)

	for _, token := range []string{"0-" + strconv.Itoa(MaxRangeSize), "1-100000000000", "0-" + maxInt} {
		_, err := ParseSelector(token)
		var rangeErr *InvalidRangeError
		require.ErrorAs(t, err, &rangeErr, token)
		assert.Equal(t, token, rangeErr.Token)
	}
}

func TestExpandSelectors(t *testing.T) {
	ids, err := ExpandSelectors([]string{"14-16", "12", "15", "lastBuild", "10-12"})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11", "12", "14", "15", "16", "lastBuild"}, ids)
}

func TestExpandSelectors_InvalidTokenAbortsAll(t *testing.T) {
	ids, err := ExpandSelectors([]string{"1-3", "1-2-3"})
	assert.Nil(t, ids)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Contains(t, err.Error(), "1-2-3")
}
