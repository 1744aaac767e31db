package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input   string
		want    Style
		wantErr bool
	}{
		{input: "BW", want: StyleBW},
		{input: "Sepia", want: StyleSepia},
		{input: "Color", want: StyleColor},
		{input: "Painting", want: StylePainting},
		{input: "bw", wantErr: true},
		{input: "Watercolor", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseStyle(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidStyle))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseStyles(t *testing.T) {
	t.Parallel()

	t.Run("empty list means all styles", func(t *testing.T) {
		styles, err := ParseStyles(nil)
		require.NoError(t, err)
		assert.Equal(t, AllStyles(), styles)
	})

	t.Run("duplicates are dropped", func(t *testing.T) {
		styles, err := ParseStyles([]string{"Sepia", "BW", "Sepia"})
		require.NoError(t, err)
		assert.Equal(t, []Style{StyleSepia, StyleBW}, styles)
	})

	t.Run("one invalid style fails the list", func(t *testing.T) {
		_, err := ParseStyles([]string{"BW", "Neon"})
		assert.ErrorIs(t, err, ErrInvalidStyle)
	})
}

func TestStyleNeedsToneTransform(t *testing.T) {
	t.Parallel()

	assert.True(t, StyleBW.NeedsToneTransform())
	assert.True(t, StyleSepia.NeedsToneTransform())
	assert.False(t, StyleColor.NeedsToneTransform())
	assert.False(t, StylePainting.NeedsToneTransform())
}
