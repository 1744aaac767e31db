package research_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/mocks"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
	"github.com/phrazzld/portrait-generator/internal/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const numberedResponse = `1. FULL NAME: Augusta Ada King, Countess of Lovelace
2. BIRTH YEAR: 1815
3. DEATH YEAR: 1852
4. ERA: Victorian Era
5. APPEARANCE NOTES:
   - Dark hair parted in the centre
   - Pale complexion
   * Elegant silk gowns of the 1840s
   - Oval face with expressive eyes
   - Often wore a shawl
   - Delicate jewellery
6. HISTORICAL CONTEXT: Daughter of Lord Byron, she worked with Charles Babbage
on the Analytical Engine.
7. REFERENCE SOURCES:
   - Portrait by Margaret Carpenter
   - Letters to Babbage
   - Contemporary accounts
   - Biographies
`

func TestParseResponse(t *testing.T) {
	t.Parallel()

	data, err := research.ParseResponse("Ada Lovelace", numberedResponse)

	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", data.Name)
	assert.Equal(t, 1815, data.BirthYear)
	require.NotNil(t, data.DeathYear)
	assert.Equal(t, 1852, *data.DeathYear)
	assert.Equal(t, "Victorian Era", data.Era)
	assert.Equal(t, []string{
		"Dark hair parted in the centre",
		"Pale complexion",
		"Elegant silk gowns of the 1840s",
		"Oval face with expressive eyes",
		"Often wore a shawl",
	}, data.AppearanceNotes)
	assert.Equal(t, "Daughter of Lord Byron, she worked with Charles Babbage on the Analytical Engine.", data.HistoricalContext)
	assert.Equal(t, []string{"Portrait by Margaret Carpenter", "Letters to Babbage", "Contemporary accounts"}, data.ReferenceSources)
	assert.Equal(t, "1815-1852", data.FormattedYears())
}

func TestParseResponseVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		response  string
		wantBirth int
		wantDeath *int
		wantEra   string
		wantCtx   string
		wantErr   error
	}{
		{
			name:      "living subject",
			response:  "BIRTH YEAR: 1947\nDEATH YEAR: Present\nERA: Modern Era",
			wantBirth: 1947,
			wantEra:   "Modern Era",
			wantCtx:   "Historical figure from Modern Era",
		},
		{
			name:      "alive keyword and markdown labels",
			response:  "**BIRTH YEAR:** 1961\n**DEATH YEAR:** alive\n**ERA:** Information Age",
			wantBirth: 1961,
			wantEra:   "Information Age",
			wantCtx:   "Historical figure from Information Age",
		},
		{
			name:      "missing era uses default",
			response:  "Birth Year 1643\nDeath Year 1727",
			wantBirth: 1643,
			wantDeath: domain.IntPtr(1727),
			wantEra:   domain.DefaultEra,
			wantCtx:   "Historical figure from Unknown Era",
		},
		{
			name:     "missing birth year",
			response: "ERA: Renaissance",
			wantErr:  research.ErrResearchIncomplete,
		},
		{
			name:     "death before birth",
			response: "BIRTH YEAR: 1900\nDEATH YEAR: 1800\nERA: Modern",
			wantErr:  domain.ErrInvalidSubjectData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := research.ParseResponse("Someone", tt.response)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBirth, data.BirthYear)
			assert.Equal(t, tt.wantDeath, data.DeathYear)
			assert.Equal(t, tt.wantEra, data.Era)
			assert.Equal(t, tt.wantCtx, data.HistoricalContext)
		})
	}
}

func TestPromptMentionsEverySection(t *testing.T) {
	t.Parallel()

	p := research.Prompt("Marie Curie")
	for _, section := range []string{"NAME: Marie Curie", "BIRTH YEAR", "DEATH YEAR", "ERA", "APPEARANCE NOTES", "HISTORICAL CONTEXT", "REFERENCE SOURCES"} {
		assert.Contains(t, p, section)
	}
}

func TestResearcherCaches(t *testing.T) {
	t.Parallel()

	l, _ := logger.NewCaptureLogger(t)
	querier := &mocks.MockTextQuerier{Response: numberedResponse}
	r, err := research.NewResearcher(querier, l, time.Hour)
	require.NoError(t, err)

	first, err := r.Research(context.Background(), "Ada Lovelace")
	require.NoError(t, err)
	second, err := r.Research(context.Background(), "  ada   LOVELACE ")
	require.NoError(t, err)

	assert.Equal(t, 1, querier.Calls())
	assert.NotSame(t, first, second)
	assert.Equal(t, "Ada Lovelace", first.Name)
	assert.Equal(t, "ada   LOVELACE", second.Name, "cache hit keeps the caller's spelling")
	assert.Equal(t, first.BirthYear, second.BirthYear)
	assert.Equal(t, first.Era, second.Era)

	third, err := r.Research(context.Background(), "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", third.Name, "earlier hits do not rename the cached entry")

	r.Forget("Ada Lovelace")
	_, err = r.Research(context.Background(), "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, 2, querier.Calls())
}

func TestResearcherWithoutCache(t *testing.T) {
	t.Parallel()

	l, _ := logger.NewCaptureLogger(t)
	querier := &mocks.MockTextQuerier{Response: numberedResponse}
	r, err := research.NewResearcher(querier, l, 0)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := r.Research(context.Background(), "Ada Lovelace")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, querier.Calls())
}

func TestResearcherErrors(t *testing.T) {
	t.Parallel()

	l, _ := logger.NewCaptureLogger(t)

	_, err := research.NewResearcher(nil, l, 0)
	assert.Error(t, err)

	failing := &mocks.MockTextQuerier{Err: errors.New("network down")}
	r, err := research.NewResearcher(failing, l, time.Minute)
	require.NoError(t, err)

	_, err = r.Research(context.Background(), "Ada Lovelace")
	assert.ErrorIs(t, err, research.ErrResearchFailed)

	_, err = r.Research(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidSubjectName)
}
