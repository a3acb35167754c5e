//go:build cgo

package wordbank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models/worddrop"
)

func TestService_SaveCategoryRoundTrip(t *testing.T) {
	svc, err := database.NewDatabaseService(config.DriverSQLite, "file:wordbank_roundtrip?mode=memory&cache=shared")
	require.NoError(t, err)
	defer svc.Close()
	require.NoError(t, svc.EnsureSchema(context.Background()))

	s := NewService(svc.DB, database.NewWordRepository(svc.DB))
	require.NoError(t, s.Load())
	assert.Equal(t, SourceDefault, s.Source())

	require.NoError(t, s.SaveCategory("verb", []string{"fly", " dive ", "fly"}))
	assert.Equal(t, SourceDatabase, s.Source())
	assert.Equal(t, []string{"fly", "dive"}, s.Current()[worddrop.CategoryVerb])

	require.NoError(t, s.SaveCategory("verb", []string{"soar"}))
	assert.Equal(t, []string{"soar"}, s.Current()[worddrop.CategoryVerb])
	assert.Equal(t, worddrop.DefaultWordBank()[worddrop.CategoryNoun], s.Current()[worddrop.CategoryNoun])
}
