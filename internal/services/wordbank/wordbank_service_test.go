package wordbank

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models/worddrop"
)

type fakeWordRepo struct {
	entries []models.WordEntry
	err     error
}

func (f *fakeWordRepo) GetAllWords(tx *sql.Tx) ([]models.WordEntry, error) {
	return f.entries, f.err
}

func (f *fakeWordRepo) DeleteWordsByCategory(tx *sql.Tx, category string) error { return nil }

func (f *fakeWordRepo) BulkInsertWords(tx *sql.Tx, category string, words []string) error {
	return nil
}

func TestService_DefaultsWithoutRepository(t *testing.T) {
	s := NewService(nil, nil)
	require.NoError(t, s.Load())

	assert.Equal(t, SourceDefault, s.Source())
	assert.Equal(t, worddrop.DefaultWordBank(), s.Current())
	assert.NoError(t, s.Current().Validate())
}

func TestService_LoadMergesWithDefaults(t *testing.T) {
	repo := &fakeWordRepo{entries: []models.WordEntry{
		{Category: "noun", Word: "moon"},
		{Category: "noun", Word: "star"},
		{Category: "adjective", Word: "blue"},
		{Category: "pronoun", Word: "they"},
	}}
	s := NewService(nil, repo)
	require.NoError(t, s.Load())

	bank := s.Current()
	assert.Equal(t, SourceDatabase, s.Source())
	assert.Equal(t, []string{"moon", "star"}, bank[worddrop.CategoryNoun])
	assert.Equal(t, []string{"blue"}, bank[worddrop.CategoryAdjective])
	assert.Equal(t, worddrop.DefaultWordBank()[worddrop.CategoryVerb], bank[worddrop.CategoryVerb])
	assert.Len(t, bank, 3)
}

func TestService_LoadEmptyTableUsesDefaults(t *testing.T) {
	s := NewService(nil, &fakeWordRepo{})
	require.NoError(t, s.Load())
	assert.Equal(t, SourceDefault, s.Source())
	assert.Equal(t, worddrop.DefaultWordBank(), s.Current())
}

func TestService_LoadErrorKeepsPreviousBank(t *testing.T) {
	s := NewService(nil, &fakeWordRepo{err: errors.New("boom")})
	assert.Error(t, s.Load())
	assert.Equal(t, worddrop.DefaultWordBank(), s.Current())
}

func TestService_CurrentReturnsCopy(t *testing.T) {
	s := NewService(nil, nil)
	bank := s.Current()
	bank[worddrop.CategoryNoun][0] = "mutated"
	assert.NotEqual(t, "mutated", s.Current()[worddrop.CategoryNoun][0])
}

func TestService_SaveCategoryValidation(t *testing.T) {
	s := NewService(nil, &fakeWordRepo{})

	assert.ErrorIs(t, s.SaveCategory("pronoun", []string{"they"}), ErrInvalidCategory)
	assert.ErrorIs(t, s.SaveCategory("noun", []string{" ", ""}), ErrEmptyWords)
	assert.ErrorIs(t, s.SaveCategory("noun", []string{"moon"}), ErrNoDatabase)
}

func TestNormalizeWords(t *testing.T) {
	assert.Equal(t, []string{"moon", "sun"}, normalizeWords([]string{" moon", "sun ", "", "moon"}))
	assert.Nil(t, normalizeWords(nil))
}
