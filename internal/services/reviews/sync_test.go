package reviews

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
)

type fakeFetcher struct {
	reviews []PlaceReview
	err     error
}

func (f *fakeFetcher) FetchReviews(ctx context.Context) ([]PlaceReview, error) {
	return f.reviews, f.err
}

type fakeTranslator struct {
	calls    []string // "lang:text"
	failLang string
}

func (f *fakeTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	f.calls = append(f.calls, targetLang+":"+text)
	if targetLang == f.failLang {
		return "", errors.New("translator down")
	}
	return "[" + targetLang + "] " + text, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Review{}, &models.ReviewTranslation{}))
	return db
}

func ts(v int64) *int64 { return &v }

func TestSyncUpsertsByReviewTime(t *testing.T) {
	db := openTestDB(t)
	fetcher := &fakeFetcher{reviews: []PlaceReview{
		{AuthorName: "Olena", Rating: 5, Language: "uk", Text: "Чудово", Time: ts(1700000000)},
	}}
	s := NewSyncer(db, fetcher, &fakeTranslator{}, "place-1", zap.NewNop())

	require.NoError(t, s.Sync(context.Background()))
	require.NoError(t, s.Sync(context.Background()))

	var count int64
	db.Model(&models.Review{}).Count(&count)
	assert.EqualValues(t, 1, count)

	// a later fetch of the same review updates the stored copy
	fetcher.reviews[0].Rating = 4
	fetcher.reviews[0].Text = "Добре"
	require.NoError(t, s.Sync(context.Background()))

	var rev models.Review
	require.NoError(t, db.Where("google_review_id = ?", "1700000000").First(&rev).Error)
	assert.Equal(t, 4, rev.Rating)
	assert.Equal(t, "Добре", rev.OriginalText)
	assert.Equal(t, "place-1", rev.PlaceID)
}

func TestSyncSkipsEntriesWithoutTime(t *testing.T) {
	db := openTestDB(t)
	fetcher := &fakeFetcher{reviews: []PlaceReview{
		{AuthorName: "NoTime", Rating: 3, Text: "?"},
		{AuthorName: "Olena", Rating: 5, Language: "de", Text: "Super", Time: ts(1700000001)},
	}}
	s := NewSyncer(db, fetcher, &fakeTranslator{}, "place-1", zap.NewNop())

	require.NoError(t, s.Sync(context.Background()))

	var count int64
	db.Model(&models.Review{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSyncDefaultsMissingAuthorAndLanguage(t *testing.T) {
	db := openTestDB(t)
	fetcher := &fakeFetcher{reviews: []PlaceReview{
		{Rating: 5, Text: "Great", Time: ts(1700000002)},
	}}
	s := NewSyncer(db, fetcher, &fakeTranslator{}, "place-1", zap.NewNop())

	require.NoError(t, s.Sync(context.Background()))

	var rev models.Review
	require.NoError(t, db.Where("google_review_id = ?", "1700000002").First(&rev).Error)
	assert.Equal(t, "Anonymous", rev.AuthorName)
	assert.Equal(t, "en", rev.OriginalLanguage)
}

func TestTranslationsAppendOnly(t *testing.T) {
	db := openTestDB(t)
	fetcher := &fakeFetcher{reviews: []PlaceReview{
		{AuthorName: "Hans", Rating: 5, Language: "de", Text: "Super", Time: ts(1700000003)},
	}}
	tr := &fakeTranslator{}
	s := NewSyncer(db, fetcher, tr, "place-1", zap.NewNop())

	require.NoError(t, s.Sync(context.Background()))
	// de is the original, the other three get translated
	assert.Len(t, tr.calls, len(SupportedLangs)-1)

	var langs []string
	db.Model(&models.ReviewTranslation{}).Order("language").Pluck("language", &langs)
	assert.Equal(t, []string{"en", "ru", "uk"}, langs)

	// a second sync finds everything in place and calls the translator no more
	require.NoError(t, s.Sync(context.Background()))
	assert.Len(t, tr.calls, len(SupportedLangs)-1)
}

func TestTranslationFailureSkipsLanguageOnly(t *testing.T) {
	db := openTestDB(t)
	fetcher := &fakeFetcher{reviews: []PlaceReview{
		{AuthorName: "Hans", Rating: 5, Language: "de", Text: "Super", Time: ts(1700000004)},
	}}
	tr := &fakeTranslator{failLang: "ru"}
	s := NewSyncer(db, fetcher, tr, "place-1", zap.NewNop())

	require.NoError(t, s.Sync(context.Background()))

	var langs []string
	db.Model(&models.ReviewTranslation{}).Order("language").Pluck("language", &langs)
	assert.Equal(t, []string{"en", "uk"}, langs)

	// the missing language is retried once the translator recovers
	tr.failLang = ""
	require.NoError(t, s.Sync(context.Background()))

	langs = nil
	db.Model(&models.ReviewTranslation{}).Order("language").Pluck("language", &langs)
	assert.Equal(t, []string{"en", "ru", "uk"}, langs)
}

func TestSyncPropagatesFetchFailure(t *testing.T) {
	db := openTestDB(t)
	fetcher := &fakeFetcher{err: errors.New("places down")}
	s := NewSyncer(db, fetcher, &fakeTranslator{}, "place-1", zap.NewNop())

	assert.Error(t, s.Sync(context.Background()))
}
