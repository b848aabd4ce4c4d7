package reviews

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
)

// SupportedLangs is the language set the site serves. Each synced review
// gets a translation row for every language except its original one.
var SupportedLangs = []string{"en", "de", "ru", "uk"}

type Syncer struct {
	DB         *gorm.DB
	Fetcher    Fetcher
	Translator Translator
	PlaceID    string
	Log        *zap.Logger
}

func NewSyncer(db *gorm.DB, fetcher Fetcher, translator Translator, placeID string, log *zap.Logger) *Syncer {
	return &Syncer{DB: db, Fetcher: fetcher, Translator: translator, PlaceID: placeID, Log: log}
}

// Sync pulls the current reviews, upserts them keyed by their unix time,
// and backfills missing translations. Fetch failures propagate to the
// caller; a failed translation for one language is logged and skipped so
// the rest of the backfill still runs.
func (s *Syncer) Sync(ctx context.Context) error {
	fetched, err := s.Fetcher.FetchReviews(ctx)
	if err != nil {
		return err
	}

	for _, r := range fetched {
		if r.Time == nil {
			// no stable id, can't dedupe
			continue
		}
		googleID := strconv.FormatInt(*r.Time, 10)

		author := r.AuthorName
		if author == "" {
			author = "Anonymous"
		}

		raw, _ := json.Marshal(r)

		review := models.Review{
			GoogleReviewID:   googleID,
			PlaceID:          s.PlaceID,
			AuthorName:       author,
			ProfilePhotoURL:  r.ProfilePhotoURL,
			Rating:           r.Rating,
			OriginalLanguage: originalLanguage(r.Language),
			OriginalText:     r.Text,
			ReviewTimestamp:  time.Unix(*r.Time, 0).UTC(),
			Raw:              datatypes.JSON(raw),
		}

		// upsert: repeated syncs always reflect the latest fetched values
		err := s.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "google_review_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"place_id", "author_name", "profile_photo_url", "rating",
				"original_language", "original_text", "review_timestamp", "raw",
			}),
		}).Create(&review).Error
		if err != nil {
			return err
		}

		// Create fills the id only on insert; re-read on conflict.
		if err := s.DB.Where("google_review_id = ?", googleID).First(&review).Error; err != nil {
			return err
		}

		s.translateMissing(ctx, &review)
	}

	return nil
}

func (s *Syncer) translateMissing(ctx context.Context, review *models.Review) {
	for _, lang := range SupportedLangs {
		if lang == review.OriginalLanguage {
			continue
		}

		var count int64
		s.DB.Model(&models.ReviewTranslation{}).
			Where("review_id = ? AND language = ?", review.ID, lang).
			Count(&count)
		if count > 0 {
			// translations are append-only per (review, language)
			continue
		}

		translated, err := s.Translator.Translate(ctx, review.OriginalText, lang)
		if err != nil {
			s.Log.Warn("review translation failed, skipping language",
				zap.String("google_review_id", review.GoogleReviewID),
				zap.String("language", lang),
				zap.Error(err))
			continue
		}

		rt := models.ReviewTranslation{
			ReviewID:       review.ID,
			Language:       lang,
			TranslatedText: translated,
		}
		if err := s.DB.Create(&rt).Error; err != nil {
			s.Log.Warn("storing review translation failed",
				zap.String("google_review_id", review.GoogleReviewID),
				zap.String("language", lang),
				zap.Error(err))
		}
	}
}

func originalLanguage(lang string) string {
	if lang == "" {
		return "en"
	}
	return lang
}
