package verification

import (
	"errors"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/services/mailer"
)

// Error codes surfaced to the API. The check order in Verify decides which
// one wins when several conditions hold at once: user, active record,
// expiry, attempts, code — in that order.
const (
	ErrUserNotFound         = "user_not_found"
	ErrNoActiveVerification = "no_active_verification"
	ErrCodeExpired          = "verification_code_expired"
	ErrNoAttempts           = "no_verification_attempts"
	ErrInvalidCode          = "invalid_verification_code"
)

var ErrNoUser = errors.New("verification: user not found")

type Result struct {
	OK       bool
	Error    string
	Attempts *int // set on invalid-code failures: attempts remaining
}

type Service struct {
	DB       *gorm.DB
	Notifier *mailer.Notifier
	Now      func() time.Time
}

func NewService(db *gorm.DB, notifier *mailer.Notifier) *Service {
	return &Service{DB: db, Notifier: notifier, Now: time.Now}
}

// GenerateCode returns length independent random digits. Codes are only
// unique per user, collisions across users don't matter.
func GenerateCode(length int) string {
	code := make([]byte, 0, length)
	for i := 0; i < length; i++ {
		code = append(code, byte('0'+rand.Intn(10)))
	}
	return string(code)
}

// Issue creates a fresh verification record for the user on the given
// transaction handle and returns the code so the caller can email it after
// the transaction commits.
func (s *Service) Issue(tx *gorm.DB, user *models.User) (string, error) {
	code := GenerateCode(models.VerificationCodeLen)
	rec := models.EmailVerification{
		UserID:   user.ID,
		Code:     code,
		Attempts: models.VerificationAttempts,
	}
	if err := tx.Create(&rec).Error; err != nil {
		return "", err
	}
	return code, nil
}

func (s *Service) Verify(email, code string) Result {
	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return Result{Error: ErrUserNotFound}
	}

	var rec models.EmailVerification
	if err := s.DB.Where("user_id = ? AND used = ?", user.ID, false).First(&rec).Error; err != nil {
		// also covers "already used": used records fail the same filter
		return Result{Error: ErrNoActiveVerification}
	}

	if rec.IsExpired(s.Now()) {
		return Result{Error: ErrCodeExpired}
	}
	if rec.Attempts <= 0 {
		return Result{Error: ErrNoAttempts}
	}

	if rec.Code != code {
		// guarded decrement so concurrent wrong attempts can't go negative
		s.DB.Model(&models.EmailVerification{}).
			Where("id = ? AND attempts > 0", rec.ID).
			UpdateColumn("attempts", gorm.Expr("attempts - 1"))

		remaining := rec.Attempts - 1
		return Result{Error: ErrInvalidCode, Attempts: &remaining}
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmailVerification{}).
			Where("id = ?", rec.ID).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("is_active", true).Error
	})
	if err != nil {
		return Result{Error: ErrNoActiveVerification}
	}

	return Result{OK: true}
}

// Resend drops any existing verification rows for the user and issues a
// fresh code with a full attempts budget and a new expiry window.
func (s *Service) Resend(email string) error {
	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return ErrNoUser
	}

	var code string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).
			Delete(&models.EmailVerification{}).Error; err != nil {
			return err
		}
		var issueErr error
		code, issueErr = s.Issue(tx, &user)
		return issueErr
	})
	if err != nil {
		return err
	}

	s.Notifier.VerificationCode(user.Email, user.FirstName, user.LastName, code)
	return nil
}
