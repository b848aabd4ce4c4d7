package verification

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/services/mailer"
)

type fakeSender struct {
	sent []string // "subject|to"
}

func (f *fakeSender) Send(subject, body, to string) error {
	f.sent = append(f.sent, subject+"|"+to)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.EmailVerification{}))
	return db
}

func newTestService(t *testing.T) (*Service, *fakeSender, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	sender := &fakeSender{}
	notifier := mailer.NewNotifier(sender, "http://localhost:3000", zap.NewNop())
	return NewService(db, notifier), sender, db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FirstName: "Anna", LastName: "Test"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestVerifyActivatesUserOnce(t *testing.T) {
	svc, _, db := newTestService(t)
	u := createUser(t, db, "anna@example.com")

	code, err := svc.Issue(db, u)
	require.NoError(t, err)
	require.Len(t, code, models.VerificationCodeLen)

	res := svc.Verify("anna@example.com", code)
	assert.True(t, res.OK)

	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", u.ID).Error)
	assert.True(t, fresh.IsActive)

	// the used record no longer counts as active
	res = svc.Verify("anna@example.com", code)
	assert.False(t, res.OK)
	assert.Equal(t, ErrNoActiveVerification, res.Error)
}

func TestVerifyUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	res := svc.Verify("nobody@example.com", "123456")
	assert.False(t, res.OK)
	assert.Equal(t, ErrUserNotFound, res.Error)
}

func TestVerifyWithoutIssuedCode(t *testing.T) {
	svc, _, db := newTestService(t)
	createUser(t, db, "anna@example.com")

	res := svc.Verify("anna@example.com", "123456")
	assert.Equal(t, ErrNoActiveVerification, res.Error)
}

func TestWrongCodeBurnsAttempts(t *testing.T) {
	svc, _, db := newTestService(t)
	u := createUser(t, db, "anna@example.com")

	code, err := svc.Issue(db, u)
	require.NoError(t, err)

	for want := models.VerificationAttempts - 1; want >= 0; want-- {
		res := svc.Verify("anna@example.com", "000000")
		assert.Equal(t, ErrInvalidCode, res.Error)
		require.NotNil(t, res.Attempts)
		assert.Equal(t, want, *res.Attempts)
	}

	// budget exhausted: even the right code is rejected now
	res := svc.Verify("anna@example.com", code)
	assert.False(t, res.OK)
	assert.Equal(t, ErrNoAttempts, res.Error)

	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", u.ID).Error)
	assert.False(t, fresh.IsActive)
}

func TestExpiryCheckedBeforeAttempts(t *testing.T) {
	svc, _, db := newTestService(t)
	u := createUser(t, db, "anna@example.com")

	code, err := svc.Issue(db, u)
	require.NoError(t, err)

	// exhaust the budget, then age the record past its TTL
	require.NoError(t, db.Model(&models.EmailVerification{}).
		Where("user_id = ?", u.ID).
		Update("attempts", 0).Error)
	svc.Now = func() time.Time { return time.Now().Add(models.VerificationTTL + time.Minute) }

	res := svc.Verify("anna@example.com", code)
	assert.Equal(t, ErrCodeExpired, res.Error)
}

func TestResendReplacesCodeAndBudget(t *testing.T) {
	svc, sender, db := newTestService(t)
	u := createUser(t, db, "anna@example.com")

	oldCode, err := svc.Issue(db, u)
	require.NoError(t, err)
	svc.Verify("anna@example.com", "000000")
	svc.Verify("anna@example.com", "000000")

	require.NoError(t, svc.Resend("anna@example.com"))
	require.Len(t, sender.sent, 1)

	var rec models.EmailVerification
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&rec).Error)
	assert.Equal(t, models.VerificationAttempts, rec.Attempts)
	assert.False(t, rec.Used)

	if rec.Code != oldCode {
		res := svc.Verify("anna@example.com", oldCode)
		assert.Equal(t, ErrInvalidCode, res.Error)
	}

	res := svc.Verify("anna@example.com", rec.Code)
	assert.True(t, res.OK)
}

func TestResendUnknownUser(t *testing.T) {
	svc, sender, _ := newTestService(t)

	err := svc.Resend("nobody@example.com")
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Empty(t, sender.sent)
}
