package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
)

func newOrderApp(t *testing.T, db *gorm.DB, sender *fakeSender, staff *models.User) *fiber.App {
	t.Helper()
	return newOrderAppWithStore(t, db, sender, staff, newFakeStorage())
}

func newOrderAppWithStore(t *testing.T, db *gorm.DB, sender *fakeSender, staff *models.User, store *fakeStorage) *fiber.App {
	t.Helper()
	h := NewOrderHandler(db, newTestNotifier(sender), store, "test-secret", zap.NewNop())

	app := fiber.New()
	app.Post("/orders", h.Create)

	authed := app.Group("/", loginAs(staff))
	authed.Get("/orders", h.List)
	authed.Post("/orders/get-file-url", h.FileURL)
	authed.Patch("/orders/:id", h.Update)
	authed.Post("/orders/:id/toggle", h.Toggle)
	return app
}

func formRequest(t *testing.T, path string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func seedOrder(t *testing.T, db *gorm.DB, email string, status models.OrderStatus) *models.Order {
	t.Helper()
	o := &models.Order{
		Name:      "Max Mustermann",
		Email:     email,
		Status:    status,
		OrderType: models.OrderTypeOrder,
		IsNew:     true,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func TestCreateOrderAnonymousGetsDefaults(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	app := newOrderApp(t, db, &fakeSender{}, staff)

	resp, body := doRequest(t, app, formRequest(t, "/orders", url.Values{
		"name":  {"Max Mustermann"},
		"email": {"max@example.com"},
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, string(models.OrderStatusReview), data["status"])
	assert.Equal(t, string(models.OrderTypeOrder), data["order_type"])
	assert.Equal(t, true, data["is_new"])
	assert.Nil(t, data["user_id"])
}

func TestCreateOrderUnknownTypeFallsBackToOrder(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	app := newOrderApp(t, db, &fakeSender{}, staff)

	resp, body := doRequest(t, app, formRequest(t, "/orders", url.Values{
		"name":       {"Max"},
		"email":      {"max@example.com"},
		"order_type": {"cost_estimate"},
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, string(models.OrderTypeCostEstimate),
		body["data"].(map[string]interface{})["order_type"])

	resp, body = doRequest(t, app, formRequest(t, "/orders", url.Values{
		"name":       {"Max"},
		"email":      {"max@example.com"},
		"order_type": {"something-else"},
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, string(models.OrderTypeOrder),
		body["data"].(map[string]interface{})["order_type"])
}

func TestOrderAttachmentKeysResolveToDownloadLinks(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	store := newFakeStorage()
	app := newOrderAppWithStore(t, db, &fakeSender{}, staff, store)

	resp, body := doRequest(t, app, multipartRequest(t, "/orders",
		map[string]string{
			"name":  "Max Mustermann",
			"email": "max@example.com",
		},
		map[string]string{"geburtsurkunde.pdf": "pdf bytes"},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	files := body["data"].(map[string]interface{})["files"].([]interface{})
	require.Len(t, files, 1)
	key := files[0].(map[string]interface{})["object_key"].(string)

	// the upload landed in the object store under the recorded key
	assert.Equal(t, "pdf bytes", string(store.saved[key]))

	// the link endpoint resolves exactly that key
	resp, body = doRequest(t, app, jsonRequest(t, "POST", "/orders/get-file-url", fiber.Map{
		"file_name": key,
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["url"].(string), key)

	// a key no upload ever produced cannot be linked
	resp, _ = doRequest(t, app, jsonRequest(t, "POST", "/orders/get-file-url", fiber.Map{
		"file_name": "uploads/never-stored.pdf",
	}))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestCreateOrderValidatesContact(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	app := newOrderApp(t, db, &fakeSender{}, staff)

	resp, _ := doRequest(t, app, formRequest(t, "/orders", url.Values{
		"email": {"not-an-email"},
	}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadyTransitionSendsExactlyOneEmail(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	sender := &fakeSender{}
	app := newOrderApp(t, db, sender, staff)
	order := seedOrder(t, db, "max@example.com", models.OrderStatusReview)

	// review -> in_progress: not ready yet, silent
	resp, _ := doRequest(t, app, jsonRequest(t, "PATCH", "/orders/1", fiber.Map{
		"status": string(models.OrderStatusInProgress),
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, sender.sent)

	// in_progress -> completed: enters the ready set
	resp, _ = doRequest(t, app, jsonRequest(t, "PATCH", "/orders/1", fiber.Map{
		"status": string(models.OrderStatusCompleted),
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "max@example.com", sender.sent[0].To)

	// completed -> sent: still inside the ready set, no second email
	resp, _ = doRequest(t, app, jsonRequest(t, "PATCH", "/orders/1", fiber.Map{
		"status": string(models.OrderStatusSent),
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, sender.sent, 1)

	var fresh models.Order
	require.NoError(t, db.First(&fresh, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusSent, fresh.Status)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	app := newOrderApp(t, db, &fakeSender{}, staff)
	seedOrder(t, db, "max@example.com", models.OrderStatusReview)

	resp, _ := doRequest(t, app, jsonRequest(t, "PATCH", "/orders/1", fiber.Map{
		"status": "shipped",
	}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrderReadyEmailPrefersAccountEmail(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	owner := createTestUser(t, db, "kunde@example.com", false)
	sender := &fakeSender{}
	app := newOrderApp(t, db, sender, staff)

	o := &models.Order{
		UserID:    &owner.ID,
		Name:      "Kunde",
		Email:     "form-contact@example.com",
		Status:    models.OrderStatusReview,
		OrderType: models.OrderTypeOrder,
	}
	require.NoError(t, db.Create(o).Error)

	resp, _ := doRequest(t, app, jsonRequest(t, "PATCH", "/orders/1", fiber.Map{
		"status": string(models.OrderStatusReadyPick),
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "kunde@example.com", sender.sent[0].To)
}

func TestToggleClearsIsNew(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	app := newOrderApp(t, db, &fakeSender{}, staff)
	order := seedOrder(t, db, "max@example.com", models.OrderStatusReview)

	resp, _ := doRequest(t, app, jsonRequest(t, "POST", "/orders/1/toggle", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fresh models.Order
	require.NoError(t, db.First(&fresh, "id = ?", order.ID).Error)
	assert.False(t, fresh.IsNew)
}
