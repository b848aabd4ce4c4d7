package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
)

func newMessageApp(t *testing.T, db *gorm.DB, actor *models.User, sender *fakeSender) *fiber.App {
	t.Helper()
	return newMessageAppWithStore(t, db, actor, sender, newFakeStorage())
}

func newMessageAppWithStore(t *testing.T, db *gorm.DB, actor *models.User, sender *fakeSender, store *fakeStorage) *fiber.App {
	t.Helper()
	h := NewMessageHandler(db, newTestNotifier(sender), nil, nil, store, zap.NewNop())

	app := fiber.New()
	app.Use(loginAs(actor))
	app.Post("/send-message", h.SendMessage)
	app.Get("/messages", h.ListMessages)
	app.Get("/conversations", h.Conversations)
	app.Post("/toggle", h.ToggleViewed)
	return app
}

func seedMessage(t *testing.T, db *gorm.DB, from, to *models.User, text string) *models.Message {
	t.Helper()
	m := &models.Message{SenderID: from.ID, ReceiverID: to.ID, Message: text}
	require.NoError(t, db.Create(m).Error)
	return m
}

func TestSendMessageDefaultsToStaffInbox(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	customer := createTestUser(t, db, "kunde@example.com", false)
	sender := &fakeSender{}
	app := newMessageApp(t, db, customer, sender)

	resp, body := doRequest(t, app, jsonRequest(t, "POST", "/send-message", fiber.Map{
		"message": "Hallo, ich brauche eine Übersetzung.",
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, staff.ID.String(), data["receiver_id"])

	// receiver got the new-message email
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "office@example.com", sender.sent[0].To)
}

func TestSendMessageUnknownReceiver(t *testing.T) {
	db := openTestDB(t)
	customer := createTestUser(t, db, "kunde@example.com", false)
	app := newMessageApp(t, db, customer, &fakeSender{})

	resp, _ := doRequest(t, app, jsonRequest(t, "POST", "/send-message", fiber.Map{
		"message":     "Hallo",
		"receiver_id": "3f6f3f60-0000-0000-0000-000000000000",
	}))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSendMessageLengthCountsCharactersNotBytes(t *testing.T) {
	db := openTestDB(t)
	createTestUser(t, db, "office@example.com", true)
	customer := createTestUser(t, db, "kunde@example.com", false)
	app := newMessageApp(t, db, customer, &fakeSender{})

	// 600 two-byte characters fit well within the 1000-character limit
	resp, _ := doRequest(t, app, jsonRequest(t, "POST", "/send-message", fiber.Map{
		"message": strings.Repeat("ü", 600),
	}))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doRequest(t, app, jsonRequest(t, "POST", "/send-message", fiber.Map{
		"message": strings.Repeat("ü", models.MaxMessageLen+1),
	}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendMessageStoresAttachmentUnderItsObjectKey(t *testing.T) {
	db := openTestDB(t)
	createTestUser(t, db, "office@example.com", true)
	customer := createTestUser(t, db, "kunde@example.com", false)
	store := newFakeStorage()
	app := newMessageAppWithStore(t, db, customer, &fakeSender{}, store)

	resp, body := doRequest(t, app, multipartRequest(t, "/send-message",
		map[string]string{"message": "Anbei das Dokument."},
		map[string]string{"urkunde.pdf": "pdf bytes"},
	))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	files := body["data"].(map[string]interface{})["files"].([]interface{})
	require.Len(t, files, 1)
	key := files[0].(map[string]interface{})["object_key"].(string)

	// the stored object must live under the key the row records
	assert.Equal(t, "pdf bytes", string(store.saved[key]))
}

func TestSendMessageValidatesBody(t *testing.T) {
	db := openTestDB(t)
	createTestUser(t, db, "office@example.com", true)
	customer := createTestUser(t, db, "kunde@example.com", false)
	app := newMessageApp(t, db, customer, &fakeSender{})

	resp, _ := doRequest(t, app, jsonRequest(t, "POST", "/send-message", fiber.Map{
		"message": "",
	}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConversationsCollapseToLatestPerPartner(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	anna := createTestUser(t, db, "anna@example.com", false)
	boris := createTestUser(t, db, "boris@example.com", false)

	// interleaved traffic with two partners
	seedMessage(t, db, anna, staff, "anna 1")
	seedMessage(t, db, staff, anna, "reply to anna")
	seedMessage(t, db, boris, staff, "boris 1")
	seedMessage(t, db, anna, staff, "anna 2")
	last := seedMessage(t, db, anna, staff, "anna 3")

	app := newMessageApp(t, db, staff, &fakeSender{})
	resp, body := doRequest(t, app, jsonRequest(t, "GET", "/conversations", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	convs := body["data"].([]interface{})
	require.Len(t, convs, 2)

	// newest conversation first, carrying the highest-id message
	first := convs[0].(map[string]interface{})
	lastMsg := first["last_message"].(map[string]interface{})
	assert.EqualValues(t, last.ID, lastMsg["id"])
	assert.Equal(t, "anna 3", lastMsg["message"])
	assert.Equal(t, anna.ID.String(), first["partner"].(map[string]interface{})["id"])

	// unread: everything anna sent to staff is still unviewed
	assert.EqualValues(t, 3, first["unread_count"])

	second := convs[1].(map[string]interface{})
	assert.Equal(t, boris.ID.String(), second["partner"].(map[string]interface{})["id"])
	assert.EqualValues(t, 1, second["unread_count"])
}

func TestToggleViewedIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	anna := createTestUser(t, db, "anna@example.com", false)

	seedMessage(t, db, anna, staff, "one")
	seedMessage(t, db, anna, staff, "two")
	seedMessage(t, db, staff, anna, "outbound stays untouched")

	app := newMessageApp(t, db, staff, &fakeSender{})

	resp, body := doRequest(t, app, jsonRequest(t, "POST", "/toggle", fiber.Map{
		"sender_id": anna.ID.String(),
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["updated_count"])

	resp, body = doRequest(t, app, jsonRequest(t, "POST", "/toggle", fiber.Map{
		"sender_id": anna.ID.String(),
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["updated_count"])

	var outbound models.Message
	require.NoError(t, db.Where("sender_id = ?", staff.ID).First(&outbound).Error)
	assert.False(t, outbound.Viewed)
}

func TestToggleViewedRequiresSenderID(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	app := newMessageApp(t, db, staff, &fakeSender{})

	resp, _ := doRequest(t, app, jsonRequest(t, "POST", "/toggle", fiber.Map{}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, jsonRequest(t, "POST", "/toggle", fiber.Map{
		"sender_id": "not-a-uuid",
	}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListMessagesShowsBothDirections(t *testing.T) {
	db := openTestDB(t)
	staff := createTestUser(t, db, "office@example.com", true)
	anna := createTestUser(t, db, "anna@example.com", false)

	seedMessage(t, db, anna, staff, "in")
	seedMessage(t, db, staff, anna, "out")

	app := newMessageApp(t, db, anna, &fakeSender{})
	resp, body := doRequest(t, app, jsonRequest(t, "GET", "/messages", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msgs := body["data"].([]interface{})
	assert.Len(t, msgs, 2)
}
