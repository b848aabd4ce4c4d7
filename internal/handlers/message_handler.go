package handlers

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/realtime"
	"github.com/rosenblum-buero/backoffice_be/internal/services/mailer"
	"github.com/rosenblum-buero/backoffice_be/internal/services/storage"
)

type MessageHandler struct {
	DB       *gorm.DB
	Notifier *mailer.Notifier
	Hub      *realtime.Hub
	RDB      *redis.Client
	Store    storage.Storage
	Log      *zap.Logger
}

func NewMessageHandler(db *gorm.DB, notifier *mailer.Notifier, hub *realtime.Hub, rdb *redis.Client, store storage.Storage, log *zap.Logger) *MessageHandler {
	return &MessageHandler{DB: db, Notifier: notifier, Hub: hub, RDB: rdb, Store: store, Log: log}
}

type UserMini struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func userMini(u *models.User) *UserMini {
	if u == nil {
		return nil
	}
	return &UserMini{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type FileOut struct {
	ID        uint    `json:"id"`
	ObjectKey string  `json:"object_key"`
	FileName  string  `json:"file_name"`
	FileSize  float64 `json:"file_size"`
}

type MessageOut struct {
	ID         uint      `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Message    string    `json:"message"`
	Viewed     bool      `json:"viewed"`
	Timestamp  time.Time `json:"timestamp"`
	Sender     *UserMini `json:"sender,omitempty"`
	Receiver   *UserMini `json:"receiver,omitempty"`
	Files      []FileOut `json:"files"`
}

func messageOut(m *models.Message) MessageOut {
	files := make([]FileOut, 0, len(m.Files))
	for _, f := range m.Files {
		files = append(files, FileOut{
			ID:        f.ID,
			ObjectKey: f.ObjectKey,
			FileName:  f.FileName,
			FileSize:  f.FileSize,
		})
	}
	return MessageOut{
		ID:         m.ID,
		SenderID:   m.SenderID.String(),
		ReceiverID: m.ReceiverID.String(),
		Message:    m.Message,
		Viewed:     m.Viewed,
		Timestamp:  m.CreatedAt,
		Sender:     userMini(m.Sender),
		Receiver:   userMini(m.Receiver),
		Files:      files,
	}
}

// SendMessage creates a message (plus attached files in the same
// transaction) from the caller to the given receiver. Without a
// receiver_id the message goes to the staff inbox owner. Notification
// email, websocket push and redis publish happen after the commit and are
// all best-effort.
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	senderUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	text := strings.TrimSpace(c.FormValue("message"))
	receiverParam := strings.TrimSpace(c.FormValue("receiver_id"))
	if text == "" && receiverParam == "" {
		// JSON fallback for clients without attachments
		var req struct {
			Message    string `json:"message"`
			ReceiverID string `json:"receiver_id"`
		}
		if err := c.BodyParser(&req); err == nil {
			text = strings.TrimSpace(req.Message)
			receiverParam = strings.TrimSpace(req.ReceiverID)
		}
	}

	errs := FieldErrors{}
	if text == "" {
		errs.Add("message", "Message is required")
	} else if utf8.RuneCountInString(text) > models.MaxMessageLen {
		errs.Add("message", "Message is too long")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var receiver models.User
	if receiverParam != "" {
		receiverUUID, err := uuid.Parse(receiverParam)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid receiver ID",
			})
		}
		if err := h.DB.First(&receiver, "id = ?", receiverUUID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Receiver not found",
			})
		}
	} else {
		// customer messages land in the agency inbox
		if err := h.DB.Where("is_superuser = ?", true).
			Order("created_at ASC").
			First(&receiver).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Receiver not found",
			})
		}
	}

	msg := models.Message{
		SenderID:   senderUUID,
		ReceiverID: receiver.ID,
		Message:    text,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		form, err := c.MultipartForm()
		if err != nil {
			return nil // no attachments
		}
		for _, fh := range form.File["files"] {
			key := "uploads/" + uuid.New().String() + "_" + filepath.Base(fh.Filename)
			src, err := fh.Open()
			if err != nil {
				return err
			}
			err = h.Store.Save(c.Context(), key, src)
			src.Close()
			if err != nil {
				return err
			}
			file := models.File{
				MessageID: &msg.ID,
				ObjectKey: key,
				FileName:  fh.Filename,
				FileSize:  models.SizeMB(fh.Size),
			}
			if err := tx.Create(&file).Error; err != nil {
				return err
			}
			msg.Files = append(msg.Files, file)
		}
		return nil
	})
	if err != nil {
		h.Log.Error("sending message failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to send message",
		})
	}

	out := messageOut(&msg)

	h.Notifier.NewMessage(receiver.Email)

	if h.Hub != nil {
		h.Hub.SendToParticipants(senderUUID, receiver.ID, fiber.Map{
			"type":    "new_message",
			"message": out,
		})
	}
	if h.RDB != nil {
		err := realtime.PublishNotification(context.Background(), h.RDB, receiver.ID, fiber.Map{
			"type":      "chat_message",
			"sender_id": senderUUID.String(),
			"message":   text,
		})
		if err != nil {
			h.Log.Warn("redis notification publish failed", zap.Error(err))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

// ListMessages returns the caller's inbox: every message the caller sent
// or received, newest first. Staff may pass user_id to see another user's
// inbox.
func (h *MessageHandler) ListMessages(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	target := userUUID
	if q := c.Query("user_id"); q != "" && isStaff(c) {
		if parsed, err := uuid.Parse(q); err == nil {
			target = parsed
		}
	}

	var messages []models.Message
	if err := h.DB.
		Preload("Files").
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", target, target).
		Order("created_at DESC").
		Order("id DESC").
		Find(&messages).Error; err != nil {
		h.Log.Error("listing messages failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch messages",
		})
	}

	out := make([]MessageOut, 0, len(messages))
	for i := range messages {
		out = append(out, messageOut(&messages[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

type ConversationOut struct {
	Partner     *UserMini  `json:"partner"`
	LastMessage MessageOut `json:"last_message"`
	UnreadCount int64      `json:"unread_count"`
}

// Conversations collapses the caller's inbox to one row per distinct
// partner: the message with the highest id among all messages involving
// that partner, ordered newest first.
func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	target := userUUID
	if q := c.Query("user_id"); q != "" && isStaff(c) {
		if parsed, err := uuid.Parse(q); err == nil {
			target = parsed
		}
	}

	var messages []models.Message
	if err := h.DB.
		Preload("Files").
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", target, target).
		Order("id DESC").
		Find(&messages).Error; err != nil {
		h.Log.Error("listing conversations failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch conversations",
		})
	}

	// rows come in id-descending order, so the first hit per partner is
	// that partner's latest message
	seen := map[uuid.UUID]bool{}
	out := make([]ConversationOut, 0)
	for i := range messages {
		m := &messages[i]
		partnerID := m.Partner(target)
		if seen[partnerID] {
			continue
		}
		seen[partnerID] = true

		partner := m.Sender
		if m.SenderID == target {
			partner = m.Receiver
		}

		var unread int64
		h.DB.Model(&models.Message{}).
			Where("receiver_id = ? AND sender_id = ? AND viewed = ?", target, partnerID, false).
			Count(&unread)

		out = append(out, ConversationOut{
			Partner:     userMini(partner),
			LastMessage: messageOut(m),
			UnreadCount: unread,
		})
	}

	// present newest conversations first by message timestamp
	sortConversations(out)

	return c.JSON(fiber.Map{"success": true, "data": out})
}

func sortConversations(convs []ConversationOut) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastMessage.Timestamp.After(convs[j].LastMessage.Timestamp)
	})
}

type ToggleViewedReq struct {
	SenderID string `json:"sender_id"`
}

// ToggleViewed marks every unread message from the given partner to the
// caller as viewed and reports how many rows changed. Idempotent: a
// second call updates zero rows.
func (h *MessageHandler) ToggleViewed(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req ToggleViewedReq
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.SenderID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "sender_id is required",
		})
	}

	senderUUID, err := uuid.Parse(strings.TrimSpace(req.SenderID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid sender_id",
		})
	}

	res := h.DB.Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND viewed = ?", userUUID, senderUUID, false).
		Update("viewed", true)
	if res.Error != nil {
		h.Log.Error("toggling viewed failed", zap.Error(res.Error))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to mark messages as viewed",
		})
	}

	return c.JSON(fiber.Map{
		"status":        "success",
		"updated_count": res.RowsAffected,
	})
}
