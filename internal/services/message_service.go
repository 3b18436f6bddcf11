package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hisabkitab/backend/internal/ledger"
	"github.com/hisabkitab/backend/internal/media"
	"github.com/hisabkitab/backend/internal/models"
)

// MessageService owns the communication log. Messages are append-only:
// there is no update or delete, a sent message is permanent.
type MessageService struct {
	db    *sql.DB
	media *media.Store
}

func NewMessageService(db *sql.DB, mediaStore *media.Store) *MessageService {
	return &MessageService{
		db:    db,
		media: mediaStore,
	}
}

// SendMessage records an outbound or inbound message, optionally with an
// image attachment
// @Summary Send a message
// @Description Persist a text and/or image message for a customer
// @Tags messages
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param customerId formData string true "Customer ID"
// @Param content formData string false "Message text"
// @Param direction formData string false "INCOMING or OUTGOING (default OUTGOING)"
// @Param image formData file false "Image attachment"
// @Success 201 {object} models.Message
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /messages [post]
func (s *MessageService) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	// Form memory cap matches the media size cap; larger files spill to
	// temp files which the multipart reader cleans up itself.
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		SendErrorResponse(w, "Invalid multipart form", http.StatusBadRequest, nil)
		return
	}

	customerID := r.FormValue("customerId")
	content := r.FormValue("content")
	direction := models.MessageDirection(r.FormValue("direction"))
	if direction == "" {
		direction = models.DirectionOutgoing
	}
	if direction != models.DirectionIncoming && direction != models.DirectionOutgoing {
		SendLedgerError(w, ledger.NewValidationError("Direction must be INCOMING or OUTGOING"))
		return
	}
	if customerID == "" {
		SendLedgerError(w, ledger.NewValidationError("Customer ID is required"))
		return
	}

	file, header, err := r.FormFile("image")
	hasFile := err == nil

	if content == "" && !hasFile {
		SendLedgerError(w, ledger.NewValidationError("Message needs content or an image"))
		return
	}

	// The upload is a scoped acquisition: Discard runs on every failure
	// exit path, Commit keeps the file only once the record is persisted.
	var upload *media.Upload
	if hasFile {
		defer file.Close()
		upload, err = s.media.Save(header.Filename, file)
		if err != nil {
			SendLedgerError(w, err)
			return
		}
		defer upload.Discard()
	}

	if _, err := resolveCustomer(s.db, customerID, userID); err != nil {
		SendLedgerError(w, err)
		return
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Content:    content,
		Direction:  direction,
		Kind:       models.MessageText,
		CreatedAt:  time.Now(),
	}
	if upload != nil {
		msg.Kind = models.MessageImage
		msg.MediaURL = upload.Ref()
	}

	_, err = s.db.Exec(`
		INSERT INTO messages (id, customer_id, content, media_url, direction, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.CustomerID, msg.Content, msg.MediaURL, msg.Direction, msg.Kind, msg.CreatedAt)
	if err != nil {
		SendLedgerError(w, ledger.NewStorageError("insert message", err))
		return
	}

	if upload != nil {
		upload.Commit()
	}

	log.Printf("[MESSAGE] Sent %s message %s to customer %s", msg.Kind, msg.ID, msg.CustomerID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

// ListMessages returns a customer's messages ascending by creation time
// @Summary List messages
// @Description List the message history with a customer, oldest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param customerId path string true "Customer ID"
// @Success 200 {array} models.Message
// @Failure 404 {object} ErrorResponse
// @Router /messages/{customerId} [get]
func (s *MessageService) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	customerID := chi.URLParam(r, "customerId")
	if _, err := resolveCustomer(s.db, customerID, userID); err != nil {
		SendLedgerError(w, err)
		return
	}

	messages, err := listMessages(s.db, customerID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func listMessages(db *sql.DB, customerID string) ([]models.Message, error) {
	rows, err := db.Query(`
		SELECT id, customer_id, content, media_url, direction, kind, created_at
		FROM messages
		WHERE customer_id = $1
		ORDER BY created_at ASC`, customerID)
	if err != nil {
		return nil, ledger.NewStorageError("query messages", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.Content, &m.MediaURL, &m.Direction, &m.Kind, &m.CreatedAt); err != nil {
			return nil, ledger.NewStorageError("scan message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.NewStorageError("iterate messages", err)
	}
	return messages, nil
}
