package messages

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/memestream/memestream-service/internal/memstore"
	"github.com/memestream/memestream-service/internal/types"
	"github.com/memestream/memestream-service/internal/utils/response"
)

// SendMessage stores a direct message
// @Summary Send a message
// @Tags messages
// @Accept json
// @Produce json
// @Router /messages/send [post]
func SendMessage(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SendMessageRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		message := store.SendMessage(req.SenderID, req.ReceiverID, req.Content)
		slog.Info("message sent", slog.String("sender", req.SenderID), slog.String("receiver", req.ReceiverID))

		response.WriteJSON(w, http.StatusOK, message)
	}
}

// GetConversations summarizes a user's conversations
// @Summary List conversations
// @Description One entry per partner with last message and unread count, newest activity first
// @Tags messages
// @Produce json
// @Param user_id path string true "Wallet address"
// @Router /messages/conversations/{user_id} [get]
func GetConversations(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, store.Conversations(r.PathValue("user_id")))
	}
}

// GetMessages returns the full thread between two users
// @Summary Get messages between two users
// @Tags messages
// @Produce json
// @Router /messages/{user_id}/{other_user_id} [get]
func GetMessages(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs := store.MessagesBetween(r.PathValue("user_id"), r.PathValue("other_user_id"))
		response.WriteJSON(w, http.StatusOK, msgs)
	}
}

// MarkRead flips unread messages from other_user_id to user_id
// @Summary Mark messages read
// @Tags messages
// @Produce json
// @Router /messages/read/{user_id}/{other_user_id} [put]
func MarkRead(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		marked := store.MarkMessagesRead(r.PathValue("user_id"), r.PathValue("other_user_id"))

		response.WriteJSON(w, http.StatusOK, map[string]int{
			"marked_count": marked,
		})
	}
}
