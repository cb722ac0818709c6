package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"collabmatch_server/models"
	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

const defaultMessageLimit = 50

// ChatController handles HTTP requests for conversations and messages
type ChatController struct {
	ConversationService *services.ConversationService
}

// NewChatController creates a new ChatController instance
func NewChatController(conversationService *services.ConversationService) *ChatController {
	return &ChatController{ConversationService: conversationService}
}

// HandleGetOrCreateConversation resolves the 1:1 conversation for a pair
func (cc *ChatController) HandleGetOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserA string `json:"userA"`
		UserB string `json:"userB"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	conversation, err := cc.ConversationService.GetOrCreateConversation(r.Context(), request.UserA, request.UserB)
	if err != nil {
		log.Println("Error resolving conversation:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(conversation)
}

// HandleCreateGroup creates a group conversation
func (cc *ChatController) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var request struct {
		GroupName      string   `json:"groupName"`
		ParticipantIDs []string `json:"participantIds"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	conversation, err := cc.ConversationService.CreateGroupConversation(r.Context(), request.GroupName, request.ParticipantIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(conversation)
}

// HandleSendMessage appends a message and updates the conversation
func (cc *ChatController) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var message models.Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if message.ConversationID == "" || message.SenderID == "" || message.Content == "" {
		http.Error(w, "conversationId, senderId and content are required", http.StatusBadRequest)
		return
	}

	if err := cc.ConversationService.SendMessage(r.Context(), message); err != nil {
		log.Println("Error sending message:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Message sent"})
}

// HandleFetchMessages returns a conversation's messages in
// chronological order
func (cc *ChatController) HandleFetchMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]

	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	messages, err := cc.ConversationService.FetchMessages(r.Context(), conversationID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"messages": messages})
}

// HandleMarkAsRead resets the caller's unread counter
func (cc *ChatController) HandleMarkAsRead(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ConversationID string `json:"conversationId"`
		UserID         string `json:"userId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if request.ConversationID == "" || request.UserID == "" {
		http.Error(w, "conversationId and userId are required", http.StatusBadRequest)
		return
	}

	if err := cc.ConversationService.MarkAsRead(r.Context(), request.ConversationID, request.UserID); err != nil {
		log.Println("Error marking conversation as read:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Marked as read"})
}
