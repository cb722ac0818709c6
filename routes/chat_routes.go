package routes

import (
	"collabmatch_server/controllers"
	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes sets up routes for conversations under /api/chat
func RegisterChatRoutes(r *mux.Router, conversationService *services.ConversationService) {
	controller := controllers.NewChatController(conversationService)

	chatRouter := r.PathPrefix("/api/chat").Subrouter()

	chatRouter.HandleFunc("/conversation", controller.HandleGetOrCreateConversation).Methods("POST")
	chatRouter.HandleFunc("/group", controller.HandleCreateGroup).Methods("POST")
	chatRouter.HandleFunc("/message", controller.HandleSendMessage).Methods("POST")
	chatRouter.HandleFunc("/messages/{conversationId}", controller.HandleFetchMessages).Methods("GET")
	chatRouter.HandleFunc("/markAsRead", controller.HandleMarkAsRead).Methods("POST")
}
