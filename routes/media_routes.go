package routes

import (
	"collabmatch_server/controllers"
	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterMediaRoutes sets up media storage routes under /api/media
func RegisterMediaRoutes(r *mux.Router, mediaService *services.MediaService) {
	controller := controllers.NewMediaController(mediaService)

	mediaRouter := r.PathPrefix("/api/media").Subrouter()

	mediaRouter.HandleFunc("/uploadUrl", controller.HandleGenerateUploadURL).Methods("GET")
	mediaRouter.HandleFunc("/readUrl", controller.HandleGenerateReadURL).Methods("GET")
	mediaRouter.HandleFunc("/upload", controller.HandleUpload).Methods("POST")
	mediaRouter.HandleFunc("/delete", controller.HandleDelete).Methods("POST")
}
