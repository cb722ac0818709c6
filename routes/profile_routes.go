package routes

import (
	"collabmatch_server/controllers"
	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterProfileRoutes sets up routes for profile operations under /api/profiles
func RegisterProfileRoutes(r *mux.Router, profileService *services.ProfileService) {
	controller := controllers.NewProfileController(profileService)

	profileRouter := r.PathPrefix("/api/profiles").Subrouter()

	profileRouter.HandleFunc("", controller.HandleCreateProfile).Methods("POST")
	profileRouter.HandleFunc("/{uid}", controller.HandleGetProfile).Methods("GET")
	profileRouter.HandleFunc("/{uid}", controller.HandleUpdateProfile).Methods("PATCH")
	profileRouter.HandleFunc("/{uid}", controller.HandleDeleteProfile).Methods("DELETE")
}
