package routes

import (
	"collabmatch_server/controllers"
	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterDiscoveryRoutes sets up the candidate feed under /api/discovery
func RegisterDiscoveryRoutes(r *mux.Router, discoveryService *services.DiscoveryService) {
	controller := controllers.NewDiscoveryController(discoveryService)

	discoveryRouter := r.PathPrefix("/api/discovery").Subrouter()

	discoveryRouter.HandleFunc("/candidates/{uid}", controller.HandleCandidates).Methods("GET")
}
