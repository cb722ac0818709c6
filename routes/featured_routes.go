package routes

import (
	"collabmatch_server/controllers"
	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterFeaturedRoutes sets up featured placement routes under /api/featured
func RegisterFeaturedRoutes(r *mux.Router, featuredService *services.FeaturedService) {
	controller := controllers.NewFeaturedController(featuredService)

	featuredRouter := r.PathPrefix("/api/featured").Subrouter()

	featuredRouter.HandleFunc("/{uid}", controller.HandleIsFeatured).Methods("GET")
	featuredRouter.HandleFunc("/grant", controller.HandleGrantFeatured).Methods("POST")
}
