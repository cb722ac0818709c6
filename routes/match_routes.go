package routes

import (
	"collabmatch_server/controllers"
	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match operations under /api/matches
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService) {
	controller := controllers.NewMatchController(matchService)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()

	matchRouter.HandleFunc("/user/{uid}", controller.HandleListMatches).Methods("GET")
	matchRouter.HandleFunc("/pair", controller.HandleGetMatch).Methods("GET")
	matchRouter.HandleFunc("/unmatch", controller.HandleUnmatch).Methods("POST")
}
