package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

const defaultCandidateLimit = 20

// DiscoveryController handles HTTP requests for the candidate feed
type DiscoveryController struct {
	DiscoveryService *services.DiscoveryService
}

// NewDiscoveryController creates a new DiscoveryController instance
func NewDiscoveryController(discoveryService *services.DiscoveryService) *DiscoveryController {
	return &DiscoveryController{DiscoveryService: discoveryService}
}

// HandleCandidates returns the ranked candidate feed for a user.
// Strategy is selected by the ?strategy= query param (affinity or
// distance), defaulting to affinity.
func (dc *DiscoveryController) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	limit := defaultCandidateLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	strategy := services.RankByAffinity
	switch r.URL.Query().Get("strategy") {
	case "", string(services.RankByAffinity):
	case string(services.RankByDistance):
		strategy = services.RankByDistance
	default:
		http.Error(w, "strategy must be 'affinity' or 'distance'", http.StatusBadRequest)
		return
	}

	candidates, err := dc.DiscoveryService.CandidatesForUser(r.Context(), uid, limit, strategy)
	if err != nil {
		log.Println("Error building candidate feed:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"candidates": candidates})
}
