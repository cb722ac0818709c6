package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// MatchController handles HTTP requests for match records
type MatchController struct {
	MatchService *services.MatchService
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matchService *services.MatchService) *MatchController {
	return &MatchController{MatchService: matchService}
}

// HandleListMatches returns the active matches for a user
func (mc *MatchController) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	matches, err := mc.MatchService.ListMatches(r.Context(), uid)
	if err != nil {
		log.Println("Error listing matches:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"matches": matches})
}

// HandleGetMatch returns the match row for a pair, if any
func (mc *MatchController) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	userA := r.URL.Query().Get("userA")
	userB := r.URL.Query().Get("userB")
	if userA == "" || userB == "" {
		http.Error(w, "userA and userB are required", http.StatusBadRequest)
		return
	}

	match, err := mc.MatchService.GetMatch(r.Context(), userA, userB)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			http.Error(w, "No match for pair", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(match)
}

// HandleUnmatch soft-deactivates the pair's match
func (mc *MatchController) HandleUnmatch(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserA string `json:"userA"`
		UserB string `json:"userB"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if request.UserA == "" || request.UserB == "" {
		http.Error(w, "userA and userB are required", http.StatusBadRequest)
		return
	}

	if err := mc.MatchService.Deactivate(r.Context(), request.UserA, request.UserB); err != nil {
		log.Println("Error deactivating match:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Match deactivated"})
}
