package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// SwipeController handles HTTP requests for swipe actions
type SwipeController struct {
	SwipeService *services.SwipeService
}

// NewSwipeController creates a new SwipeController instance
func NewSwipeController(swipeService *services.SwipeService) *SwipeController {
	return &SwipeController{SwipeService: swipeService}
}

// HandleSwipe records a directional swipe (like, pass, superlike)
func (sc *SwipeController) HandleSwipe(w http.ResponseWriter, r *http.Request) {
	var request struct {
		SubjectID string `json:"subjectId"`
		TargetID  string `json:"targetId"`
		Action    string `json:"action"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Println("Invalid request payload:", err)
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if request.Action == "" {
		http.Error(w, "action is required", http.StatusBadRequest)
		return
	}

	if err := sc.SwipeService.Record(r.Context(), request.SubjectID, request.TargetID, request.Action, time.Now()); err != nil {
		log.Println("Error recording swipe:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Swipe recorded"})
}

// HandleUndo removes the most recent swipe for the ordered pair
func (sc *SwipeController) HandleUndo(w http.ResponseWriter, r *http.Request) {
	var request struct {
		SubjectID string `json:"subjectId"`
		TargetID  string `json:"targetId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := sc.SwipeService.Undo(r.Context(), request.SubjectID, request.TargetID); err != nil {
		log.Println("Error undoing swipe:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Swipe undone"})
}

// HandleListAdmirers returns distinct users who liked the given user
func (sc *SwipeController) HandleListAdmirers(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	admirers, err := sc.SwipeService.ListAdmirers(r.Context(), uid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"admirers": admirers})
}
