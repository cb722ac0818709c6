package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// FeaturedController handles HTTP requests for featured placement.
// Grants are expected to come from the payment system's webhook, not
// from end users.
type FeaturedController struct {
	FeaturedService *services.FeaturedService
}

// NewFeaturedController creates a new FeaturedController instance
func NewFeaturedController(featuredService *services.FeaturedService) *FeaturedController {
	return &FeaturedController{FeaturedService: featuredService}
}

// HandleIsFeatured reports whether a user currently holds a grant
func (fc *FeaturedController) HandleIsFeatured(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	featured, err := fc.FeaturedService.IsFeatured(r.Context(), uid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]bool{"featured": featured})
}

// HandleGrantFeatured records a time-boxed featured grant
func (fc *FeaturedController) HandleGrantFeatured(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID    string `json:"userId"`
		ExpiresAt string `json:"expiresAt"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	expiresAt, err := time.Parse(time.RFC3339, request.ExpiresAt)
	if err != nil {
		http.Error(w, "expiresAt must be RFC3339", http.StatusBadRequest)
		return
	}

	if err := fc.FeaturedService.GrantFeatured(r.Context(), request.UserID, expiresAt); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Featured placement granted"})
}
