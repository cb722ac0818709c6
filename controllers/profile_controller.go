package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"collabmatch_server/models"
	"collabmatch_server/services"

	"github.com/gorilla/mux"
)

// ProfileController handles HTTP requests for creator profiles
type ProfileController struct {
	ProfileService *services.ProfileService
}

// NewProfileController creates a new ProfileController instance
func NewProfileController(profileService *services.ProfileService) *ProfileController {
	return &ProfileController{ProfileService: profileService}
}

func (pc *ProfileController) HandleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if profile.UID == "" {
		http.Error(w, "uid is required", http.StatusBadRequest)
		return
	}

	created, err := pc.ProfileService.CreateProfile(r.Context(), profile)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (pc *ProfileController) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	profile, err := pc.ProfileService.GetProfile(r.Context(), uid)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(profile)
}

func (pc *ProfileController) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	profile, err := pc.ProfileService.UpdateProfile(r.Context(), uid, updates)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(profile)
}

func (pc *ProfileController) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	if err := pc.ProfileService.DeleteProfile(r.Context(), uid); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Profile deleted"})
}
