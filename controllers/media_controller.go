package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"collabmatch_server/services"
)

// maxUploadBytes caps direct media uploads at 10 MB
const maxUploadBytes = 10 << 20

// MediaController handles HTTP requests for media storage
type MediaController struct {
	MediaService *services.MediaService
}

// NewMediaController creates a new MediaController instance
func NewMediaController(mediaService *services.MediaService) *MediaController {
	return &MediaController{MediaService: mediaService}
}

// HandleGenerateUploadURL returns a presigned PUT URL for a new object
func (mc *MediaController) HandleGenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("fileName")
	fileType := r.URL.Query().Get("fileType")
	if fileName == "" || fileType == "" {
		http.Error(w, "fileName and fileType are required", http.StatusBadRequest)
		return
	}

	url, key, err := mc.MediaService.GenerateUploadURL(fileName, fileType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"uploadUrl": url, "key": key})
}

// HandleGenerateReadURL returns a presigned GET URL for an object
func (mc *MediaController) HandleGenerateReadURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	url, err := mc.MediaService.GenerateReadURL(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"readUrl": url})
}

// HandleUpload stores the request body directly and returns the object URL
func (mc *MediaController) HandleUpload(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "Could not read upload body", http.StatusBadRequest)
		return
	}

	url, err := mc.MediaService.Upload(r.Context(), data, path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"url": url})
}

// HandleDelete removes a previously uploaded object
func (mc *MediaController) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var request struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	if err := mc.MediaService.Delete(r.Context(), request.URL); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Media deleted"})
}
