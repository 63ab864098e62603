package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Kohanchuk66/anime-back/internal/middleware"
	"github.com/Kohanchuk66/anime-back/internal/models"
	"github.com/Kohanchuk66/anime-back/internal/services"
)

// MovieStore is the catalog persistence the movie surface needs.
type MovieStore interface {
	List(ctx context.Context, opts services.MovieListOptions) ([]models.Movie, error)
	GetBySlug(ctx context.Context, slug string) (*models.Movie, error)
	Create(ctx context.Context, req *models.MovieRequest, createdBy string) (*models.Movie, error)
	Update(ctx context.Context, id primitive.ObjectID, req *models.MovieRequest, updatedBy string) (*models.Movie, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MovieHandler struct {
	movies MovieStore
}

func NewMovieHandler(movies MovieStore) *MovieHandler {
	return &MovieHandler{movies: movies}
}

func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := services.MovieListOptions{
		Search: r.URL.Query().Get("search"),
		Genre:  r.URL.Query().Get("genre"),
		Sort:   r.URL.Query().Get("sort"),
	}
	movies, err := h.movies.List(r.Context(), opts)
	if err != nil {
		zap.L().Error("movie list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load movies")
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *MovieHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	movie, err := h.movies.GetBySlug(r.Context(), slug)
	if err != nil {
		if err == services.ErrMovieNotFound {
			writeError(w, http.StatusNotFound, "Movie not found")
			return
		}
		zap.L().Error("movie lookup failed", zap.String("slug", slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load movie")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	var req models.MovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "Validation failed",
			"errors":  errs,
		})
		return
	}

	movie, err := h.movies.Create(r.Context(), &req, claims.Username)
	if err != nil {
		zap.L().Error("movie create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create movie")
		return
	}
	writeJSON(w, http.StatusCreated, movie)
}

func (h *MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	var req models.MovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "Validation failed",
			"errors":  errs,
		})
		return
	}

	movie, err := h.movies.Update(r.Context(), id, &req, claims.Username)
	if err != nil {
		if err == services.ErrMovieNotFound {
			writeError(w, http.StatusNotFound, "Movie not found")
			return
		}
		zap.L().Error("movie update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update movie")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	if err := h.movies.Delete(r.Context(), id); err != nil {
		if err == services.ErrMovieNotFound {
			writeError(w, http.StatusNotFound, "Movie not found")
			return
		}
		zap.L().Error("movie delete failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete movie")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Movie deleted"})
}
