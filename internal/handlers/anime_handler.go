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

// AnimeStore is the catalog persistence the anime surface needs.
type AnimeStore interface {
	List(ctx context.Context, opts models.AnimeListOptions) ([]models.Anime, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Anime, error)
	Create(ctx context.Context, req *models.AnimeRequest, addedBy primitive.ObjectID, addedByName string) (*models.Anime, error)
	Update(ctx context.Context, id primitive.ObjectID, req *models.AnimeRequest) (*models.Anime, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Rate(ctx context.Context, id primitive.ObjectID, rating float64) (*models.Anime, error)
	DistinctGenres(ctx context.Context) ([]string, error)
	DistinctStudios(ctx context.Context) ([]string, error)
}

type AnimeHandler struct {
	anime AnimeStore
}

func NewAnimeHandler(anime AnimeStore) *AnimeHandler {
	return &AnimeHandler{anime: anime}
}

func (h *AnimeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := models.AnimeListOptions{
		Search:    q.Get("search"),
		Genres:    splitList(q.Get("genres")),
		Status:    q.Get("status"),
		Year:      queryInt(r, "year"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      queryInt64(r, "page", 1),
		Limit:     queryInt64(r, "limit", 20),
	}

	items, total, err := h.anime.List(r.Context(), opts)
	if err != nil {
		zap.L().Error("anime list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load catalog")
		return
	}

	writeJSON(w, http.StatusOK, pagedResponse(items, total, opts.Page, opts.Limit, 20))
}

func (h *AnimeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid anime id")
		return
	}

	anime, err := h.anime.GetByID(r.Context(), id)
	if err != nil {
		if err == services.ErrAnimeNotFound {
			writeError(w, http.StatusNotFound, "Anime not found")
			return
		}
		zap.L().Error("anime lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load anime")
		return
	}
	writeJSON(w, http.StatusOK, anime)
}

func (h *AnimeHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	var req models.AnimeRequest
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

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	anime, err := h.anime.Create(r.Context(), &req, userID, claims.Username)
	if err != nil {
		zap.L().Error("anime create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create anime")
		return
	}
	writeJSON(w, http.StatusCreated, anime)
}

func (h *AnimeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid anime id")
		return
	}

	var req models.AnimeRequest
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

	anime, err := h.anime.Update(r.Context(), id, &req)
	if err != nil {
		if err == services.ErrAnimeNotFound {
			writeError(w, http.StatusNotFound, "Anime not found")
			return
		}
		zap.L().Error("anime update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update anime")
		return
	}
	writeJSON(w, http.StatusOK, anime)
}

func (h *AnimeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid anime id")
		return
	}

	if err := h.anime.Delete(r.Context(), id); err != nil {
		if err == services.ErrAnimeNotFound {
			writeError(w, http.StatusNotFound, "Anime not found")
			return
		}
		zap.L().Error("anime delete failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete anime")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Anime deleted"})
}

func (h *AnimeHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid anime id")
		return
	}

	var req models.RateAnimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 10 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 10")
		return
	}

	anime, err := h.anime.Rate(r.Context(), id, req.Rating)
	if err != nil {
		if err == services.ErrAnimeNotFound {
			writeError(w, http.StatusNotFound, "Anime not found")
			return
		}
		zap.L().Error("anime rate failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to rate anime")
		return
	}
	writeJSON(w, http.StatusOK, anime)
}

func (h *AnimeHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.anime.DistinctGenres(r.Context())
	if err != nil {
		zap.L().Error("genre list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load genres")
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *AnimeHandler) Studios(w http.ResponseWriter, r *http.Request) {
	studios, err := h.anime.DistinctStudios(r.Context())
	if err != nil {
		zap.L().Error("studio list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load studios")
		return
	}
	writeJSON(w, http.StatusOK, studios)
}
