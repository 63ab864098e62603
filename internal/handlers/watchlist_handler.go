package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Kohanchuk66/anime-back/internal/middleware"
	"github.com/Kohanchuk66/anime-back/internal/models"
	"github.com/Kohanchuk66/anime-back/internal/services"
)

// WatchlistStore is the watchlist persistence the handler needs.
type WatchlistStore interface {
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Watchlist, error)
	ListPublic(ctx context.Context, opts models.WatchlistListOptions) ([]models.Watchlist, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Watchlist, error)
	Create(ctx context.Context, owner primitive.ObjectID, ownerName string, req *models.WatchlistRequest) (*models.Watchlist, error)
	Update(ctx context.Context, id primitive.ObjectID, req *models.WatchlistRequest) (*models.Watchlist, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddEntry(ctx context.Context, id primitive.ObjectID, entry models.WatchlistEntry) (*models.Watchlist, error)
	UpdateEntry(ctx context.Context, id, animeID primitive.ObjectID, req *models.WatchlistEntryRequest) (*models.Watchlist, error)
	RemoveEntry(ctx context.Context, id, animeID primitive.ObjectID) error
	ToggleFollow(ctx context.Context, id, userID primitive.ObjectID) (bool, int, error)
}

// AnimeChecker verifies that an anime exists before it enters a watchlist.
type AnimeChecker interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type WatchlistHandler struct {
	lists WatchlistStore
	anime AnimeChecker
}

func NewWatchlistHandler(lists WatchlistStore, anime AnimeChecker) *WatchlistHandler {
	return &WatchlistHandler{lists: lists, anime: anime}
}

func callerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.Identity(r.Context())
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ownedList loads the watchlist and checks the caller owns it. Writes the
// response on failure.
func (h *WatchlistHandler) ownedList(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID) (*models.Watchlist, bool) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid watchlist id")
		return nil, false
	}

	list, err := h.lists.GetByID(r.Context(), id)
	if err != nil {
		if err == services.ErrWatchlistNotFound {
			writeError(w, http.StatusNotFound, "Watchlist not found")
			return nil, false
		}
		zap.L().Error("watchlist lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load watchlist")
		return nil, false
	}
	if list.UserID != owner {
		writeError(w, http.StatusForbidden, "You can only modify your own watchlists")
		return nil, false
	}
	return list, true
}

func (h *WatchlistHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	lists, err := h.lists.ListByOwner(r.Context(), owner)
	if err != nil {
		zap.L().Error("watchlist list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load watchlists")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *WatchlistHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := models.WatchlistListOptions{
		Search: q.Get("search"),
		UserID: q.Get("userId"),
		Page:   queryInt64(r, "page", 1),
		Limit:  queryInt64(r, "limit", 20),
	}

	lists, total, err := h.lists.ListPublic(r.Context(), opts)
	if err != nil {
		if err == services.ErrWatchlistNotFound {
			writeError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		zap.L().Error("public watchlist list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load watchlists")
		return
	}

	writeJSON(w, http.StatusOK, pagedResponse(lists, total, opts.Page, opts.Limit, 20))
}

// Get serves a single list, enforcing visibility. Anonymous callers can read
// public lists only.
func (h *WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid watchlist id")
		return
	}

	list, err := h.lists.GetByID(r.Context(), id)
	if err != nil {
		if err == services.ErrWatchlistNotFound {
			writeError(w, http.StatusNotFound, "Watchlist not found")
			return
		}
		zap.L().Error("watchlist lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load watchlist")
		return
	}

	viewerID, _ := viewer(middleware.Identity(r.Context()))
	if !list.VisibleTo(viewerID) {
		writeError(w, http.StatusForbidden, "This watchlist is private")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())
	owner, ok := callerID(w, r)
	if !ok {
		return
	}

	var req models.WatchlistRequest
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

	list, err := h.lists.Create(r.Context(), owner, claims.Username, &req)
	if err != nil {
		if err == services.ErrDuplicateName {
			writeError(w, http.StatusBadRequest, "You already have a watchlist with this name")
			return
		}
		zap.L().Error("watchlist create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create watchlist")
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}
	list, ok := h.ownedList(w, r, owner)
	if !ok {
		return
	}

	var req models.WatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name != "" {
		if errs := req.Validate(); len(errs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"message": "Validation failed",
				"errors":  errs,
			})
			return
		}
	}

	updated, err := h.lists.Update(r.Context(), list.ID, &req)
	if err != nil {
		if err == services.ErrDuplicateName {
			writeError(w, http.StatusBadRequest, "You already have a watchlist with this name")
			return
		}
		zap.L().Error("watchlist update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update watchlist")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}
	list, ok := h.ownedList(w, r, owner)
	if !ok {
		return
	}

	if err := h.lists.Delete(r.Context(), list.ID); err != nil {
		zap.L().Error("watchlist delete failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete watchlist")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Watchlist deleted"})
}

func (h *WatchlistHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}
	list, ok := h.ownedList(w, r, owner)
	if !ok {
		return
	}

	animeID, ok := parseID(chi.URLParam(r, "animeId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid anime id")
		return
	}

	var req models.WatchlistEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status := req.Status
	if status == "" {
		status = models.WatchStatusPlanToWatch
	}
	if !models.ValidWatchStatus(status) {
		writeError(w, http.StatusBadRequest, "Invalid watch status")
		return
	}
	if req.UserRating != nil && (*req.UserRating < 1 || *req.UserRating > 10) {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 10")
		return
	}
	if req.Progress != nil && *req.Progress < 0 {
		writeError(w, http.StatusBadRequest, "Progress cannot be negative")
		return
	}

	exists, err := h.anime.Exists(r.Context(), animeID)
	if err != nil {
		zap.L().Error("anime existence check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to add anime")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "Anime not found")
		return
	}

	entry := models.WatchlistEntry{
		AnimeID: animeID,
		AddedAt: time.Now().UTC(),
		Status:  status,
	}
	if req.Progress != nil {
		entry.Progress = *req.Progress
	}
	if req.UserRating != nil {
		entry.UserRating = *req.UserRating
	}

	updated, err := h.lists.AddEntry(r.Context(), list.ID, entry)
	if err != nil {
		if err == services.ErrEntryExists {
			writeError(w, http.StatusBadRequest, "Anime is already in this watchlist")
			return
		}
		zap.L().Error("watchlist entry add failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to add anime")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *WatchlistHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}
	list, ok := h.ownedList(w, r, owner)
	if !ok {
		return
	}

	animeID, ok := parseID(chi.URLParam(r, "animeId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid anime id")
		return
	}

	var req models.WatchlistEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != "" && !models.ValidWatchStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Invalid watch status")
		return
	}
	if req.UserRating != nil && (*req.UserRating < 1 || *req.UserRating > 10) {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 10")
		return
	}
	if req.Progress != nil && *req.Progress < 0 {
		writeError(w, http.StatusBadRequest, "Progress cannot be negative")
		return
	}

	updated, err := h.lists.UpdateEntry(r.Context(), list.ID, animeID, &req)
	if err != nil {
		if err == services.ErrEntryNotFound {
			writeError(w, http.StatusNotFound, "Anime is not in this watchlist")
			return
		}
		zap.L().Error("watchlist entry update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update entry")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *WatchlistHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(w, r)
	if !ok {
		return
	}
	list, ok := h.ownedList(w, r, owner)
	if !ok {
		return
	}

	animeID, ok := parseID(chi.URLParam(r, "animeId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid anime id")
		return
	}
	if list.Entry(animeID) == nil {
		writeError(w, http.StatusNotFound, "Anime is not in this watchlist")
		return
	}

	if err := h.lists.RemoveEntry(r.Context(), list.ID, animeID); err != nil {
		zap.L().Error("watchlist entry remove failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to remove anime")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Anime removed from watchlist"})
}

// ToggleFollow lets any authenticated user follow a public list.
func (h *WatchlistHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid watchlist id")
		return
	}

	list, err := h.lists.GetByID(r.Context(), id)
	if err != nil {
		if err == services.ErrWatchlistNotFound {
			writeError(w, http.StatusNotFound, "Watchlist not found")
			return
		}
		zap.L().Error("watchlist lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load watchlist")
		return
	}
	if !list.VisibleTo(userID) {
		writeError(w, http.StatusForbidden, "This watchlist is private")
		return
	}

	following, count, err := h.lists.ToggleFollow(r.Context(), id, userID)
	if err != nil {
		zap.L().Error("watchlist follow failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to toggle follow")
		return
	}
	writeJSON(w, http.StatusOK, models.FollowResponse{Following: following, FollowerCount: count})
}
