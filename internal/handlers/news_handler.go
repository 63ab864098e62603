package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Kohanchuk66/anime-back/internal/auth"
	"github.com/Kohanchuk66/anime-back/internal/middleware"
	"github.com/Kohanchuk66/anime-back/internal/models"
	"github.com/Kohanchuk66/anime-back/internal/services"
)

// NewsStore is the article persistence the news surface needs.
type NewsStore interface {
	List(ctx context.Context, opts models.NewsListOptions) ([]models.News, int64, error)
	GetPublished(ctx context.Context, id primitive.ObjectID) (*models.News, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.News, error)
	Create(ctx context.Context, req *models.NewsRequest, author primitive.ObjectID, authorName string) (*models.News, error)
	Update(ctx context.Context, id primitive.ObjectID, req *models.NewsRequest) (*models.News, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (bool, int, error)
	AddComment(ctx context.Context, id, userID primitive.ObjectID, username, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) error
	DistinctTags(ctx context.Context) ([]string, error)
}

type NewsHandler struct {
	news NewsStore
}

func NewNewsHandler(news NewsStore) *NewsHandler {
	return &NewsHandler{news: news}
}

// viewer extracts the caller identity for personalization. The zero ObjectID
// with authenticated=false means an anonymous reader.
func viewer(claims *auth.IdentityClaims) (primitive.ObjectID, bool) {
	if claims == nil {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := models.NewsListOptions{
		Search: q.Get("search"),
		Tags:   splitList(q.Get("tags")),
		Page:   queryInt64(r, "page", 1),
		Limit:  queryInt64(r, "limit", 10),
	}

	items, total, err := h.news.List(r.Context(), opts)
	if err != nil {
		zap.L().Error("news list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load news")
		return
	}

	viewerID, authed := viewer(middleware.Identity(r.Context()))
	views := make([]*models.NewsView, 0, len(items))
	for i := range items {
		views = append(views, items[i].View(viewerID, authed))
	}

	writeJSON(w, http.StatusOK, pagedResponse(views, total, opts.Page, opts.Limit, 10))
}

func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid article id")
		return
	}

	article, err := h.news.GetPublished(r.Context(), id)
	if err != nil {
		if err == services.ErrNewsNotFound {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		zap.L().Error("news lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load article")
		return
	}

	viewerID, authed := viewer(middleware.Identity(r.Context()))
	writeJSON(w, http.StatusOK, article.View(viewerID, authed))
}

func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	var req models.NewsRequest
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

	authorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	article, err := h.news.Create(r.Context(), &req, authorID, claims.Username)
	if err != nil {
		zap.L().Error("news create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create article")
		return
	}
	writeJSON(w, http.StatusCreated, article.View(authorID, true))
}

// canEditArticle allows the author and admins.
func canEditArticle(claims *auth.IdentityClaims, article *models.News) bool {
	if claims.Role == models.RoleAdmin {
		return true
	}
	return article.AuthorID.Hex() == claims.UserID
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid article id")
		return
	}

	existing, err := h.news.GetByID(r.Context(), id)
	if err != nil {
		if err == services.ErrNewsNotFound {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		zap.L().Error("news lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update article")
		return
	}
	if !canEditArticle(claims, existing) {
		writeError(w, http.StatusForbidden, "You can only edit your own articles")
		return
	}

	var req models.NewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	article, err := h.news.Update(r.Context(), id, &req)
	if err != nil {
		if err == services.ErrNewsNotFound {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		zap.L().Error("news update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update article")
		return
	}

	viewerID, authed := viewer(claims)
	writeJSON(w, http.StatusOK, article.View(viewerID, authed))
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid article id")
		return
	}

	existing, err := h.news.GetByID(r.Context(), id)
	if err != nil {
		if err == services.ErrNewsNotFound {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		zap.L().Error("news lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete article")
		return
	}
	if !canEditArticle(claims, existing) {
		writeError(w, http.StatusForbidden, "You can only delete your own articles")
		return
	}

	if err := h.news.Delete(r.Context(), id); err != nil {
		zap.L().Error("news delete failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete article")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Article deleted"})
}

func (h *NewsHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid article id")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	liked, count, err := h.news.ToggleLike(r.Context(), id, userID)
	if err != nil {
		if err == services.ErrNewsNotFound {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		zap.L().Error("news like failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to toggle like")
		return
	}
	writeJSON(w, http.StatusOK, models.LikeResponse{Liked: liked, LikeCount: count})
}

func (h *NewsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid article id")
		return
	}

	var req models.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeError(w, http.StatusUnprocessableEntity, "Comment content is required")
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	comment, err := h.news.AddComment(r.Context(), id, userID, claims.Username, content)
	if err != nil {
		if err == services.ErrNewsNotFound {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		zap.L().Error("comment create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// DeleteComment allows the comment author, admins and moderators.
func (h *NewsHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid article id")
		return
	}
	commentID, ok := parseID(chi.URLParam(r, "commentId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid comment id")
		return
	}

	article, err := h.news.GetByID(r.Context(), id)
	if err != nil {
		if err == services.ErrNewsNotFound {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		zap.L().Error("news lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete comment")
		return
	}

	allowed := claims.Role == models.RoleAdmin || claims.Role == models.RoleModerator
	if !allowed {
		for _, c := range article.Comments {
			if c.ID == commentID && c.UserID.Hex() == claims.UserID {
				allowed = true
				break
			}
		}
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "You can only delete your own comments")
		return
	}

	if err := h.news.DeleteComment(r.Context(), id, commentID); err != nil {
		switch err {
		case services.ErrNewsNotFound:
			writeError(w, http.StatusNotFound, "Article not found")
		case services.ErrCommentNotFound:
			writeError(w, http.StatusNotFound, "Comment not found")
		default:
			zap.L().Error("comment delete failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to delete comment")
		}
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Comment deleted"})
}

func (h *NewsHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.news.DistinctTags(r.Context())
	if err != nil {
		zap.L().Error("tag list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load tags")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
