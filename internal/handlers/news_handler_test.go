package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Kohanchuk66/anime-back/internal/middleware"
	"github.com/Kohanchuk66/anime-back/internal/models"
	"github.com/Kohanchuk66/anime-back/internal/services"
)

type fakeNewsStore struct {
	articles map[primitive.ObjectID]*models.News
}

func newFakeNewsStore() *fakeNewsStore {
	return &fakeNewsStore{articles: map[primitive.ObjectID]*models.News{}}
}

func (s *fakeNewsStore) add(article *models.News) *models.News {
	if article.ID.IsZero() {
		article.ID = primitive.NewObjectID()
	}
	if article.Likes == nil {
		article.Likes = []primitive.ObjectID{}
	}
	if article.Comments == nil {
		article.Comments = []models.Comment{}
	}
	s.articles[article.ID] = article
	return article
}

func (s *fakeNewsStore) List(ctx context.Context, opts models.NewsListOptions) ([]models.News, int64, error) {
	out := []models.News{}
	for _, a := range s.articles {
		if a.IsPublished {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeNewsStore) GetPublished(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	a, ok := s.articles[id]
	if !ok || !a.IsPublished {
		return nil, services.ErrNewsNotFound
	}
	a.Views++
	return a, nil
}

func (s *fakeNewsStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	a, ok := s.articles[id]
	if !ok {
		return nil, services.ErrNewsNotFound
	}
	return a, nil
}

func (s *fakeNewsStore) Create(ctx context.Context, req *models.NewsRequest, author primitive.ObjectID, authorName string) (*models.News, error) {
	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}
	return s.add(&models.News{
		Title:       req.Title,
		Content:     req.Content,
		AuthorID:    author,
		AuthorName:  authorName,
		Tags:        req.Tags,
		IsPublished: published,
	}), nil
}

func (s *fakeNewsStore) Update(ctx context.Context, id primitive.ObjectID, req *models.NewsRequest) (*models.News, error) {
	a, ok := s.articles[id]
	if !ok {
		return nil, services.ErrNewsNotFound
	}
	if req.Title != "" {
		a.Title = req.Title
	}
	if req.Content != "" {
		a.Content = req.Content
	}
	return a, nil
}

func (s *fakeNewsStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := s.articles[id]; !ok {
		return services.ErrNewsNotFound
	}
	delete(s.articles, id)
	return nil
}

func (s *fakeNewsStore) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (bool, int, error) {
	a, ok := s.articles[id]
	if !ok {
		return false, 0, services.ErrNewsNotFound
	}
	if a.LikedBy(userID) {
		for i, l := range a.Likes {
			if l == userID {
				a.Likes = append(a.Likes[:i], a.Likes[i+1:]...)
				break
			}
		}
		return false, len(a.Likes), nil
	}
	a.Likes = append(a.Likes, userID)
	return true, len(a.Likes), nil
}

func (s *fakeNewsStore) AddComment(ctx context.Context, id, userID primitive.ObjectID, username, content string) (*models.Comment, error) {
	a, ok := s.articles[id]
	if !ok {
		return nil, services.ErrNewsNotFound
	}
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Username:  username,
		Content:   content,
		CreatedAt: time.Now(),
	}
	a.Comments = append(a.Comments, comment)
	return &comment, nil
}

func (s *fakeNewsStore) DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	a, ok := s.articles[id]
	if !ok {
		return services.ErrNewsNotFound
	}
	for i := range a.Comments {
		if a.Comments[i].ID == commentID {
			a.Comments = append(a.Comments[:i], a.Comments[i+1:]...)
			return nil
		}
	}
	return services.ErrCommentNotFound
}

func (s *fakeNewsStore) DistinctTags(ctx context.Context) ([]string, error) {
	return []string{}, nil
}

type newsFixture struct {
	router *chi.Mux
	store  *fakeNewsStore
	tokens map[primitive.ObjectID]string
}

func newNewsFixture(t *testing.T, users ...*models.User) *newsFixture {
	t.Helper()
	issuer := authTestIssuer()
	store := newFakeNewsStore()
	h := NewNewsHandler(store)

	tokens := map[primitive.ObjectID]string{}
	for _, u := range users {
		tok, err := issuer.NewAccessToken(u)
		if err != nil {
			t.Fatalf("NewAccessToken: %v", err)
		}
		tokens[u.ID] = tok
	}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(issuer))
		r.Get("/news/{id}", h.Get)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(issuer))
		r.Put("/news/{id}", h.Update)
		r.Delete("/news/{id}", h.Delete)
		r.Post("/news/{id}/like", h.ToggleLike)
		r.Post("/news/{id}/comments", h.AddComment)
		r.Delete("/news/{id}/comments/{commentId}", h.DeleteComment)
	})

	return &newsFixture{router: r, store: store, tokens: tokens}
}

func (f *newsFixture) do(t *testing.T, method, path string, body interface{}, as primitive.ObjectID) *httptest.ResponseRecorder {
	t.Helper()
	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	if tok, ok := f.tokens[as]; ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestNewsUpdateOwnership(t *testing.T) {
	author := &models.User{ID: primitive.NewObjectID(), Username: "author", Role: models.RoleUser}
	other := &models.User{ID: primitive.NewObjectID(), Username: "other", Role: models.RoleUser}
	admin := &models.User{ID: primitive.NewObjectID(), Username: "admin", Role: models.RoleAdmin}
	f := newNewsFixture(t, author, other, admin)

	article := f.store.add(&models.News{
		Title: "Season lineup", Content: "body", AuthorID: author.ID, IsPublished: true,
	})
	path := "/news/" + article.ID.Hex()
	body := models.NewsRequest{Title: "Edited"}

	if rec := f.do(t, http.MethodPut, path, body, other.ID); rec.Code != http.StatusForbidden {
		t.Errorf("foreign edit: status = %d, want 403", rec.Code)
	}
	if rec := f.do(t, http.MethodPut, path, body, author.ID); rec.Code != http.StatusOK {
		t.Errorf("author edit: status = %d, want 200", rec.Code)
	}
	if rec := f.do(t, http.MethodPut, path, body, admin.ID); rec.Code != http.StatusOK {
		t.Errorf("admin edit: status = %d, want 200", rec.Code)
	}
}

func TestNewsLikeTogglePersonalization(t *testing.T) {
	reader := &models.User{ID: primitive.NewObjectID(), Username: "reader", Role: models.RoleUser}
	f := newNewsFixture(t, reader)

	article := f.store.add(&models.News{
		Title: "Review", Content: "body", AuthorID: primitive.NewObjectID(), IsPublished: true,
	})
	path := "/news/" + article.ID.Hex()

	rec := f.do(t, http.MethodPost, path+"/like", nil, reader.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("like: status = %d: %s", rec.Code, rec.Body.String())
	}
	var like models.LikeResponse
	if err := json.NewDecoder(rec.Body).Decode(&like); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !like.Liked || like.LikeCount != 1 {
		t.Errorf("like = %+v", like)
	}

	// The liker sees isLiked true, anonymous readers do not.
	rec = f.do(t, http.MethodGet, path, nil, reader.ID)
	var view models.NewsView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if !view.IsLiked || view.LikeCount != 1 {
		t.Errorf("liker view = isLiked %v, likeCount %d", view.IsLiked, view.LikeCount)
	}

	rec = f.do(t, http.MethodGet, path, nil, primitive.NilObjectID)
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode anonymous view: %v", err)
	}
	if view.IsLiked {
		t.Error("anonymous view reports isLiked")
	}
	if view.LikeCount != 1 {
		t.Errorf("anonymous likeCount = %d", view.LikeCount)
	}

	// Second like withdraws.
	rec = f.do(t, http.MethodPost, path+"/like", nil, reader.ID)
	if err := json.NewDecoder(rec.Body).Decode(&like); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if like.Liked || like.LikeCount != 0 {
		t.Errorf("unlike = %+v", like)
	}
}

func TestNewsCommentDeletion(t *testing.T) {
	commenter := &models.User{ID: primitive.NewObjectID(), Username: "commenter", Role: models.RoleUser}
	other := &models.User{ID: primitive.NewObjectID(), Username: "other", Role: models.RoleUser}
	mod := &models.User{ID: primitive.NewObjectID(), Username: "mod", Role: models.RoleModerator}
	f := newNewsFixture(t, commenter, other, mod)

	article := f.store.add(&models.News{
		Title: "Post", Content: "body", AuthorID: primitive.NewObjectID(), IsPublished: true,
	})
	base := "/news/" + article.ID.Hex() + "/comments"

	rec := f.do(t, http.MethodPost, base, models.CommentRequest{Content: "first"}, commenter.ID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: status = %d: %s", rec.Code, rec.Body.String())
	}
	var comment models.Comment
	if err := json.NewDecoder(rec.Body).Decode(&comment); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Strangers cannot remove it, the author and moderators can.
	if rec := f.do(t, http.MethodDelete, base+"/"+comment.ID.Hex(), nil, other.ID); rec.Code != http.StatusForbidden {
		t.Errorf("stranger delete: status = %d, want 403", rec.Code)
	}
	if rec := f.do(t, http.MethodDelete, base+"/"+comment.ID.Hex(), nil, commenter.ID); rec.Code != http.StatusOK {
		t.Errorf("owner delete: status = %d, want 200", rec.Code)
	}

	rec = f.do(t, http.MethodPost, base, models.CommentRequest{Content: "second"}, commenter.ID)
	if err := json.NewDecoder(rec.Body).Decode(&comment); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec := f.do(t, http.MethodDelete, base+"/"+comment.ID.Hex(), nil, mod.ID); rec.Code != http.StatusOK {
		t.Errorf("moderator delete: status = %d, want 200", rec.Code)
	}
}

func TestNewsBlankCommentRejected(t *testing.T) {
	commenter := &models.User{ID: primitive.NewObjectID(), Username: "commenter", Role: models.RoleUser}
	f := newNewsFixture(t, commenter)

	article := f.store.add(&models.News{
		Title: "Post", Content: "body", AuthorID: primitive.NewObjectID(), IsPublished: true,
	})

	rec := f.do(t, http.MethodPost, "/news/"+article.ID.Hex()+"/comments",
		models.CommentRequest{Content: "   "}, commenter.ID)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}
