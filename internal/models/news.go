package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Username  string             `bson:"username,omitempty" json:"username,omitempty"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type News struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Content     string               `bson:"content" json:"content"`
	AuthorID    primitive.ObjectID   `bson:"author" json:"author"`
	AuthorName  string               `bson:"authorName,omitempty" json:"authorName,omitempty"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Tags        []string             `bson:"tags" json:"tags"`
	IsPublished bool                 `bson:"isPublished" json:"isPublished"`
	PublishedAt *time.Time           `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	Views       int64                `bson:"views" json:"views"`
	Likes       []primitive.ObjectID `bson:"likes" json:"-"`
	Comments    []Comment            `bson:"comments" json:"comments"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// LikedBy reports whether userID is in the like set.
func (n *News) LikedBy(userID primitive.ObjectID) bool {
	for _, id := range n.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// NewsView is a News projection with the caller-specific fields the list and
// detail endpoints add on top of the stored document.
type NewsView struct {
	News
	LikeCount int  `json:"likeCount"`
	IsLiked   bool `json:"isLiked"`
}

func (n *News) View(viewer primitive.ObjectID, authenticated bool) *NewsView {
	return &NewsView{
		News:      *n,
		LikeCount: len(n.Likes),
		IsLiked:   authenticated && n.LikedBy(viewer),
	}
}

type NewsRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags"`
	IsPublished *bool    `json:"isPublished"`
}

func (r *NewsRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Title) == "" {
		errs["title"] = "Title is required"
	}
	if strings.TrimSpace(r.Content) == "" {
		errs["content"] = "Content is required"
	}
	return errs
}

type CommentRequest struct {
	Content string `json:"content"`
}

type LikeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

type NewsListOptions struct {
	Search string
	Tags   []string
	Page   int64
	Limit  int64
}
