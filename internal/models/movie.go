package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tag struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	CreatedBy string             `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Movie struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Slug        string               `bson:"slug" json:"slug"`
	Description string               `bson:"description" json:"description"`
	ReleaseYear int                  `bson:"releaseYear,omitempty" json:"releaseYear,omitempty"`
	Genre       []string             `bson:"genre" json:"genre"`
	Rating      float64              `bson:"rating,omitempty" json:"rating,omitempty"`
	TagIDs      []primitive.ObjectID `bson:"tags" json:"-"`
	Tags        []Tag                `bson:"-" json:"tags"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

type MovieRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ReleaseYear int      `json:"releaseYear"`
	Genre       []string `json:"genre"`
	Rating      float64  `json:"rating"`
	Tags        []string `json:"tags"`
}

func (r *MovieRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Title) == "" {
		errs["title"] = "Title is required"
	}
	if r.Rating < 0 || r.Rating > 10 {
		errs["rating"] = "Rating must be between 0 and 10"
	}
	return errs
}

// MovieSlug derives the unique URL slug for a movie from its title and the
// creation instant, so two movies with the same title never collide.
func MovieSlug(title string, at time.Time) string {
	return Slugify(fmt.Sprintf("%s-%d", title, at.UnixMilli()))
}

// Slugify lowercases s and collapses every run of non-alphanumeric runes
// into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
