package models

import (
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AnimeStatusAiring    = "airing"
	AnimeStatusCompleted = "completed"
	AnimeStatusUpcoming  = "upcoming"
)

const (
	CharacterRoleMain       = "main"
	CharacterRoleSupporting = "supporting"
	CharacterRoleMinor      = "minor"
)

type Studio struct {
	Name        string `bson:"name" json:"name"`
	Logo        string `bson:"logo,omitempty" json:"logo,omitempty"`
	Founded     int    `bson:"founded,omitempty" json:"founded,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

type Character struct {
	Name        string `bson:"name" json:"name"`
	Image       string `bson:"image" json:"image"`
	Role        string `bson:"role" json:"role"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

type Anime struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Synopsis     string             `bson:"synopsis" json:"synopsis"`
	CoverImage   string             `bson:"coverImage" json:"coverImage"`
	BannerImage  string             `bson:"bannerImage,omitempty" json:"bannerImage,omitempty"`
	Episodes     int                `bson:"episodes" json:"episodes"`
	Status       string             `bson:"status" json:"status"`
	Genres       []string           `bson:"genres" json:"genres"`
	Rating       float64            `bson:"rating" json:"rating"`
	Year         int                `bson:"year" json:"year"`
	Studio       Studio             `bson:"studio" json:"studio"`
	Characters   []Character        `bson:"characters" json:"characters"`
	TotalRatings int64              `bson:"totalRatings" json:"totalRatings"`
	RatingSum    float64            `bson:"ratingSum" json:"-"`
	ViewCount    int64              `bson:"viewCount" json:"viewCount"`
	AddedBy      primitive.ObjectID `bson:"addedBy" json:"addedBy"`
	AddedByName  string             `bson:"addedByName,omitempty" json:"addedByName,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AverageRating recomputes the rolling average from the sum/count pair,
// rounded to one decimal place.
func AverageRating(sum float64, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return math.Round(sum/float64(count)*10) / 10
}

type AnimeRequest struct {
	Title       string      `json:"title"`
	Synopsis    string      `json:"synopsis"`
	CoverImage  string      `json:"coverImage"`
	BannerImage string      `json:"bannerImage"`
	Episodes    int         `json:"episodes"`
	Status      string      `json:"status"`
	Genres      []string    `json:"genres"`
	Year        int         `json:"year"`
	Studio      *Studio     `json:"studio"`
	Characters  []Character `json:"characters"`
}

func (r *AnimeRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Title) == "" {
		errs["title"] = "Title is required"
	}
	if strings.TrimSpace(r.Synopsis) == "" {
		errs["synopsis"] = "Synopsis is required"
	} else if len(r.Synopsis) > 2000 {
		errs["synopsis"] = "Synopsis must be at most 2000 characters"
	}
	if strings.TrimSpace(r.CoverImage) == "" {
		errs["coverImage"] = "Cover image is required"
	}
	if r.Episodes < 1 {
		errs["episodes"] = "Episodes must be at least 1"
	}
	switch r.Status {
	case AnimeStatusAiring, AnimeStatusCompleted, AnimeStatusUpcoming:
	default:
		errs["status"] = "Status must be airing, completed or upcoming"
	}
	if len(r.Genres) == 0 {
		errs["genres"] = "At least one genre is required"
	}
	maxYear := time.Now().Year() + 5
	if r.Year < 1900 || r.Year > maxYear {
		errs["year"] = "Year is out of range"
	}
	if r.Studio == nil || strings.TrimSpace(r.Studio.Name) == "" {
		errs["studio"] = "Studio is required"
	}
	for _, c := range r.Characters {
		switch c.Role {
		case CharacterRoleMain, CharacterRoleSupporting, CharacterRoleMinor:
		default:
			errs["characters"] = "Character role must be main, supporting or minor"
		}
	}
	return errs
}

type RateAnimeRequest struct {
	Rating float64 `json:"rating"`
}

type AnimeListOptions struct {
	Search    string
	Genres    []string
	Status    string
	Year      int
	SortBy    string
	SortOrder string
	Page      int64
	Limit     int64
}
