package models

import (
	"testing"
	"time"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		sum   float64
		count int64
		want  float64
	}{
		{0, 0, 0},
		{10, -1, 0},
		{8, 1, 8},
		{17, 2, 8.5},
		{25, 3, 8.3},
		{26, 3, 8.7},
	}
	for _, tt := range tests {
		if got := AverageRating(tt.sum, tt.count); got != tt.want {
			t.Errorf("AverageRating(%v, %d) = %v, want %v", tt.sum, tt.count, got, tt.want)
		}
	}
}

func validAnimeRequest() AnimeRequest {
	return AnimeRequest{
		Title:      "Cowboy Bebop",
		Synopsis:   "A bounty hunter crew drifts through the solar system.",
		CoverImage: "/uploads/bebop.jpg",
		Episodes:   26,
		Status:     AnimeStatusCompleted,
		Genres:     []string{"sci-fi"},
		Year:       1998,
		Studio:     &Studio{Name: "Sunrise"},
	}
}

func TestAnimeRequestValidate(t *testing.T) {
	if errs := func() map[string]string { r := validAnimeRequest(); return r.Validate() }(); len(errs) != 0 {
		t.Fatalf("valid request: %v", errs)
	}

	tests := []struct {
		name   string
		mutate func(*AnimeRequest)
		field  string
	}{
		{"missing title", func(r *AnimeRequest) { r.Title = " " }, "title"},
		{"missing synopsis", func(r *AnimeRequest) { r.Synopsis = "" }, "synopsis"},
		{"synopsis too long", func(r *AnimeRequest) { r.Synopsis = string(make([]byte, 2001)) }, "synopsis"},
		{"missing cover", func(r *AnimeRequest) { r.CoverImage = "" }, "coverImage"},
		{"zero episodes", func(r *AnimeRequest) { r.Episodes = 0 }, "episodes"},
		{"bad status", func(r *AnimeRequest) { r.Status = "cancelled" }, "status"},
		{"no genres", func(r *AnimeRequest) { r.Genres = nil }, "genres"},
		{"year too old", func(r *AnimeRequest) { r.Year = 1850 }, "year"},
		{"year too far out", func(r *AnimeRequest) { r.Year = time.Now().Year() + 6 }, "year"},
		{"nil studio", func(r *AnimeRequest) { r.Studio = nil }, "studio"},
		{"bad character role", func(r *AnimeRequest) {
			r.Characters = []Character{{Name: "Spike", Role: "protagonist"}}
		}, "characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validAnimeRequest()
			tt.mutate(&req)
			if errs := req.Validate(); errs[tt.field] == "" {
				t.Errorf("expected error on %q, got %v", tt.field, errs)
			}
		})
	}
}
