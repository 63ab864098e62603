package models

// ErrorResponse is the flat error body every failing request returns.
type ErrorResponse struct {
	Message string `json:"message"`
}

// MessageResponse is the body for endpoints whose success payload is a
// human-readable confirmation only.
type MessageResponse struct {
	Message string `json:"message"`
}

// PagedResponse wraps list endpoints that support paging.
type PagedResponse struct {
	Items       interface{} `json:"items"`
	TotalPages  int64       `json:"totalPages"`
	CurrentPage int64       `json:"currentPage"`
	Total       int64       `json:"total"`
}
