package api

import (
	"github.com/starford/folio/internal/articleservice"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
)

// Article is a single flat JSON record: id, date and any other fields it carries.
type Article = models.Article

// ArticleListResponse wraps a date-ordered listing.
type ArticleListResponse struct {
	Articles []Article `json:"articles" validate:"required"`
	Total    int       `json:"total" example:"42" validate:"required"`
	Order    string    `json:"order" example:"desc" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// StatsResponse reports cache and catalog counters.
type StatsResponse = articleservice.Stats
