package service

import (
	"context"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/filter"
)

// DefaultView is used when a request names no view.
const DefaultView = "default"

// SearchRequest asks for one page of a query's results.
type SearchRequest struct {
	View   string       `json:"view"`
	Query  domain.Query `json:"query"`
	Offset int          `json:"offset"`
	Limit  int          `json:"limit"`
}

// SearchResponse is one page of results plus the full match count.
type SearchResponse struct {
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Games  []*domain.Game `json:"games"`
}

// Search resolves the query for the view and returns the requested page.
// A limit of zero means the configured page size.
func (s *LibraryService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateQuery(req.Query); err != nil {
		return nil, err
	}
	if req.Offset < 0 {
		return nil, errors.Validationf("offset must not be negative: %d", req.Offset)
	}
	if req.Limit < 0 {
		return nil, errors.Validationf("limit must not be negative: %d", req.Limit)
	}
	if req.Limit == 0 {
		req.Limit = s.cfg.PageSize
	}
	req.Limit = min(req.Limit, MaxPageSize)
	if req.View == "" {
		req.View = DefaultView
	}

	res, err := s.cache.Resolve(req.View, req.Query)
	if err != nil {
		return nil, err
	}

	start := min(req.Offset, res.Total)
	end := min(start+req.Limit, res.Total)
	page := make([]*domain.Game, end-start)
	copy(page, res.Games[start:end])

	return &SearchResponse{Total: res.Total, Offset: start, Games: page}, nil
}

// FilterValues lists the developer, publisher, series and genre values
// present in the query's results, ignoring the query's own filter so
// pickers keep offering the alternatives.
func (s *LibraryService) FilterValues(ctx context.Context, view string, q domain.Query) (*domain.FilterValues, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if view == "" {
		view = DefaultView
	}
	q.Filter = domain.AdvancedFilter{}

	res, err := s.cache.Resolve(view, q)
	if err != nil {
		return nil, err
	}
	values := filter.FilterValues(res.Games)
	return &values, nil
}

// CloseView drops the cached results of a view.
func (s *LibraryService) CloseView(view string) {
	s.cache.DropView(view)
}

func validateQuery(q domain.Query) error {
	if !q.OrderBy.Valid() {
		return errors.Validationf("unknown order %q", q.OrderBy)
	}
	if !q.OrderReverse.Valid() {
		return errors.Validationf("unknown direction %q", q.OrderReverse)
	}
	return nil
}
