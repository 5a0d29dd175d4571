// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import "beatmarket/internal/domain/entity"

// PageResult is one page of a listing together with the total number of matches.
type PageResult[T any] struct {
	Items []T
	Total int64
	Page  entity.Page
}
