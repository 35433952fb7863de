package service

import (
	"context"

	"CBDesk/internal/domain/models"
)

// QuoteResolver resolves spot prices and CB terms across a provider chain.
type QuoteResolver interface {
	ResolveQuote(ctx context.Context, id string) (*models.SpotQuote, error)
	ResolveTerms(ctx context.Context, id string) (*models.TermsQuote, error)
}
