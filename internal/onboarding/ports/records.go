package ports

import (
	"context"

	"onboard/internal/onboarding"
)

// ClientStore resolves onboarding clients. This port keeps the service free of
// any database or cache dependency; adapters live under store/records.
type ClientStore interface {
	// FindByID returns sentinel.ErrNotFound (wrapped) for unknown ids
	FindByID(ctx context.Context, id onboarding.ClientID) (*onboarding.Client, error)

	// ListIDs returns every client id in ascending order
	ListIDs(ctx context.Context) ([]onboarding.ClientID, error)
}

// DocumentStore lists the documents submitted by a client.
type DocumentStore interface {
	ListDocuments(ctx context.Context, clientID onboarding.ClientID) ([]onboarding.Document, error)
}

// ApplicationStore lists the product applications opened by a client.
type ApplicationStore interface {
	ListApplications(ctx context.Context, clientID onboarding.ClientID) ([]onboarding.Application, error)
}

// CatalogStore exposes the document-type catalog the engine evaluates against.
type CatalogStore interface {
	ListCatalog(ctx context.Context) ([]onboarding.DocumentType, error)
}
