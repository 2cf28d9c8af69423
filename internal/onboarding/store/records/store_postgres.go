package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"onboard/internal/onboarding"
	"onboard/pkg/platform/sentinel"
	txcontext "onboard/pkg/platform/tx"
)

// PostgresStore reads onboarding records from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const clientColumns = `
	id, person_type, first_name, last_name, second_last_name,
	corporate_name, legal_representative, tax_id, population_id, email, phone,
	street, number, neighborhood, city, state, postal_code,
	birth_date, incorporation_date, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id onboarding.ClientID) (*onboarding.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	var (
		c                         onboarding.Client
		personType                string
		birthDate, incorporatedAt sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, int64(id)).Scan(
		&c.ID, &personType, &c.FirstName, &c.LastName, &c.SecondLastName,
		&c.CorporateName, &c.LegalRepresentative, &c.TaxID, &c.PopulationID, &c.Email, &c.Phone,
		&c.Address.Street, &c.Address.Number, &c.Address.Neighborhood, &c.Address.City, &c.Address.State, &c.Address.PostalCode,
		&birthDate, &incorporatedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	// Unknown person types are kept as-is; the engine scores them down.
	c.PersonType = onboarding.LegalPersonType(personType)
	c.BirthDate = timePtr(birthDate)
	c.IncorporationDate = timePtr(incorporatedAt)
	return &c, nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]onboarding.ClientID, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT id FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list client ids: %w", err)
	}
	defer rows.Close()

	var ids []onboarding.ClientID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan client id: %w", err)
		}
		ids = append(ids, onboarding.ClientID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, clientID onboarding.ClientID) ([]onboarding.Document, error) {
	query := `
		SELECT id, client_id, type_id, submitted_at, document_date, expires_at, status, reviewer_comment
		FROM documents
		WHERE client_id = $1
		ORDER BY id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, int64(clientID))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []onboarding.Document
	for rows.Next() {
		var (
			d                    onboarding.Document
			status               string
			documentDate, expiry sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.ClientID, &d.TypeID, &d.SubmittedAt, &documentDate, &expiry, &status, &d.ReviewerComment); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Status = onboarding.DocumentStatus(status)
		if documentDate.Valid {
			d.DocumentDate = documentDate.Time
		}
		d.ExpiresAt = timePtr(expiry)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) ListApplications(ctx context.Context, clientID onboarding.ClientID) ([]onboarding.Application, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id, client_id, status FROM applications WHERE client_id = $1 ORDER BY id`, int64(clientID))
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []onboarding.Application
	for rows.Next() {
		var (
			a      onboarding.Application
			status string
		)
		if err := rows.Scan(&a.ID, &a.ClientID, &status); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		a.Status = onboarding.ApplicationStatus(status)
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}

func (s *PostgresStore) ListCatalog(ctx context.Context) ([]onboarding.DocumentType, error) {
	query := `
		SELECT id, name, applies_to_individual, applies_to_individual_with_business,
		       applies_to_legal_entity, validity_days, optional
		FROM document_types
		ORDER BY id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var types []onboarding.DocumentType
	for rows.Next() {
		var (
			t        onboarding.DocumentType
			validity sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.AppliesToIndividual, &t.AppliesToIndividualWithBusiness,
			&t.AppliesToLegalEntity, &validity, &t.Optional); err != nil {
			return nil, fmt.Errorf("scan document type: %w", err)
		}
		if validity.Valid {
			days := int(validity.Int64)
			t.ValidityDays = &days
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return types, nil
}

// SyncCatalog upserts every type and removes the ones no longer listed, in
// one transaction.
func (s *PostgresStore) SyncCatalog(ctx context.Context, types []onboarding.DocumentType) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := `
		INSERT INTO document_types (id, name, applies_to_individual, applies_to_individual_with_business,
		                            applies_to_legal_entity, validity_days, optional)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			applies_to_individual = EXCLUDED.applies_to_individual,
			applies_to_individual_with_business = EXCLUDED.applies_to_individual_with_business,
			applies_to_legal_entity = EXCLUDED.applies_to_legal_entity,
			validity_days = EXCLUDED.validity_days,
			optional = EXCLUDED.optional
	`
	ids := make([]int64, 0, len(types))
	for _, t := range types {
		var validity sql.NullInt64
		if t.ValidityDays != nil {
			validity = sql.NullInt64{Int64: int64(*t.ValidityDays), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, upsert, int64(t.ID), t.Name, t.AppliesToIndividual,
			t.AppliesToIndividualWithBusiness, t.AppliesToLegalEntity, validity, t.Optional); err != nil {
			return fmt.Errorf("upsert document type %d: %w", t.ID, err)
		}
		ids = append(ids, int64(t.ID))
	}

	// Types still referenced by documents are kept so their names resolve.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_types
		 WHERE NOT (id = ANY($1))
		   AND NOT EXISTS (SELECT 1 FROM documents WHERE documents.type_id = document_types.id)`,
		pq.Array(ids)); err != nil {
		return fmt.Errorf("prune document types: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog sync: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveClient(ctx context.Context, c onboarding.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			person_type = EXCLUDED.person_type,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			second_last_name = EXCLUDED.second_last_name,
			corporate_name = EXCLUDED.corporate_name,
			legal_representative = EXCLUDED.legal_representative,
			tax_id = EXCLUDED.tax_id,
			population_id = EXCLUDED.population_id,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			street = EXCLUDED.street,
			number = EXCLUDED.number,
			neighborhood = EXCLUDED.neighborhood,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			postal_code = EXCLUDED.postal_code,
			birth_date = EXCLUDED.birth_date,
			incorporation_date = EXCLUDED.incorporation_date,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		int64(c.ID), string(c.PersonType), c.FirstName, c.LastName, c.SecondLastName,
		c.CorporateName, c.LegalRepresentative, c.TaxID, c.PopulationID, c.Email, c.Phone,
		c.Address.Street, c.Address.Number, c.Address.Neighborhood, c.Address.City, c.Address.State, c.Address.PostalCode,
		nullTime(c.BirthDate), nullTime(c.IncorporationDate), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveDocument(ctx context.Context, d onboarding.Document) error {
	query := `
		INSERT INTO documents (id, client_id, type_id, submitted_at, document_date, expires_at, status, reviewer_comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			type_id = EXCLUDED.type_id,
			submitted_at = EXCLUDED.submitted_at,
			document_date = EXCLUDED.document_date,
			expires_at = EXCLUDED.expires_at,
			status = EXCLUDED.status,
			reviewer_comment = EXCLUDED.reviewer_comment
	`
	var documentDate sql.NullTime
	if !d.DocumentDate.IsZero() {
		documentDate = sql.NullTime{Time: d.DocumentDate, Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		int64(d.ID), int64(d.ClientID), int64(d.TypeID), d.SubmittedAt, documentDate,
		nullTime(d.ExpiresAt), string(d.Status), d.ReviewerComment,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveApplication(ctx context.Context, a onboarding.Application) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO applications (id, client_id, status) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
	`, int64(a.ID), int64(a.ClientID), string(a.Status))
	if err != nil {
		return fmt.Errorf("save application: %w", err)
	}
	return nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
