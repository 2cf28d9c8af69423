package records

// Schema creates the onboarding tables when they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS clients (
	id                   BIGINT PRIMARY KEY,
	person_type          TEXT NOT NULL,
	first_name           TEXT NOT NULL DEFAULT '',
	last_name            TEXT NOT NULL DEFAULT '',
	second_last_name     TEXT NOT NULL DEFAULT '',
	corporate_name       TEXT NOT NULL DEFAULT '',
	legal_representative TEXT NOT NULL DEFAULT '',
	tax_id               TEXT NOT NULL DEFAULT '',
	population_id        TEXT NOT NULL DEFAULT '',
	email                TEXT NOT NULL DEFAULT '',
	phone                TEXT NOT NULL DEFAULT '',
	street               TEXT NOT NULL DEFAULT '',
	number               TEXT NOT NULL DEFAULT '',
	neighborhood         TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	state                TEXT NOT NULL DEFAULT '',
	postal_code          TEXT NOT NULL DEFAULT '',
	birth_date           DATE,
	incorporation_date   DATE,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS document_types (
	id                                  BIGINT PRIMARY KEY,
	name                                TEXT NOT NULL,
	applies_to_individual               BOOLEAN NOT NULL DEFAULT false,
	applies_to_individual_with_business BOOLEAN NOT NULL DEFAULT false,
	applies_to_legal_entity             BOOLEAN NOT NULL DEFAULT false,
	validity_days                       INTEGER,
	optional                            BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS documents (
	id               BIGINT PRIMARY KEY,
	client_id        BIGINT NOT NULL REFERENCES clients (id) ON DELETE CASCADE,
	type_id          BIGINT NOT NULL,
	submitted_at     TIMESTAMPTZ NOT NULL,
	document_date    DATE,
	expires_at       TIMESTAMPTZ,
	status           TEXT NOT NULL,
	reviewer_comment TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS documents_client_idx ON documents (client_id);

CREATE TABLE IF NOT EXISTS applications (
	id        BIGINT PRIMARY KEY,
	client_id BIGINT NOT NULL REFERENCES clients (id) ON DELETE CASCADE,
	status    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS applications_client_idx ON applications (client_id);
`
