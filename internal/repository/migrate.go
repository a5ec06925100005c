package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
)

// column types per dialect
type ddlTypes struct {
	id, text, blob, ts, date, float, json string
}

var (
	sqliteTypes   = ddlTypes{id: "TEXT", text: "TEXT", blob: "BLOB", ts: "DATETIME", date: "DATE", float: "REAL", json: "TEXT"}
	postgresTypes = ddlTypes{id: "UUID", text: "TEXT", blob: "BYTEA", ts: "TIMESTAMPTZ", date: "DATE", float: "DOUBLE PRECISION", json: "JSONB"}
)

func schemaStatements(d string) []string {
	t := sqliteTypes
	if d == dialect.Postgres {
		t = postgresTypes
	}
	r := strings.NewReplacer(
		"{id}", t.id, "{text}", t.text, "{blob}", t.blob, "{ts}", t.ts,
		"{date}", t.date, "{float}", t.float, "{json}", t.json,
	)
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS syllabi (
	id {id} PRIMARY KEY,
	source_path {text} NOT NULL,
	filename {text} NOT NULL,
	mime_type {text} NOT NULL,
	content_hash {blob} NOT NULL UNIQUE,
	extracted_text {text} NOT NULL,
	status {text} NOT NULL,
	error_message {text},
	uploaded_at {ts} NOT NULL,
	updated_at {ts} NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_syllabi_status ON syllabi (status)`,
		`CREATE TABLE IF NOT EXISTS syllabus_extractions (
	id {id} PRIMARY KEY,
	syllabus_id {id} NOT NULL REFERENCES syllabi (id) ON DELETE CASCADE,
	extraction_confidence {float} NOT NULL,
	extraction_method {text} NOT NULL,
	record_json {json} NOT NULL,
	extracted_at {ts} NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_syllabus ON syllabus_extractions (syllabus_id, extracted_at)`,
		`CREATE TABLE IF NOT EXISTS important_dates (
	id {id} PRIMARY KEY,
	syllabus_id {id} NOT NULL REFERENCES syllabi (id) ON DELETE CASCADE,
	extraction_id {id} REFERENCES syllabus_extractions (id) ON DELETE SET NULL,
	title {text} NOT NULL,
	category {text} NOT NULL,
	due_date {date} NOT NULL,
	raw_date {text} NOT NULL,
	description {text} NOT NULL DEFAULT '',
	created_at {ts} NOT NULL,
	UNIQUE (syllabus_id, title, due_date)
)`,
		`CREATE INDEX IF NOT EXISTS idx_important_dates_due ON important_dates (due_date)`,
	}
	for i := range stmts {
		stmts[i] = r.Replace(stmts[i])
	}
	return stmts
}

// Migrate creates the tables and indexes if they do not exist yet.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, stmt := range schemaStatements(db.Dialect) {
		if _, err := db.exec(ctx, stmt, nil); err != nil {
			logger.Error("migration failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Info("database schema ready", "dialect", db.Dialect)
	return nil
}
