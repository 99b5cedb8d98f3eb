package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/platform/logger"
	"github.com/quizard-app/quizard-api/internal/store"
)

// PostgresSourceMaterialStore implements the store.SourceMaterialStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSourceMaterialStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSourceMaterialStore creates a new PostgreSQL implementation of the
// SourceMaterialStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSourceMaterialStore(db store.DBTX, logger *slog.Logger) *PostgresSourceMaterialStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSourceMaterialStore{
		db:     db,
		logger: logger.With(slog.String("component", "source_material_store")),
	}
}

// Ensure PostgresSourceMaterialStore implements store.SourceMaterialStore interface
var _ store.SourceMaterialStore = (*PostgresSourceMaterialStore)(nil)

// CreateBulk implements store.SourceMaterialStore.CreateBulk
// It saves all records for a quiz in a single batch, validating each first.
// Returns store.ErrInvalidEntity if the owning quiz does not exist.
func (s *PostgresSourceMaterialStore) CreateBulk(ctx context.Context, materials []*domain.SourceMaterial) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(materials) == 0 {
		return nil
	}

	for _, m := range materials {
		if err := m.Validate(); err != nil {
			log.Warn("source material validation failed during bulk create",
				slog.String("error", err.Error()),
				slog.String("material_id", m.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO source_materials (id, quiz_id, object_key, filename, mime_type, size_bytes, reference_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, m := range materials {
		_, err := s.db.ExecContext(
			ctx,
			query,
			m.ID,
			m.QuizID,
			m.ObjectKey,
			m.Filename,
			m.MimeType,
			m.SizeBytes,
			m.ReferenceIndex,
			m.CreatedAt,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				log.Warn("foreign key violation during source material creation",
					slog.String("material_id", m.ID.String()),
					slog.String("quiz_id", m.QuizID.String()))
				return fmt.Errorf("%w: quiz with ID %s not found",
					store.ErrInvalidEntity, m.QuizID)
			}

			log.Error("failed to create source material",
				slog.String("error", err.Error()),
				slog.String("material_id", m.ID.String()),
				slog.String("quiz_id", m.QuizID.String()))
			return MapError(err)
		}
	}

	log.Info("source materials created successfully",
		slog.String("quiz_id", materials[0].QuizID.String()),
		slog.Int("count", len(materials)))
	return nil
}

// FindByQuizID implements store.SourceMaterialStore.FindByQuizID
// It retrieves all source materials for a quiz ordered by reference index,
// matching the citation numbering shown to users.
func (s *PostgresSourceMaterialStore) FindByQuizID(ctx context.Context, quizID uuid.UUID) ([]*domain.SourceMaterial, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving source materials", slog.String("quiz_id", quizID.String()))

	query := `
		SELECT id, quiz_id, object_key, filename, mime_type, size_bytes, reference_index, created_at
		FROM source_materials
		WHERE quiz_id = $1
		ORDER BY reference_index ASC
	`

	rows, err := s.db.QueryContext(ctx, query, quizID)
	if err != nil {
		log.Error("failed to query source materials",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var materials []*domain.SourceMaterial
	for rows.Next() {
		var m domain.SourceMaterial
		err := rows.Scan(
			&m.ID,
			&m.QuizID,
			&m.ObjectKey,
			&m.Filename,
			&m.MimeType,
			&m.SizeBytes,
			&m.ReferenceIndex,
			&m.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan source material row",
				slog.String("error", err.Error()),
				slog.String("quiz_id", quizID.String()))
			return nil, MapError(err)
		}
		materials = append(materials, &m)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating source material rows",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, MapError(err)
	}

	log.Debug("source materials retrieved successfully",
		slog.String("quiz_id", quizID.String()),
		slog.Int("count", len(materials)))
	return materials, nil
}

// WithTx implements store.SourceMaterialStore.WithTx
// It returns a new SourceMaterialStore instance that uses the provided transaction.
func (s *PostgresSourceMaterialStore) WithTx(tx *sql.Tx) store.SourceMaterialStore {
	return &PostgresSourceMaterialStore{
		db:     tx,
		logger: s.logger,
	}
}
