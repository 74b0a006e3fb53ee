package screeninginfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/screening"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) screening.Repository {
	return &PostgresRepository{db: db}
}

// ============================================================================
// Batches
// ============================================================================

type dbBatch struct {
	ID          string     `db:"id"`
	Status      string     `db:"status"`
	JDFileName  string     `db:"jd_file_name"`
	JDText      string     `db:"jd_text"`
	ResumeCount int        `db:"resume_count"`
	CreatedAt   time.Time  `db:"created_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

func (r *PostgresRepository) CreateBatch(ctx context.Context, batch *screening.Batch) error {
	query := `
		INSERT INTO screening_batches (
			id, status, jd_file_name, jd_text, resume_count, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		batch.ID.String(), string(batch.Status), batch.JDFileName, batch.JDText,
		batch.ResumeCount, batch.CreatedAt, batch.CompletedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("batch already exists: %w", err)
		}
		return fmt.Errorf("create batch: %w", err)
	}

	logx.Infof("Created screening batch: %s", batch.ID)
	return nil
}

func (r *PostgresRepository) UpdateBatch(ctx context.Context, batch *screening.Batch) error {
	query := `
		UPDATE screening_batches SET
			status = $2,
			jd_text = $3,
			resume_count = $4,
			completed_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		batch.ID.String(), string(batch.Status), batch.JDText,
		batch.ResumeCount, batch.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("batch not found: %s", batch.ID)
	}
	return nil
}

func (r *PostgresRepository) GetBatchByID(ctx context.Context, id kernel.BatchID) (*screening.Batch, error) {
	query := `
		SELECT id, status, jd_file_name, jd_text, resume_count, created_at, completed_at
		FROM screening_batches
		WHERE id = $1
	`

	var row dbBatch
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("batch not found: %s", id)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	return toDomainBatch(&row), nil
}

func (r *PostgresRepository) ListBatches(ctx context.Context, pagination kernel.PaginationOptions) (*kernel.Paginated[screening.Batch], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM screening_batches`); err != nil {
		return nil, fmt.Errorf("count batches: %w", err)
	}

	query := `
		SELECT id, status, jd_file_name, jd_text, resume_count, created_at, completed_at
		FROM screening_batches
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var rows []dbBatch
	if err := r.db.SelectContext(ctx, &rows, query, pagination.PageSize, pagination.Offset()); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	batches := make([]screening.Batch, 0, len(rows))
	for i := range rows {
		batches = append(batches, *toDomainBatch(&rows[i]))
	}

	paginated := kernel.NewPaginated(batches, pagination.Page, pagination.PageSize, total)
	return &paginated, nil
}

func toDomainBatch(row *dbBatch) *screening.Batch {
	return &screening.Batch{
		ID:          kernel.BatchID(row.ID),
		Status:      screening.BatchStatus(row.Status),
		JDFileName:  row.JDFileName,
		JDText:      row.JDText,
		ResumeCount: row.ResumeCount,
		CreatedAt:   row.CreatedAt,
		CompletedAt: row.CompletedAt,
	}
}

// ============================================================================
// Results
// ============================================================================

type dbResult struct {
	ID        string          `db:"id"`
	BatchID   string          `db:"batch_id"`
	FileName  string          `db:"file_name"`
	Status    string          `db:"status"`
	Reason    string          `db:"reason"`
	Payload   sql.NullString  `db:"payload"`
	Rank      int             `db:"rank"`
	Embedding pgvector.Vector `db:"embedding"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r *PostgresRepository) SaveResults(ctx context.Context, results []*screening.CandidateResult) error {
	if len(results) == 0 {
		return nil
	}

	query := `
		INSERT INTO screening_results (
			id, batch_id, file_name, status, reason, payload, rank, embedding, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			reason = EXCLUDED.reason,
			payload = EXCLUDED.payload,
			rank = EXCLUDED.rank,
			embedding = EXCLUDED.embedding
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, res := range results {
		var payload sql.NullString
		if res.Data != nil {
			data, err := json.Marshal(res.Data)
			if err != nil {
				return fmt.Errorf("marshal result payload for %s: %w", res.ID, err)
			}
			payload = sql.NullString{String: string(data), Valid: true}
		}

		var embedding any
		if len(res.Embedding) > 0 {
			embedding = pgvector.NewVector(res.Embedding)
		}

		if _, err := tx.ExecContext(ctx, query,
			res.ID.String(), res.BatchID.String(), res.FileName,
			string(res.Status), res.Reason, payload, res.Rank, embedding, res.CreatedAt,
		); err != nil {
			return fmt.Errorf("save result %s: %w", res.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}

	logx.Infof("Saved %d screening results for batch %s", len(results), results[0].BatchID)
	return nil
}

func (r *PostgresRepository) GetResultsByBatchID(ctx context.Context, id kernel.BatchID) ([]*screening.CandidateResult, error) {
	query := `
		SELECT id, batch_id, file_name, status, reason, payload, rank, created_at
		FROM screening_results
		WHERE batch_id = $1
		ORDER BY rank ASC
	`

	var rows []dbResult
	if err := r.db.SelectContext(ctx, &rows, query, id.String()); err != nil {
		return nil, fmt.Errorf("get results: %w", err)
	}

	results := make([]*screening.CandidateResult, 0, len(rows))
	for i := range rows {
		res, err := toDomainResult(&rows[i])
		if err != nil {
			logx.Errorf("Failed to convert result %s: %v", rows[i].ID, err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func toDomainResult(row *dbResult) (*screening.CandidateResult, error) {
	res := &screening.CandidateResult{
		ID:        kernel.CandidateID(row.ID),
		BatchID:   kernel.BatchID(row.BatchID),
		FileName:  row.FileName,
		Status:    screening.ResultStatus(row.Status),
		Reason:    row.Reason,
		Rank:      row.Rank,
		CreatedAt: row.CreatedAt,
	}

	if row.Payload.Valid && row.Payload.String != "" {
		var record screening.AnalysisRecord
		if err := json.Unmarshal([]byte(row.Payload.String), &record); err != nil {
			return nil, fmt.Errorf("unmarshal result payload: %w", err)
		}
		res.Data = &record
	}

	return res, nil
}

// ============================================================================
// Semantic search with pgvector
// ============================================================================

type dbMatch struct {
	dbResult
	Similarity float64 `db:"similarity"`
}

// SemanticSearch ranks analyzed candidates by cosine similarity to the query
// vector.
func (r *PostgresRepository) SemanticSearch(ctx context.Context, embedding []float32, topK int) ([]screening.CandidateMatch, error) {
	query := `
		SELECT
			id, batch_id, file_name, status, reason, payload, rank, created_at,
			1 - (embedding <=> $1) AS similarity
		FROM screening_results
		WHERE status = $2 AND embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $3
	`

	var rows []dbMatch
	err := r.db.SelectContext(ctx, &rows, query,
		pgvector.NewVector(embedding), string(screening.ResultStatusAnalyzed), topK)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	matches := make([]screening.CandidateMatch, 0, len(rows))
	for i := range rows {
		res, err := toDomainResult(&rows[i].dbResult)
		if err != nil {
			logx.Errorf("Failed to convert match %s: %v", rows[i].ID, err)
			continue
		}
		matches = append(matches, screening.CandidateMatch{
			Result:     *res,
			Similarity: rows[i].Similarity,
		})
	}
	return matches, nil
}
