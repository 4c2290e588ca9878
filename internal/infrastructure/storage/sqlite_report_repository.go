package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vision-diagnostics/internal/domain/entity"
	"vision-diagnostics/internal/domain/port"
)

const createReportsSQL = `
CREATE TABLE IF NOT EXISTS diagnoses (
	id TEXT PRIMARY KEY,
	user_id INTEGER,
	created_at TEXT NOT NULL,
	image_count INTEGER NOT NULL,
	anomaly_count INTEGER NOT NULL,
	narrative TEXT,
	report BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_diagnoses_created_at ON diagnoses(created_at);`

// SQLiteReportRepository хранит отчёты в SQLite, сам отчёт — JSON в колонке report
type SQLiteReportRepository struct {
	db *sql.DB
}

// OpenSQLiteReportRepository открывает базу и создаёт таблицу при необходимости
func OpenSQLiteReportRepository(path string) (*SQLiteReportRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(createReportsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create diagnoses table: %w", err)
	}
	return &SQLiteReportRepository{db: db}, nil
}

// Close закрывает соединение с базой
func (r *SQLiteReportRepository) Close() error {
	return r.db.Close()
}

// Save сохраняет запись диагностики
func (r *SQLiteReportRepository) Save(ctx context.Context, record *entity.DiagnosisRecord) error {
	data, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", record.ID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO diagnoses (id, user_id, created_at, image_count, anomaly_count, narrative, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
		len(record.Report.IndividualAnalyses),
		record.Report.AnomalyCount(),
		record.Narrative,
		data,
	)
	if err != nil {
		return fmt.Errorf("insert diagnosis %s: %w", record.ID, err)
	}
	return nil
}

// Get возвращает запись по ID
func (r *SQLiteReportRepository) Get(ctx context.Context, id string) (*entity.DiagnosisRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, narrative, report FROM diagnoses WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrReportNotFound
	}
	return record, err
}

// List возвращает последние записи, новые первыми
func (r *SQLiteReportRepository) List(ctx context.Context, limit int) ([]*entity.DiagnosisRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at, narrative, report FROM diagnoses ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.DiagnosisRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*entity.DiagnosisRecord, error) {
	var (
		record    entity.DiagnosisRecord
		userID    sql.NullInt64
		createdAt string
		narrative sql.NullString
		data      []byte
	)
	if err := row.Scan(&record.ID, &userID, &createdAt, &narrative, &data); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", record.ID, err)
	}
	var report entity.DiagnosticReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", record.ID, err)
	}

	record.UserID = userID.Int64
	record.CreatedAt = ts
	record.Narrative = narrative.String
	record.Report = &report
	return &record, nil
}

var _ port.ReportRepository = (*SQLiteReportRepository)(nil)
