package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/models"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var recordColumns = []string{
	"local_id",
	"server_id",
	"synced",
	"payload",
	"signature_name",
	"signature_mime",
	"signature",
	"created_at",
	"last_modified",
	"sync_at",
}

type recordRepository struct {
	*DB
	logger *logger.Logger
	now    func() time.Time
}

// NewRecordRepository creates the SQLite-backed RecordRepository.
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{
		DB:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (r *recordRepository) Put(ctx context.Context, record *models.CalibrationRecord) error {
	log := logger.FromContext(ctx)

	if record.LocalID == "" {
		record.LocalID = uuid.NewString()
	}
	record.Touch(r.now())

	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode record payload (local_id=%s): %w", record.LocalID, err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Put").
			Str("local_id", record.LocalID).
			Msg("failed to begin upsert transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sigName, sigMime any
	var sigData []byte
	if record.Signature != nil {
		sigName = record.Signature.Name
		sigMime = record.Signature.MIME
		sigData = record.Signature.Data
	}

	_, err = tx.ExecContext(ctx, upsertRecord,
		record.LocalID,
		record.ServerID,
		record.Synced,
		string(payload),
		sigName,
		sigMime,
		sigData,
		record.CreatedAt,
		record.LastModified,
		record.SyncAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Put").
			Str("local_id", record.LocalID).
			Msg("failed to execute upsert for calibration record")
		return fmt.Errorf("failed to save calibration record (local_id=%s): %w", record.LocalID, err)
	}

	if _, err = tx.ExecContext(ctx, deleteRecordAttachments, record.LocalID); err != nil {
		log.Err(err).
			Str("func", "recordRepository.Put").
			Str("local_id", record.LocalID).
			Msg("failed to clear previous attachments")
		return fmt.Errorf("failed to clear attachments (local_id=%s): %w", record.LocalID, err)
	}

	for i, att := range record.Attachments {
		_, err = tx.ExecContext(ctx, insertRecordAttachment,
			record.LocalID,
			i,
			att.Name,
			att.MIME,
			att.Data,
		)
		if err != nil {
			log.Err(err).
				Str("func", "recordRepository.Put").
				Str("local_id", record.LocalID).
				Str("attachment", att.Name).
				Msg("failed to insert attachment")
			return fmt.Errorf("failed to save attachment %q (local_id=%s): %w", att.Name, record.LocalID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record upsert (local_id=%s): %w", record.LocalID, err)
	}

	return nil
}

func (r *recordRepository) GetByID(ctx context.Context, localID string) (models.CalibrationRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.Select(recordColumns...).
		From("calibration_records").
		Where(squirrel.Eq{"local_id": localID}).
		ToSql()
	if err != nil {
		return models.CalibrationRecord{}, fmt.Errorf("failed to build record query: %w", err)
	}

	row := r.DB.QueryRowContext(ctx, query, args...)
	record, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.CalibrationRecord{}, ErrRecordNotFound
		}
		log.Err(err).
			Str("func", "recordRepository.GetByID").
			Str("local_id", localID).
			Msg("failed to scan calibration record row")
		return models.CalibrationRecord{}, fmt.Errorf("failed to scan calibration record row: %w", err)
	}

	if err = r.loadAttachments(ctx, &record); err != nil {
		return models.CalibrationRecord{}, err
	}

	return record, nil
}

func (r *recordRepository) GetAll(ctx context.Context) ([]models.CalibrationRecord, error) {
	return r.selectRecords(ctx, "recordRepository.GetAll", nil)
}

func (r *recordRepository) GetUnsynced(ctx context.Context) ([]models.CalibrationRecord, error) {
	return r.selectRecords(ctx, "recordRepository.GetUnsynced", squirrel.Eq{"synced": false})
}

func (r *recordRepository) selectRecords(ctx context.Context, caller string, where any) ([]models.CalibrationRecord, error) {
	log := logger.FromContext(ctx)

	builder := psql.Select(recordColumns...).
		From("calibration_records").
		OrderBy("seq")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build records query: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", caller).
			Msg("failed to execute query for calibration records")
		return nil, fmt.Errorf("failed to query calibration records: %w", err)
	}
	defer rows.Close()

	var records []models.CalibrationRecord

	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", caller).
				Msg("failed to scan calibration record row")
			return nil, fmt.Errorf("failed to scan calibration record row: %w", scanErr)
		}
		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", caller).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating calibration record rows: %w", rowsErr)
	}

	for i := range records {
		if err = r.loadAttachments(ctx, &records[i]); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func (r *recordRepository) Delete(ctx context.Context, localID string) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteRecordAttachments, localID); err != nil {
		log.Err(err).
			Str("func", "recordRepository.Delete").
			Str("local_id", localID).
			Msg("failed to delete record attachments")
		return fmt.Errorf("failed to delete attachments (local_id=%s): %w", localID, err)
	}

	if _, err = tx.ExecContext(ctx, deleteRecord, localID); err != nil {
		log.Err(err).
			Str("func", "recordRepository.Delete").
			Str("local_id", localID).
			Msg("failed to delete calibration record")
		return fmt.Errorf("failed to delete calibration record (local_id=%s): %w", localID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record delete (local_id=%s): %w", localID, err)
	}

	return nil
}

func (r *recordRepository) MarkSynced(ctx context.Context, localID string, ack models.ServerAck) (bool, error) {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, markRecordSynced, ack.ID, r.now(), localID)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.MarkSynced").
			Str("local_id", localID).
			Msg("failed to execute mark synced for calibration record")
		return false, fmt.Errorf("failed to mark record synced (local_id=%s): %w", localID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.MarkSynced").
			Str("local_id", localID).
			Msg("failed to get rows affected after mark synced")
		return false, fmt.Errorf("failed to get rows affected (local_id=%s): %w", localID, err)
	}

	if rowsAffected == 0 {
		// record deleted between push and acknowledgment; benign
		log.Warn().
			Str("func", "recordRepository.MarkSynced").
			Str("local_id", localID).
			Msg("no rows affected during mark synced: record not found")
		return false, nil
	}

	return true, nil
}

func (r *recordRepository) loadAttachments(ctx context.Context, record *models.CalibrationRecord) error {
	log := logger.FromContext(ctx)

	query, args, err := psql.Select("name", "mime", "data").
		From("record_attachments").
		Where(squirrel.Eq{"record_local_id": record.LocalID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build attachments query: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.loadAttachments").
			Str("local_id", record.LocalID).
			Msg("failed to query record attachments")
		return fmt.Errorf("failed to query attachments (local_id=%s): %w", record.LocalID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var att models.Attachment
		if scanErr := rows.Scan(&att.Name, &att.MIME, &att.Data); scanErr != nil {
			return fmt.Errorf("failed to scan attachment row (local_id=%s): %w", record.LocalID, scanErr)
		}
		record.Attachments = append(record.Attachments, att)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("error iterating attachment rows (local_id=%s): %w", record.LocalID, rowsErr)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.CalibrationRecord, error) {
	var (
		record       models.CalibrationRecord
		serverID     sql.NullString
		payload      string
		sigName      sql.NullString
		sigMime      sql.NullString
		sigData      []byte
		createdAt    sql.NullTime
		lastModified sql.NullTime
		syncAt       sql.NullTime
	)

	err := row.Scan(
		&record.LocalID,
		&serverID,
		&record.Synced,
		&payload,
		&sigName,
		&sigMime,
		&sigData,
		&createdAt,
		&lastModified,
		&syncAt,
	)
	if err != nil {
		return models.CalibrationRecord{}, err
	}

	if serverID.Valid {
		record.ServerID = &serverID.String
	}
	if err = json.Unmarshal([]byte(payload), &record.Payload); err != nil {
		return models.CalibrationRecord{}, fmt.Errorf("failed to decode record payload (local_id=%s): %w", record.LocalID, err)
	}
	if len(sigData) > 0 {
		record.Signature = &models.Attachment{
			Name: sigName.String,
			MIME: sigMime.String,
			Data: sigData,
		}
	}
	if createdAt.Valid {
		record.CreatedAt = &createdAt.Time
	}
	if lastModified.Valid {
		record.LastModified = &lastModified.Time
	}
	if syncAt.Valid {
		record.SyncAt = &syncAt.Time
	}

	// summary is derived state, always rebuilt from the stored test points
	record.RecomputeSummary()

	return record, nil
}
