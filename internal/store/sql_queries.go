// SPDX-License-Identifier: Apache-2.0

package store

const (
	upsertRecord = `
		INSERT INTO calibration_records (
			local_id,
			server_id,
			synced,
			payload,
			signature_name,
			signature_mime,
			signature,
			created_at,
			last_modified,
			sync_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (local_id) DO UPDATE SET
			server_id      = excluded.server_id,
			synced         = excluded.synced,
			payload        = excluded.payload,
			signature_name = excluded.signature_name,
			signature_mime = excluded.signature_mime,
			signature      = excluded.signature,
			last_modified  = excluded.last_modified,
			sync_at        = excluded.sync_at;`

	deleteRecordAttachments = `
		DELETE FROM record_attachments
		WHERE record_local_id = $1;`

	insertRecordAttachment = `
		INSERT INTO record_attachments (
			record_local_id,
			position,
			name,
			mime,
			data
		) VALUES ($1, $2, $3, $4, $5);`

	deleteRecord = `
		DELETE FROM calibration_records
		WHERE local_id = $1;`

	markRecordSynced = `
		UPDATE calibration_records SET
			synced    = TRUE,
			server_id = $1,
			sync_at   = $2
		WHERE local_id = $3;`
)
