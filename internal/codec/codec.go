// Package codec converts calibration records to and from their
// network-transmissible representation. Binary fields are inlined as base64
// with a MIME tag; encoding always operates on deep copies so a failed send
// never corrupts the stored record.
package codec

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mkalabin/calib-keeper/models"
)

// WireBlob is a binary field in transit: base64 payload plus its MIME tag.
type WireBlob struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Data string `json:"data"`
}

// WireRecord is the JSON body pushed to the server. Local sync bookkeeping
// (synced flag, sync timestamp) never travels over the wire.
type WireRecord struct {
	LocalID      string                    `json:"local_id"`
	ServerID     *string                   `json:"server_id,omitempty"`
	Payload      models.CalibrationPayload `json:"payload"`
	Summary      models.Summary            `json:"summary"`
	Signature    *WireBlob                 `json:"signature,omitempty"`
	Attachments  []WireBlob                `json:"attachments,omitempty"`
	CreatedAt    *time.Time                `json:"created_at,omitempty"`
	LastModified *time.Time                `json:"last_modified,omitempty"`
}

// Encode builds the wire representation of record. The source record is never
// mutated: the payload test points are copied and every binary blob is
// re-encoded into a fresh string.
func Encode(record models.CalibrationRecord) WireRecord {
	payload := record.Payload
	payload.TestPoints = append([]models.TestPoint(nil), record.Payload.TestPoints...)

	wire := WireRecord{
		LocalID:      record.LocalID,
		ServerID:     record.ServerID,
		Payload:      payload,
		Summary:      record.Summary,
		CreatedAt:    record.CreatedAt,
		LastModified: record.LastModified,
	}

	if record.Signature != nil {
		blob := encodeBlob(*record.Signature)
		wire.Signature = &blob
	}

	for _, att := range record.Attachments {
		wire.Attachments = append(wire.Attachments, encodeBlob(att))
	}

	return wire
}

// Decode reverses Encode for the import path. The summary is rebuilt from the
// decoded test points rather than trusted from the wire.
func Decode(wire WireRecord) (models.CalibrationRecord, error) {
	record := models.CalibrationRecord{
		LocalID:      wire.LocalID,
		ServerID:     wire.ServerID,
		Payload:      wire.Payload,
		CreatedAt:    wire.CreatedAt,
		LastModified: wire.LastModified,
	}

	if wire.Signature != nil {
		sig, err := decodeBlob(*wire.Signature)
		if err != nil {
			return models.CalibrationRecord{}, fmt.Errorf("decode signature: %w", err)
		}
		record.Signature = &sig
	}

	for _, blob := range wire.Attachments {
		att, err := decodeBlob(blob)
		if err != nil {
			return models.CalibrationRecord{}, fmt.Errorf("decode attachment %q: %w", blob.Name, err)
		}
		record.Attachments = append(record.Attachments, att)
	}

	record.RecomputeSummary()

	return record, nil
}

func encodeBlob(att models.Attachment) WireBlob {
	return WireBlob{
		Name: att.Name,
		MIME: att.MIME,
		Data: base64.StdEncoding.EncodeToString(att.Data),
	}
}

func decodeBlob(blob WireBlob) (models.Attachment, error) {
	data, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("invalid base64 data: %w", err)
	}

	return models.Attachment{
		Name: blob.Name,
		MIME: blob.MIME,
		Data: data,
	}, nil
}
