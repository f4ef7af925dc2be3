package models

import (
	"math"
	"time"
)

// Direction of a calibration test point sweep.
const (
	DirectionRising  = "rising"
	DirectionFalling = "falling"
)

// Result values for a single test point and for the record summary.
const (
	ResultPass = "Pass"
	ResultFail = "Fail"
	ResultNA   = "N/A"
)

// CalibrationRecord is the unit of synchronisation. It is created locally when
// a technician saves a certificate form, lives in the local store until the
// server acknowledges it, and is never shared between records (signature and
// attachment bytes are owned by exactly one record).
type CalibrationRecord struct {
	// LocalID is the client-generated identifier of the record.
	// It is the primary key of the local store, unique, and immutable
	// once assigned.
	LocalID string `json:"local_id"`

	// ServerID is the identifier assigned by the server on the first
	// successful push. Nil until then.
	ServerID *string `json:"server_id,omitempty"`

	// Synced reports whether the latest local state has been acknowledged
	// by the server. Synced implies ServerID is non-nil.
	Synced bool `json:"synced"`

	// Payload holds the structured calibration data being certified.
	Payload CalibrationPayload `json:"payload"`

	// Signature is an optional captured-handwriting image.
	Signature *Attachment `json:"signature,omitempty"`

	// Attachments is an ordered list of named binary blobs.
	Attachments []Attachment `json:"attachments,omitempty"`

	// Summary carries fields derived from the test points. It is recomputed
	// whenever the points change and is never persisted on its own.
	Summary Summary `json:"summary"`

	// CreatedAt is set once when the record is first stored.
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// LastModified is refreshed on every local mutation.
	LastModified *time.Time `json:"last_modified,omitempty"`

	// SyncAt is the time of the last successful server acknowledgment.
	SyncAt *time.Time `json:"sync_at,omitempty"`
}

// CalibrationPayload is the certificate content entered by the technician.
type CalibrationPayload struct {
	CertificateNumber string `json:"certificate_number"`
	EquipmentID       string `json:"equipment_id"`
	InstrumentType    string `json:"instrument_type"`

	// FullScale is the instrument full-scale value in engineering units.
	FullScale float64 `json:"full_scale"`

	// AccuracyPercentFS is the rated accuracy as a percentage of full scale.
	// Together with FullScale it defines the test point tolerance.
	AccuracyPercentFS float64 `json:"accuracy_percent_fs"`

	Temperature float64 `json:"temperature,omitempty"`
	Humidity    float64 `json:"humidity,omitempty"`

	Technician string `json:"technician,omitempty"`

	// TestPoints are ordered as measured.
	TestPoints []TestPoint `json:"test_points"`
}

// TestPoint is a single reference/measured pair within a calibration run.
type TestPoint struct {
	Reference float64 `json:"reference"`
	Direction string  `json:"direction"`
	Measured  float64 `json:"measured"`

	// Deviation, ErrorPercent and Result are computed from the fields above
	// against the payload tolerance. They are refreshed by RecomputeSummary.
	Deviation    float64 `json:"deviation"`
	ErrorPercent float64 `json:"error_percent"`
	Result       string  `json:"result"`
}

// Attachment is a named binary blob with its MIME type.
type Attachment struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

// Summary holds the derived certificate verdict.
type Summary struct {
	// Tolerance is the allowed absolute deviation, FullScale × Accuracy%FS / 100.
	Tolerance float64 `json:"tolerance"`

	TestPointsTotal  int `json:"test_points_total"`
	TestPointsFailed int `json:"test_points_failed"`

	// Overall is ResultPass iff every point passes and at least one point
	// exists, ResultNA for an empty point list, ResultFail otherwise.
	Overall string `json:"overall"`
}

// Tolerance returns the allowed absolute deviation for this payload.
func (p *CalibrationPayload) Tolerance() float64 {
	return p.FullScale * p.AccuracyPercentFS / 100
}

// RecomputeSummary refreshes every computed test point field and the record
// summary. It must be called after any change to the payload test points;
// persisted summaries are always a product of this function.
func (r *CalibrationRecord) RecomputeSummary() {
	tolerance := r.Payload.Tolerance()

	failed := 0
	for i := range r.Payload.TestPoints {
		tp := &r.Payload.TestPoints[i]
		tp.Deviation = tp.Measured - tp.Reference
		if r.Payload.FullScale != 0 {
			tp.ErrorPercent = tp.Deviation / r.Payload.FullScale * 100
		} else {
			tp.ErrorPercent = 0
		}
		if math.Abs(tp.Deviation) <= tolerance {
			tp.Result = ResultPass
		} else {
			tp.Result = ResultFail
			failed++
		}
	}

	total := len(r.Payload.TestPoints)
	overall := ResultNA
	if total > 0 {
		if failed == 0 {
			overall = ResultPass
		} else {
			overall = ResultFail
		}
	}

	r.Summary = Summary{
		Tolerance:        tolerance,
		TestPointsTotal:  total,
		TestPointsFailed: failed,
		Overall:          overall,
	}
}

// Touch refreshes LastModified, setting CreatedAt on the first call.
func (r *CalibrationRecord) Touch(now time.Time) {
	if r.CreatedAt == nil {
		created := now
		r.CreatedAt = &created
	}
	modified := now
	r.LastModified = &modified
}

// TableName returns the name of the local database table associated with the
// CalibrationRecord model.
func (r *CalibrationRecord) TableName() string {
	return "calibration_records"
}
