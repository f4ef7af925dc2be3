package service

import "errors"

// ErrSyncBusy is returned by SyncAll when a run is already in progress.
var ErrSyncBusy = errors.New("sync is already running")

// Validation errors returned by RecordService.Save. A record failing any of
// these is rejected before it can enter the store or the sync queue.
var (
	ErrValidationNoRecord              = errors.New("no record provided")
	ErrValidationCertificateNumber     = errors.New("certificate number is required")
	ErrValidationEquipmentID           = errors.New("equipment id is required")
	ErrValidationFullScaleNotPositive  = errors.New("full scale must be positive")
	ErrValidationAccuracyNotPositive   = errors.New("accuracy percent must be positive")
	ErrValidationTestPointDirection    = errors.New("test point direction must be rising or falling")
	ErrValidationSignatureEmpty        = errors.New("signature attachment has no data")
	ErrValidationAttachmentNameMissing = errors.New("attachment name is required")
)
