package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrVoucherNotFound        = errors.New("voucher not found")
	ErrVoucherExists          = errors.New("voucher id already exists")
	ErrVoucherFetchFailed     = errors.New("voucher fetch failed")
	ErrVoucherSaveFailed      = errors.New("voucher save failed")
	ErrVoucherDeleteFailed    = errors.New("voucher delete failed")
	ErrRedemptionIndexInvalid = errors.New("redemption index invalid")
	ErrConfirmationNotFound   = errors.New("confirmation not found or expired")
	ErrConfirmationMismatch   = errors.New("confirmation belongs to another action")
	ErrConfirmationStale      = errors.New("confirmation target changed")
	ErrNoOpenDraft            = errors.New("no open draft")
	ErrDraftClosed            = errors.New("draft already closed")
	ErrEditorStateLoadFailed  = errors.New("editor state load failed")
	ErrEditorStateSaveFailed  = errors.New("editor state save failed")
	ErrLocationNotFound       = errors.New("location not found")
	ErrLocationStorageFailed  = errors.New("location storage failed")
	ErrExportFormatInvalid    = errors.New("export format invalid")
	ErrExportFailed           = errors.New("export failed")
)

// 校验提示文案
const (
	MessageRedemptionRequired = "Bitte Filmtitel, Datum und Uhrzeit ausfüllen"
	MessageAttendeeMinimum    = "Anzahl Personen muss mindestens 1 sein"
	MessageDateInvalid        = "Ungültiges Datum (erwartet JJJJ-MM-TT)"
	MessageTimeInvalid        = "Ungültige Uhrzeit (erwartet HH:MM)"
	MessageExpirationRequired = "Bitte Ablaufdatum angeben"
	MessageUsageLimitMinimum  = "Maximale Nutzungen muss mindestens 1 sein"
	MessageUsageCountNegative = "Anzahl Nutzungen darf nicht negativ sein"
	MessageStatusInvalid      = "Unbekannter Status"
)

// ValidationError 输入校验失败，Message 为面向用户的提示
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
