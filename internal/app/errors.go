package app

import (
	"errors"
	"fmt"

	"github.com/kinogutschein/internal/service"
)

// 退出码
const (
	ExitOK           = 0
	ExitCommandError = 1
	ExitUsageError   = 2
)

// CommandError 统一错误包装，Code 为进程退出码
type CommandError struct {
	Code    int
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *CommandError {
	return &CommandError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func usageErrorf(format string, args ...interface{}) *CommandError {
	return WrapError(ExitUsageError, fmt.Sprintf(format, args...), nil)
}

// mappedCommandError 定义业务错误到命令行提示的映射关系。
type mappedCommandError struct {
	target  error
	message string
}

var commandErrorRules = []mappedCommandError{
	{target: service.ErrVoucherNotFound, message: "Gutschein nicht gefunden"},
	{target: service.ErrVoucherExists, message: "Ein Gutschein mit dieser ID existiert bereits"},
	{target: service.ErrVoucherFetchFailed, message: "Gutscheine konnten nicht geladen werden"},
	{target: service.ErrVoucherSaveFailed, message: "Gutschein konnte nicht gespeichert werden"},
	{target: service.ErrVoucherDeleteFailed, message: "Gutschein konnte nicht gelöscht werden"},
	{target: service.ErrRedemptionIndexInvalid, message: "Keine Einlösung mit dieser Nummer"},
	{target: service.ErrConfirmationNotFound, message: "Bestätigung abgelaufen, bitte erneut versuchen"},
	{target: service.ErrConfirmationMismatch, message: "Bestätigung gehört zu einer anderen Aktion"},
	{target: service.ErrConfirmationStale, message: "Der Entwurf hat sich geändert, bitte erneut versuchen"},
	{target: service.ErrNoOpenDraft, message: "Kein offener Entwurf (zuerst „edit new“ oder „edit start <id>“)"},
	{target: service.ErrDraftClosed, message: "Der Entwurf ist bereits geschlossen"},
	{target: service.ErrEditorStateLoadFailed, message: "Entwurf konnte nicht geladen werden"},
	{target: service.ErrEditorStateSaveFailed, message: "Entwurf konnte nicht gespeichert werden"},
	{target: service.ErrLocationNotFound, message: "Kino nicht gefunden"},
	{target: service.ErrLocationStorageFailed, message: "Kinoliste konnte nicht gespeichert werden"},
	{target: service.ErrExportFormatInvalid, message: "Unbekanntes Exportformat (csv, txt, xlsx, pdf)"},
	{target: service.ErrExportFailed, message: "Export fehlgeschlagen"},
}

// mapCommandError 将业务错误转换为带退出码的命令错误
func mapCommandError(err error) *CommandError {
	if err == nil {
		return nil
	}
	var commandErr *CommandError
	if errors.As(err, &commandErr) {
		return commandErr
	}
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return WrapError(ExitCommandError, validationErr.Message, nil)
	}
	for _, rule := range commandErrorRules {
		if errors.Is(err, rule.target) {
			return WrapError(ExitCommandError, rule.message, err)
		}
	}
	return WrapError(ExitCommandError, "Unerwarteter Fehler", err)
}

// ExitCode 返回错误对应的进程退出码
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	return mapCommandError(err).Code
}
