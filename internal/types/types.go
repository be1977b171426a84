// Package types defines core data types and the error taxonomy shared by the PDF translator.
package types

import (
	"errors"
	"strconv"
)

// Config is the application configuration.
type Config struct {
	OpenAIAPIKey  string `json:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL string `json:"openai_base_url" yaml:"openai_base_url"` // base URL of an OpenAI-compatible API
	OpenAIModel   string `json:"openai_model" yaml:"openai_model"`

	// ChunkSize is the backend size limit in characters; texts at or under it are translated in one call.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`
	// RecoveryChunkSize is the limit used when re-splitting a failed chunk.
	RecoveryChunkSize int `json:"recovery_chunk_size" yaml:"recovery_chunk_size"`
	// Concurrency bounds the number of chunk translations in flight.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
	// CallTimeoutSeconds is the per-call timeout for the translation backend.
	CallTimeoutSeconds int `json:"call_timeout_seconds" yaml:"call_timeout_seconds"`
	// MaxRetries is the number of attempts for retryable backend errors.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
	// Placeholder replaces sections that could not be translated.
	Placeholder string `json:"placeholder" yaml:"placeholder"`

	FontDirectory    string `json:"font_directory" yaml:"font_directory"`
	FontProfilesFile string `json:"font_profiles_file" yaml:"font_profiles_file"`
	CachePath        string `json:"cache_path" yaml:"cache_path"`

	LogFile       string `json:"log_file" yaml:"log_file"`
	LogLevel      string `json:"log_level" yaml:"log_level"`
	LogToConsole  bool   `json:"log_to_console" yaml:"log_to_console"`
	WorkDirectory string `json:"work_directory" yaml:"work_directory"`
}

// ErrorCode classifies an AppError.
type ErrorCode string

const (
	// ErrExtraction: the source could not be parsed or holds no readable text. Fatal, not retried.
	ErrExtraction ErrorCode = "EXTRACTION_ERROR"
	// ErrTranslationFatal: the backend was unreachable for a single-shot request, or every chunk failed.
	ErrTranslationFatal ErrorCode = "TRANSLATION_FATAL"
	// ErrTranslationChunk: one chunk failed. Recovered locally, never surfaced by the pipeline.
	ErrTranslationChunk ErrorCode = "TRANSLATION_CHUNK"
	// ErrFontLoad: a font resource could not be loaded. Recovered by fallback, never surfaced.
	ErrFontLoad ErrorCode = "FONT_LOAD_ERROR"
	// ErrRender: the output stream could not be produced.
	ErrRender       ErrorCode = "RENDER_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrCancelled    ErrorCode = "CANCELLED"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is an error with a code callers can branch on.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Reason returns the short user-facing reason for the failure.
func (e *AppError) Reason() string {
	return e.Message
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// NewExtractionError reports an unreadable or empty source document.
func NewExtractionError(reason string, cause error) *AppError {
	return NewAppError(ErrExtraction, reason, cause)
}

// NewTranslationFatalError reports a translation that produced nothing usable.
func NewTranslationFatalError(reason string, cause error) *AppError {
	return NewAppError(ErrTranslationFatal, reason, cause)
}

// NewTranslationChunkError reports a single failed chunk.
func NewTranslationChunkError(index int, cause error) *AppError {
	return &AppError{
		Code:    ErrTranslationChunk,
		Message: "chunk translation failed",
		Details: "chunk " + strconv.Itoa(index),
		Cause:   cause,
	}
}

// NewFontLoadError reports a font resource that could not be used.
func NewFontLoadError(path string, cause error) *AppError {
	return NewAppErrorWithDetails(ErrFontLoad, "font could not be loaded", path, cause)
}

// NewRenderError reports an unrecoverable output failure.
func NewRenderError(reason string, cause error) *AppError {
	return NewAppError(ErrRender, reason, cause)
}

// CodeOf returns the error code carried by err, or "" when err is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err (or anything it wraps) is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ProcessPhase is a step of document processing.
type ProcessPhase string

const (
	PhaseIdle        ProcessPhase = "idle"
	PhaseExtracting  ProcessPhase = "extracting"
	PhaseTranslating ProcessPhase = "translating"
	PhaseRendering   ProcessPhase = "rendering"
	PhaseComplete    ProcessPhase = "complete"
	PhaseError       ProcessPhase = "error"
)

// Status is the processing state reported to status callbacks.
type Status struct {
	Phase    ProcessPhase `json:"phase"`
	Progress int          `json:"progress"` // 0-100
	Message  string       `json:"message"`
	Error    string       `json:"error,omitempty"`
}
