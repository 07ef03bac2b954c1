package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParserUnconfigured indicates no external parser command is set
	ParserUnconfigured ErrorCode = "PARSER_UNCONFIGURED"
	// ParserSpawnFailed indicates the parser process could not be started
	ParserSpawnFailed ErrorCode = "PARSER_SPAWN_FAILED"
	// ParserIO indicates a request could not be written to the parser
	ParserIO ErrorCode = "PARSER_IO"
	// ParserTerminated indicates a request was made after shutdown
	ParserTerminated ErrorCode = "PARSER_TERMINATED"
	// ResponseInvalid indicates the parser reply was not a valid tag array
	ResponseInvalid ErrorCode = "RESPONSE_INVALID"
	// KindsInvalid indicates a malformed kind configuration clause
	KindsInvalid ErrorCode = "KINDS_INVALID"
	// TemplateInvalid indicates a malformed output or summary template
	TemplateInvalid ErrorCode = "TEMPLATE_INVALID"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InputUnreadable indicates a source file could not be opened or read
	InputUnreadable ErrorCode = "INPUT_UNREADABLE"
	// StoreFailed indicates a tag store operation failed
	StoreFailed ErrorCode = "STORE_FAILED"
	// ExportFailed indicates an export operation failed
	ExportFailed ErrorCode = "EXPORT_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// XtagsError represents an xtags error with code, message, and suggestions
type XtagsError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewXtagsError creates a new XtagsError with any predefined fixes attached
func NewXtagsError(code ErrorCode, message string, cause error) *XtagsError {
	return &XtagsError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *XtagsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *XtagsError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *XtagsError) WithDetails(details interface{}) *XtagsError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ParserUnconfigured: {
		{
			Type:        RunCommand,
			Command:     "xtags init",
			Safe:        true,
			Description: "Create a default configuration, then set parser in .xtags/config.toml",
		},
	},
	ParserSpawnFailed: {
		{
			Type:        RunCommand,
			Command:     "xtags config --show",
			Safe:        true,
			Description: "Check that the configured parser command exists and is executable",
		},
	},
	KindsInvalid: {
		{
			Type:        OpenDocs,
			URL:         "https://docs.ctags.io/en/latest/man/ctags-client-tools.7.html",
			Description: "Review the kind clause syntax: name:letter[:role[:prefix[:summary]]]",
		},
	},
	StoreFailed: {
		{
			Type:        RunCommand,
			Command:     "xtags index --force",
			Safe:        false,
			Description: "Rebuild the tag store from scratch",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
