package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice (not a map) because errors.Is() requires error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	{
		err: ErrMalformedKey,
		info: ErrorInfo{
			Message: "The signing key file is corrupt: it must hold a base64 encoded 32 byte seed.",
			Action:  "Restore signing.key from backup. Deleting it creates a new identity with a new key id.",
		},
	},
	{
		err: ErrInvalidInput,
		info: ErrorInfo{
			Message: "The input document could not be read or is not a JSON object.",
			Action:  "Check that the input file exists and contains a top-level JSON object.",
		},
	},
	{
		err: ErrSelfTestFailed,
		info: ErrorInfo{
			Message: "The signing self-test failed. No signature was produced.",
			Action:  "The Ed25519 implementation or key material is broken. Do not ship any output from this build.",
		},
	},
	{
		err: ErrMalformedInput,
		info: ErrorInfo{
			Message: "A signature or public key could not be decoded.",
			Action:  "Check that the envelope and public key files are unmodified base64.",
		},
	},
	{
		err: ErrUnknownKeyID,
		info: ErrorInfo{
			Message: "The envelope has no signature from this public key.",
			Action:  "Verify with the public key that signed the envelope.",
		},
	},
	{
		err: ErrSignatureMismatch,
		info: ErrorInfo{
			Message: "The envelope signature does not match its content.",
			Action:  "Treat the envelope as tampered and re-sign from a trusted input.",
		},
	},
	{
		err: ErrOutputLocked,
		info: ErrorInfo{
			Message: "Another process is writing the output file.",
			Action:  "Wait for the other run to finish and retry.",
		},
	},
	{
		err: ErrIOFailure,
		info: ErrorInfo{
			Message: "A file could not be read or written.",
			Action:  "Check file permissions and free disk space.",
		},
	},
	{
		err: ErrInvalidCanonicalMode,
		info: ErrorInfo{
			Message: "Unknown canonicalization mode.",
			Action:  "Use 'ordered' or 'jcs'.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format specified.",
			Action:  "Use 'text' or 'json'.",
		},
	},
}

// errorInfoMap provides O(1) lookup for unwrapped sentinel errors.
//
//nolint:gochecknoglobals // Pre-built lookup table
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve the issue.
//
// For errors that have no clear action, the action string will be empty.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
