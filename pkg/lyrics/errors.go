package lyrics

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrConcurrentRequest = errors.New("a request is already in progress")
	ErrConfiguration     = errors.New("configuration error")
	ErrUpstream          = errors.New("upstream error")
	ErrEmptyResponse     = errors.New("empty response")
	ErrSuperseded        = errors.New("response superseded")
	ErrExport            = errors.New("export failed")
	ErrClipboard         = errors.New("clipboard error")
)
