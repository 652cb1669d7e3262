package faults

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigError reports a missing or malformed startup input: the boundary file,
// the product catalog, an environment value or an inconsistent chart mapping.
// It is always fatal and raised before any remote call is made.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error (%s): %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ExternalServiceError wraps a failed call to the remote geospatial API together
// with the parameters of the request that triggered it.
type ExternalServiceError struct {
	Operation string
	Params    map[string]string
	Auth      bool
	Err       error
}

func (e *ExternalServiceError) Error() string {
	kind := "external service error"
	if e.Auth {
		kind = "external service authentication error"
	}
	return fmt.Sprintf("%s: %s [%s]: %v", kind, e.Operation, formatParams(e.Params), e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ExportError reports a failed raster export. Nothing consumes the exported
// raster, so callers log it and carry on.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// PersistenceError reports a failure writing or reading a persisted table.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " ")
}
