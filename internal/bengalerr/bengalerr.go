// Package bengalerr defines the error kinds shared across the build core,
// grounded on the teacher's pkg/config/errors.go ConfigError (stable
// code + file position + remediation suggestion) and pkg/lifecycle/hooks.go
// HookError/HookErrors (per-item error collection with a severity flag).
// Every kind implements error and Unwrap so callers can use errors.As/Is.
package bengalerr

import (
	"fmt"
	"strings"
)

// Kind identifies which of spec.md §7's error categories an error belongs
// to. The kind is part of an error's stable code (e.g. "config:missing_key").
type Kind string

const (
	KindConfig    Kind = "config"
	KindDiscovery Kind = "discovery"
	KindRender    Kind = "render"
	KindAsset     Kind = "asset"
	KindCache     Kind = "cache"
)

// Error is the common shape for every typed error kind: a stable code, a
// human message, an optional remediation suggestion, an optional source
// path, and the underlying cause if any.
type Error struct {
	Kind       Kind
	Code       string // short stable identifier, e.g. "unresolvable_path"
	Path       string // file or logical path the error concerns, if any
	Message    string
	Suggestion string
	Warn       bool // true if this is a non-fatal warning rather than an error
	Cause      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Code != "" {
		sb.WriteString(":")
		sb.WriteString(e.Code)
	}
	if e.Path != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Path)
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	if e.Suggestion != "" {
		sb.WriteString(" (suggestion: ")
		sb.WriteString(e.Suggestion)
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// ConfigError reports missing/invalid required config, unresolvable paths,
// or schema violations. Per spec.md §7, a ConfigError always aborts the
// build before any output is written, so there is no Warn variant of it.
func ConfigError(code, message, suggestion string, cause error) *Error {
	return &Error{Kind: KindConfig, Code: code, Message: message, Suggestion: suggestion, Cause: cause}
}

// DiscoveryError reports an unreadable content path, unparseable
// frontmatter, or a failed remote fetch with no cache fallback. Per
// spec.md §7, a single file's DiscoveryError is logged and the file
// skipped unless strict mode is enabled, in which case it aborts the
// discovery phase.
func DiscoveryError(path, code, message, suggestion string, cause error) *Error {
	return &Error{Kind: KindDiscovery, Code: code, Path: path, Message: message, Suggestion: suggestion, Cause: cause}
}

// RenderError reports a missing template, a template evaluation failure,
// or an invalid include. Per spec.md §7, a page's RenderError is recorded
// and the page's output skipped; strict mode aborts after the phase.
func RenderError(path, code, message, suggestion string, cause error) *Error {
	return &Error{Kind: KindRender, Code: code, Path: path, Message: message, Suggestion: suggestion, Cause: cause}
}

// AssetError reports an image-processing failure, a minify failure, or a
// fingerprint collision. A missing @import target is NOT an AssetError —
// spec.md §7 says it is preserved verbatim, not an error. Minify failures
// are Warn (fall back to unminified output); image-processing failures are
// per-image Warn (log and skip).
func AssetError(path, code, message, suggestion string, warn bool, cause error) *Error {
	return &Error{Kind: KindAsset, Code: code, Path: path, Message: message, Suggestion: suggestion, Warn: warn, Cause: cause}
}

// CacheError reports a corrupt cache file (treated as absent, triggering a
// full rebuild) or a cache write failure (logged, retried next build).
// Both are always Warn — a cache problem never fails the build.
func CacheError(path, code, message string, cause error) *Error {
	return &Error{Kind: KindCache, Code: code, Path: path, Message: message, Warn: true, Cause: cause}
}

// Errors collects multiple typed errors for batch reporting, grounded on
// the teacher's ConfigErrors/HookErrors aggregation pattern.
type Errors struct {
	Items []*Error
}

func (e *Errors) Error() string {
	switch len(e.Items) {
	case 0:
		return "no errors"
	case 1:
		return e.Items[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d issues:\n", len(e.Items))
	for i, it := range e.Items {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, it.Error())
	}
	return sb.String()
}

// Add appends an error to the collection.
func (e *Errors) Add(err *Error) { e.Items = append(e.Items, err) }

// HasFatal returns true if any collected item is not a Warn.
func (e *Errors) HasFatal() bool {
	for _, it := range e.Items {
		if !it.Warn {
			return true
		}
	}
	return false
}

// CriticalInterrupt marks cancellation (context.Canceled) and process-exit
// signals. Per spec.md §7 these propagate immediately and are never
// swallowed by the per-item/per-phase recovery above — callers should
// check errors.Is(err, context.Canceled) (or os/signal's delivered signal)
// directly rather than wrapping it in *Error, so that a single stray
// errors.As(err, &bengalerr.Error{}) type switch can never accidentally
// catch and suppress it.
type CriticalInterrupt struct {
	Cause error
}

func (c *CriticalInterrupt) Error() string {
	return fmt.Sprintf("critical interrupt: %v", c.Cause)
}

func (c *CriticalInterrupt) Unwrap() error { return c.Cause }
