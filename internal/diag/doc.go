// Package diag defines the diagnostic model and the stage error taxonomy shared by
// the scanner, the feature detector, the rewriters, the host compiler and the module loader.
//
// # Errors
//
// Every stage failure is one of four error types: LexError, UnknownFeatureError,
// SyntaxRewriteError and HostCompileError. All of them carry the originating Stage,
// the position in the original module source (already mapped back through every
// rewrite) and, when a feature produced the failure, the feature name. Callers inspect
// them with errors.As; the Stage interface gives uniform access.
//
// # Diagnostics
//
// Diagnostic is the rendered-agnostic record collected in a Bag. Producers report
// through the Reporter interface; FromError converts stage errors into diagnostics so
// the CLI can print load failures and lexer findings through the same path.
//
// Package diag does not perform any formatting or IO. Rendering lives in internal/diagfmt.
package diag
