package domain

import "errors"

var (
	// ErrParse means the document could not be read or contained no text.
	// Not retryable without a different document.
	ErrParse = errors.New("document unreadable or empty")

	// ErrBackendUnavailable means the embedding or model backend could not be
	// reached. Retryable once connectivity or configuration is fixed.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMissingCredential means no API key was available. Surfaced before any
	// backend call is attempted.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrKnowledgeBaseNotReady means a retrieval operation was attempted
	// without a live index. Recoverable by re-running ingestion.
	ErrKnowledgeBaseNotReady = errors.New("knowledge base not ready")

	// ErrUnknownThread means an operation referenced a thread id absent from
	// the store. A caller bug, not a user-facing retry.
	ErrUnknownThread = errors.New("unknown thread")
)
