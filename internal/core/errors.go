// Package core defines the fundamental types and errors for Stillpoint.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session already ended")

	// Assessment errors
	ErrInvalidStage     = errors.New("invalid stage in state table")
	ErrExtractionFailed = errors.New("field extraction failed")
	ErrEmptyUtterance   = errors.New("empty utterance")

	// Storage errors
	ErrRecordNotFound  = errors.New("record not found")
	ErrMigrationFailed = errors.New("migration failed")

	// Vault errors
	ErrVaultSealed        = errors.New("vault is sealed")
	ErrWrongPassphrase    = errors.New("wrong passphrase")
	ErrCiphertextTooShort = errors.New("ciphertext too short")

	// LLM errors
	ErrLLMUnavailable = errors.New("no language model available")
	ErrLLMTimeout     = errors.New("language model request timed out")

	// Audit errors
	ErrChainBroken = errors.New("audit chain integrity violation")

	// Configuration errors
	ErrMissingAPIKey = errors.New("missing API key")
)
