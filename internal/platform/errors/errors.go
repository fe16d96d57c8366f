package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrUnknownProfile = errors.New("unknown profile")
)

// UnknownTargetError reports a target name that resolved to nothing.
type UnknownTargetError struct {
	Name      string
	Available []string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown domain or group %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// CooldownActiveError rejects a request while its profile is on cooldown.
type CooldownActiveError struct {
	Profile   string
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("profile %q on cooldown for another %s", e.Profile, e.Remaining.Round(time.Second))
}

// DuplicateSessionError reports that the requested domains are already
// covered. CanQueue marks active coverage where a deferred session may be
// queued behind the existing one; pending coverage is a plain duplicate.
type DuplicateSessionError struct {
	SessionID int64
	Targets   []string
	Pending   bool
	Remaining time.Duration
	CanQueue  bool
}

func (e *DuplicateSessionError) Error() string {
	state := "unblocked"
	if e.Pending {
		state = "pending"
	}
	return fmt.Sprintf("%s already %s in session %d (%s remaining)",
		strings.Join(e.Targets, ", "), state, e.SessionID, e.Remaining.Round(time.Second))
}

// ConcurrencyLimitError carries the sessions occupying the limit so the
// caller can render cancel/replace guidance.
type ConcurrencyLimitError struct {
	Limit    int
	Sessions []string
}

func (e *ConcurrencyLimitError) Error() string {
	return fmt.Sprintf("session limit reached (%d)", e.Limit)
}

type ExtendReason string

const (
	ExtendNotStarted   ExtendReason = "not started yet"
	ExtendAlreadyEnded ExtendReason = "already ended"
	ExtendWrongType    ExtendReason = "session type cannot be extended"
)

// NotExtendableError rejects an extend with the specific reason.
type NotExtendableError struct {
	SessionID int64
	Reason    ExtendReason
}

func (e *NotExtendableError) Error() string {
	return fmt.Sprintf("session %d cannot be extended: %s", e.SessionID, e.Reason)
}

// ReplaceActiveError rejects replacing a session that already started.
type ReplaceActiveError struct {
	SessionID int64
}

func (e *ReplaceActiveError) Error() string {
	return fmt.Sprintf("session %d is already active; cancel it instead of replacing", e.SessionID)
}

// StorageError wraps an I/O or transaction failure. Always surfaced, never
// swallowed; the daemon loop logs it and retries next tick.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
