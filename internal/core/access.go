package core

import (
	"context"
	"fmt"
	"plantary/pkg/domain"
	"regexp"
)

type callerKey struct{}

type depositKey struct{}

// WithCaller attaches the invoking account to ctx. Permission checks only ever
// read the caller from here, never from operation parameters.
func WithCaller(ctx context.Context, caller domain.AccountID) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the invoking account attached to ctx.
func CallerFrom(ctx context.Context) (domain.AccountID, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.AccountID)
	return caller, ok && caller != ""
}

// WithAttachedDeposit records the value attached to the call.
func WithAttachedDeposit(ctx context.Context, amount domain.Balance) context.Context {
	return context.WithValue(ctx, depositKey{}, amount)
}

// AttachedDeposit returns the value attached to the call, zero when absent.
func AttachedDeposit(ctx context.Context) domain.Balance {
	amount, _ := ctx.Value(depositKey{}).(domain.Balance)
	return amount
}

func requireCaller(ctx context.Context) (domain.AccountID, error) {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return "", fmt.Errorf("%w: no caller identity", domain.ErrPermissionDenied)
	}
	return caller, nil
}

// AccessList is the configured owner plus the named collaborators allowed to
// run admin operations.
type AccessList struct {
	owner         domain.AccountID
	collaborators []domain.AccountID
}

// NewAccessList builds an allowlist. Empty collaborator entries are ignored.
func NewAccessList(owner domain.AccountID, collaborators ...domain.AccountID) AccessList {
	list := AccessList{owner: owner}
	for _, c := range collaborators {
		if c != "" {
			list.collaborators = append(list.collaborators, c)
		}
	}
	return list
}

// Owner returns the configured owner identity.
func (l AccessList) Owner() domain.AccountID { return l.owner }

// Collaborators returns a copy of the collaborator list.
func (l AccessList) Collaborators() []domain.AccountID {
	return append([]domain.AccountID(nil), l.collaborators...)
}

// Contains reports whether id is the owner or a collaborator.
func (l AccessList) Contains(id domain.AccountID) bool {
	if id == "" {
		return false
	}
	if id == l.owner {
		return true
	}
	for _, c := range l.collaborators {
		if c == id {
			return true
		}
	}
	return false
}

// Validate checks every configured identity with ValidateAccountID.
func (l AccessList) Validate() error {
	if err := ValidateAccountID(l.owner); err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	for _, c := range l.collaborators {
		if err := ValidateAccountID(c); err != nil {
			return fmt.Errorf("collaborator: %w", err)
		}
	}
	return nil
}

var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

const (
	minAccountIDLen = 2
	maxAccountIDLen = 64
)

// ValidateAccountID applies the account naming rules: 2 to 64 lowercase
// alphanumerics, with '-', '_' and '.' allowed only between alphanumerics.
// It runs when configuration is loaded, not per call.
func ValidateAccountID(id domain.AccountID) error {
	n := len(id)
	if n < minAccountIDLen || n > maxAccountIDLen {
		return fmt.Errorf("%w: %q must be %d-%d characters", domain.ErrInvalidAccount, string(id), minAccountIDLen, maxAccountIDLen)
	}
	if !accountIDPattern.MatchString(string(id)) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAccount, string(id))
	}
	return nil
}

// AssertAdmin fails with ErrPermissionDenied unless the caller in ctx is on
// the admin allowlist.
func (s *Service) AssertAdmin(ctx context.Context) error {
	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}
	if !s.admins.Contains(caller) {
		return fmt.Errorf("%w: %s is not an admin", domain.ErrPermissionDenied, caller)
	}
	return nil
}
