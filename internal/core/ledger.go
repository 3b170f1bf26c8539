package core

import (
	"context"
	"fmt"
	"plantary/pkg/domain"
)

// MintToken records owner for a token id directly. Admin only; veggie minting
// goes through MintPlant and Harvest instead.
func (s *Service) MintToken(ctx context.Context, owner domain.AccountID, id domain.TokenID) (domain.Result, error) {
	return s.run(ctx, "mint_token", func(tx domain.Transaction) (string, error) {
		if err := s.AssertAdmin(ctx); err != nil {
			return "", err
		}
		if id == domain.NoParent {
			return "", fmt.Errorf("%w: token id 0 is reserved", domain.ErrInvalidType)
		}
		if err := requireAccount(owner); err != nil {
			return "", err
		}
		return domain.FormatID(uint64(id)), tx.MintToken(owner, id)
	})
}

// Transfer moves a token owned by the caller to newOwner.
func (s *Service) Transfer(ctx context.Context, newOwner domain.AccountID, id domain.TokenID) (domain.Result, error) {
	return s.run(ctx, "transfer", func(tx domain.Transaction) (string, error) {
		caller, err := requireCaller(ctx)
		if err != nil {
			return "", err
		}
		if err := requireAccount(newOwner); err != nil {
			return "", err
		}
		owner, ok := tx.TokenOwner(id)
		if !ok {
			return "", domain.TokenNotFound(id)
		}
		if owner != caller {
			return "", fmt.Errorf("%w: %s does not own token %d", domain.ErrPermissionDenied, caller, id)
		}
		return domain.FormatID(uint64(id)), tx.SetTokenOwner(id, newOwner)
	})
}

// TransferFrom moves a token from owner to newOwner on behalf of the caller,
// who must be the owner or one of the owner's delegates.
func (s *Service) TransferFrom(ctx context.Context, owner, newOwner domain.AccountID, id domain.TokenID) (domain.Result, error) {
	return s.run(ctx, "transfer_from", func(tx domain.Transaction) (string, error) {
		caller, err := requireCaller(ctx)
		if err != nil {
			return "", err
		}
		if err := requireAccount(newOwner); err != nil {
			return "", err
		}
		current, ok := tx.TokenOwner(id)
		if !ok {
			return "", domain.TokenNotFound(id)
		}
		if current != owner {
			return "", fmt.Errorf("%w: token %d is not owned by %s", domain.ErrPermissionDenied, id, owner)
		}
		if caller != owner && !tx.HasAccess(domain.HashAccount(owner), domain.HashAccount(caller)) {
			return "", fmt.Errorf("%w: %s has no access to %s", domain.ErrPermissionDenied, caller, owner)
		}
		return domain.FormatID(uint64(id)), tx.SetTokenOwner(id, newOwner)
	})
}

// GrantAccess lets delegate move the caller's tokens. Granting twice is a no-op.
func (s *Service) GrantAccess(ctx context.Context, delegate domain.AccountID) (domain.Result, error) {
	return s.run(ctx, "grant_access", func(tx domain.Transaction) (string, error) {
		caller, err := requireCaller(ctx)
		if err != nil {
			return "", err
		}
		delegateHash := domain.HashAccount(delegate)
		tx.GrantAccess(domain.HashAccount(caller), delegateHash)
		return delegateHash.String(), nil
	})
}

// RevokeAccess withdraws a grant made by the caller. Fails with ErrNotFound
// when the grant does not exist.
func (s *Service) RevokeAccess(ctx context.Context, delegate domain.AccountID) (domain.Result, error) {
	return s.run(ctx, "revoke_access", func(tx domain.Transaction) (string, error) {
		caller, err := requireCaller(ctx)
		if err != nil {
			return "", err
		}
		delegateHash := domain.HashAccount(delegate)
		return delegateHash.String(), tx.RevokeAccess(domain.HashAccount(caller), delegateHash)
	})
}

// OwnerOf returns the owner of a token.
func (s *Service) OwnerOf(ctx context.Context, id domain.TokenID) (domain.AccountID, error) {
	var (
		owner domain.AccountID
		found bool
	)
	_ = s.view(ctx, func(v domain.TransactionView) error {
		owner, found = v.TokenOwner(id)
		return nil
	})
	if !found {
		return "", domain.TokenNotFound(id)
	}
	return owner, nil
}

// CheckAccess reports whether caller may act for owner: either they are the
// same account or owner granted caller access.
func (s *Service) CheckAccess(ctx context.Context, owner, caller domain.AccountID) bool {
	if owner == caller {
		return true
	}
	var allowed bool
	_ = s.view(ctx, func(v domain.TransactionView) error {
		allowed = v.HasAccess(domain.HashAccount(owner), domain.HashAccount(caller))
		return nil
	})
	return allowed
}

// GetVeggie returns a veggie by token id.
func (s *Service) GetVeggie(ctx context.Context, id domain.TokenID) (domain.Veggie, error) {
	var (
		veggie domain.Veggie
		found  bool
	)
	_ = s.view(ctx, func(v domain.TransactionView) error {
		veggie, found = v.FindVeggie(id)
		return nil
	})
	if !found {
		return domain.Veggie{}, domain.VeggieNotFound(id)
	}
	return veggie, nil
}

// DeleteVeggie removes a veggie and its ownership record together. Admin
// only; a plant that harvests still reference cannot be deleted.
func (s *Service) DeleteVeggie(ctx context.Context, id domain.TokenID) (domain.Result, error) {
	return s.run(ctx, "delete_veggie", func(tx domain.Transaction) (string, error) {
		if err := s.AssertAdmin(ctx); err != nil {
			return "", err
		}
		return domain.FormatID(uint64(id)), tx.DeleteVeggie(id)
	})
}

// requireAccount rejects the empty account, which no caller can ever act as.
func requireAccount(id domain.AccountID) error {
	if id == "" {
		return fmt.Errorf("%w: empty account", domain.ErrInvalidAccount)
	}
	return nil
}
