package service

import (
	"context"
	"errors"
	"net/mail"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lopushok9/whatbird/core"
)

const maxDisplayNameLength = 100

// ResolveIdentity returns the identity for publicKey, creating it on first login.
// A concurrent creation for the same key is resolved by re-reading the winner.
func (s *AuthService) ResolveIdentity(ctx context.Context, chain core.Chain, publicKey string) (*core.Identity, bool, error) {
	identity, err := s.identities.FindByPublicKey(ctx, publicKey)
	if err == nil {
		return identity, false, nil
	}
	if !errors.Is(err, core.ErrIdentityNotFound) {
		return nil, false, core.Wrap(core.KindStore, "Failed to look up profile", err)
	}

	candidate := core.NewIdentity(uuid.NewString(), chain, publicKey, s.clock.Now().UTC())
	err = s.identities.InsertIfAbsent(ctx, candidate)
	switch {
	case err == nil:
		return candidate, true, nil

	case errors.Is(err, core.ErrIdentityExists):
		existing, err := s.identities.FindByPublicKey(ctx, publicKey)
		if err != nil {
			return nil, false, core.Wrap(core.KindStore, "Failed to look up profile", err)
		}
		s.logger.Debug("identity created concurrently", "public_key", publicKey, "user_id", existing.UserID)
		return existing, false, nil

	default:
		return nil, false, core.Wrap(core.KindStore, "Failed to create profile", err)
	}
}

// Profile returns the stored identity of userID
func (s *AuthService) Profile(ctx context.Context, userID string) (*core.Identity, error) {
	identity, err := s.identities.FindByID(ctx, userID)
	if errors.Is(err, core.ErrIdentityNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, core.Wrap(core.KindStore, "Failed to load profile", err)
	}
	return identity, nil
}

// UpdateProfile changes the display name and/or email of userID
func (s *AuthService) UpdateProfile(ctx context.Context, userID, displayName, email string) (*core.Identity, error) {
	if displayName == "" && email == "" {
		return nil, core.ErrEmptyProfile
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return nil, core.NewError(core.KindValidation, "Name is too long")
	}
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return nil, core.NewError(core.KindValidation, "Invalid email address")
		}
	}

	identity, err := s.identities.UpdateProfile(ctx, userID, displayName, email, s.clock.Now().UTC())
	if errors.Is(err, core.ErrIdentityNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, core.Wrap(core.KindStore, "Failed to update profile", err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return identity, nil
}
