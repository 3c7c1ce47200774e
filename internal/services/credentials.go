package services

import (
	"context"
	"sync"

	"github.com/jobdeck/jobdeck/internal/clients/gemini"
	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrNoCredentials is returned before any network call when a profile's AI
// key pool is empty.
var ErrNoCredentials = errors.New("no AI credentials configured for profile")

type profileKeyStore interface {
	UpdateActiveKeyIndex(ctx context.Context, profileID string, index int) error
}

// CredentialProvider owns a profile's AI key pool for the duration of one
// operation. Current hands out the active key; RotateAndRetry runs a call and,
// on quota exhaustion, advances the pool and retries exactly once.
type CredentialProvider struct {
	mu       sync.Mutex
	profile  *entities.Profile
	profiles profileKeyStore
}

func NewCredentialProvider(profile *entities.Profile, profiles profileKeyStore) *CredentialProvider {
	return &CredentialProvider{profile: profile, profiles: profiles}
}

func (p *CredentialProvider) Current() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key, ok := p.profile.ActiveKey()
	if !ok {
		return "", ErrNoCredentials
	}
	return key, nil
}

// Rotate advances the active key index modulo pool size. A pool of one key
// (or none) is a no-op. The new index is persisted best-effort: a failed
// write only costs the hint, not the operation.
func (p *CredentialProvider) Rotate(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.profile.AIKeys) <= 1 {
		return
	}

	p.profile.ActiveKeyIndex = (p.profile.ActiveKeyIndex + 1) % len(p.profile.AIKeys)
	log.Infof("rotated AI key for profile %v to index %d", p.profile.ID, p.profile.ActiveKeyIndex)

	if p.profiles != nil {
		if err := p.profiles.UpdateActiveKeyIndex(ctx, p.profile.ID, p.profile.ActiveKeyIndex); err != nil {
			log.Errorf("failed to persist AI key index for profile %v: %v", p.profile.ID, err)
		}
	}
}

// RotateAndRetry invokes fn with the current key. When the provider signals
// quota exhaustion the pool rotates and fn runs once more with the new key;
// any other error is returned as-is.
func (p *CredentialProvider) RotateAndRetry(ctx context.Context, fn func(apiKey string) error) error {

	key, err := p.Current()
	if err != nil {
		return err
	}

	err = fn(key)
	if err == nil || !gemini.IsQuotaError(err) {
		return err
	}

	p.Rotate(ctx)

	key, keyErr := p.Current()
	if keyErr != nil {
		return keyErr
	}
	return fn(key)
}
