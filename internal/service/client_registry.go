package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/repository"
)

// secretByteLength yields a 256-bit secret once base64url-encoded, well
// past the 128-bit floor the HMAC signing key needs.
const secretByteLength = 32

// ClientRegistry owns client identity and signing-secret issuance. A
// client is created the first time it is referenced by any API call —
// there is no explicit client-creation endpoint.
type ClientRegistry struct {
	clients repository.ClientRepository
}

func NewClientRegistry(clients repository.ClientRepository) *ClientRegistry {
	return &ClientRegistry{clients: clients}
}

// FindOrCreateClient returns the client for clientID, minting one with a
// freshly generated secret if it doesn't exist yet. Insert is idempotent
// under a create race: the loser simply re-reads the winner's document.
func (r *ClientRegistry) FindOrCreateClient(ctx context.Context, clientID string) (*domain.Client, error) {
	existing, err := r.clients.FindByID(ctx, clientID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrClientNotFound) {
		return nil, fmt.Errorf("find client: %w", err)
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate client secret: %w", err)
	}

	client := &domain.Client{
		ClientID:        clientID,
		Secrets:         []domain.ClientSecret{secret},
		CreatedDateTime: time.Now().UTC(),
	}
	if err := r.clients.Insert(ctx, client); err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	return r.clients.FindByID(ctx, clientID)
}

func generateSecret() (domain.ClientSecret, error) {
	raw := make([]byte, secretByteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return domain.ClientSecret(base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(raw)), nil
}
