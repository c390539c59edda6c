package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hillway/coursegate/internal/store"
)

// KV keys holding the learner identity.
const (
	learnerIDKey   = "hillway-learner-id"
	learnerNameKey = "hillway-learner-name"
)

const localPrefix = "local-"

// Identity is the learner progress is reported for.
type Identity struct {
	ID   string
	Name string
}

// IsLocal reports whether the identity was minted offline. Local learners
// are never reported to the backend.
func (i Identity) IsLocal() bool {
	return i.ID == "" || strings.HasPrefix(i.ID, localPrefix)
}

// LoadIdentity reads the stored identity. ok is false unless both the id
// and the name are present.
func LoadIdentity(ctx context.Context, kv store.KV) (Identity, bool, error) {
	id, okID, err := kv.Get(ctx, learnerIDKey)
	if err != nil {
		return Identity{}, false, fmt.Errorf("load learner id: %w", err)
	}
	name, okName, err := kv.Get(ctx, learnerNameKey)
	if err != nil {
		return Identity{}, false, fmt.Errorf("load learner name: %w", err)
	}
	if !okID || !okName || len(id) == 0 || len(name) == 0 {
		return Identity{}, false, nil
	}
	return Identity{ID: string(id), Name: string(name)}, true, nil
}

// SaveIdentity stores the identity.
func SaveIdentity(ctx context.Context, kv store.KV, id Identity) error {
	if err := kv.Set(ctx, learnerIDKey, []byte(id.ID)); err != nil {
		return fmt.Errorf("save learner id: %w", err)
	}
	if err := kv.Set(ctx, learnerNameKey, []byte(id.Name)); err != nil {
		return fmt.Errorf("save learner name: %w", err)
	}
	return nil
}

// Register resolves the learner with the backend and stores the identity.
// When the backend is unavailable the learner gets a local id instead, so
// reading can continue without reporting. client may be nil.
func Register(ctx context.Context, client *Client, kv store.KV, name, email string, logger *slog.Logger) (Identity, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return Identity{}, fmt.Errorf("name and email are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var id Identity
	if client != nil {
		l, err := client.RegisterLearner(ctx, name, email)
		if err == nil {
			id = Identity{ID: l.ID, Name: l.Name}
		} else {
			logger.Warn("warning: failed to register learner", "error", err)
		}
	}
	if id.ID == "" {
		id = Identity{ID: localPrefix + uuid.NewString(), Name: name}
	}

	if err := SaveIdentity(ctx, kv, id); err != nil {
		return id, err
	}
	return id, nil
}
