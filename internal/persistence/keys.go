package persistence

import (
	"strings"

	"StateCache/internal/cache"
	"StateCache/internal/model"
)

// Keyspace scopes every backend key to one trader and, optionally, one
// instance of it.
type Keyspace struct {
	TraderID        model.TraderID
	InstanceID      string
	UseTraderPrefix bool
	UseInstanceID   bool
}

// NewKeyspace builds a keyspace from the cache options. Identifiers are only
// validated when the corresponding prefix is enabled.
func NewKeyspace(traderID model.TraderID, instanceID string, cfg cache.Config) (Keyspace, error) {
	ks := Keyspace{
		TraderID:        traderID,
		InstanceID:      instanceID,
		UseTraderPrefix: cfg.UseTraderPrefix,
		UseInstanceID:   cfg.UseInstanceID,
	}
	if ks.UseTraderPrefix {
		if err := model.CheckValidString(string(traderID), "trader_id"); err != nil {
			return Keyspace{}, err
		}
	}
	if ks.UseInstanceID {
		if err := model.CheckValidString(instanceID, "instance_id"); err != nil {
			return Keyspace{}, err
		}
	}
	return ks, nil
}

// Namespace returns the key prefix, e.g. "trader-TESTER-001:5f1c...:".
// It is empty when both prefixes are disabled.
func (k Keyspace) Namespace() string {
	parts := make([]string, 0, 2)
	if k.UseTraderPrefix {
		parts = append(parts, "trader-"+string(k.TraderID))
	}
	if k.UseInstanceID {
		parts = append(parts, k.InstanceID)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ":") + ":"
}

// Key returns the fully qualified key for a category hash or entry.
func (k Keyspace) Key(cat Category) string {
	return k.Namespace() + string(cat)
}
