package settings

import "context"

// Store is a group-scoped string key/value store.
type Store interface {
	Get(ctx context.Context, group, key string) (string, bool, error)
	Set(ctx context.Context, group, key, value string) error
	Unset(ctx context.Context, group, key string) error
	Keys(ctx context.Context, group string) ([]string, error)
}
