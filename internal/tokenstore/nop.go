package tokenstore

import "context"

// NopStore stands in when no persistence is available: nothing is kept and
// every read reports absent.
type NopStore struct{}

func (NopStore) Set(_ context.Context, key string, value any) error {
	_, err := encode(key, value)
	return err
}

func (NopStore) Get(context.Context, string, any) bool { return false }

func (NopStore) Remove(context.Context, string) {}

func (NopStore) Clear(context.Context) {}
