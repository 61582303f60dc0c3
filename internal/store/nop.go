package store

import "context"

// NopEventRepo discards events. Used when no database is attached
// (tests, dry runs).
type NopEventRepo struct{}

func (NopEventRepo) AppendLLMRequest(context.Context, LLMRequestEventData) error {
	return nil
}

func (NopEventRepo) QueryLLMEvents(context.Context, QueryOpts) ([]LLMRequestEvent, error) {
	return nil, nil
}
