package agent

import "context"

type sessionKeyContext struct{}

const defaultSessionKey = "default"

// WithSessionKey sets the session a request is routed to.
func WithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKeyContext{}, key)
}

// SessionKeyFromContext gets the session routing key from the context.
func SessionKeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(sessionKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok && key != ""
}

func sessionKeyOrDefault(ctx context.Context) string {
	key, ok := SessionKeyFromContext(ctx)
	if ok {
		return key
	}
	return defaultSessionKey
}
