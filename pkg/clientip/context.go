package clientip

import "context"

// clientIPContextKey is the key for storing client IP in context
type clientIPContextKey struct{}

// SetIPToContext stores client IP in context
func SetIPToContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// GetIPFromContext retrieves client IP from context
func GetIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// FromContext retrieves client IP from context along with a found flag, in
// the shape audit-logger extractors expect.
func FromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPContextKey{}).(string)
	return ip, ok && ip != ""
}

// CoarseFromContext retrieves the client IP from context reduced to its
// network-level origin. This is the extractor audit trails should use, so
// events record the /24 or /48 rather than a precise address.
func CoarseFromContext(ctx context.Context) (string, bool) {
	ip, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	origin := Coarse(ip)
	return origin, origin != ""
}
