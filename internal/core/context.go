package core

import "context"

type clientKey struct{}

// Client identifies who issued a mutation. The HTTP adapter fills it from the
// request; the terminal front end leaves it empty.
type Client struct {
	IP        string
	UserAgent string
}

// WithClient attaches c to ctx for mutation logs.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFrom returns the client attached to ctx, if any.
func ClientFrom(ctx context.Context) (Client, bool) {
	c, ok := ctx.Value(clientKey{}).(Client)
	return c, ok
}

// clientFields returns the non-empty client attributes as slog pairs.
func clientFields(ctx context.Context) []any {
	c, ok := ClientFrom(ctx)
	if !ok {
		return nil
	}
	var fields []any
	if c.IP != "" {
		fields = append(fields, "client_ip", c.IP)
	}
	if c.UserAgent != "" {
		fields = append(fields, "user_agent", c.UserAgent)
	}
	return fields
}
