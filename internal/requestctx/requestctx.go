// Package requestctx carries the facts the middleware chain establishes
// about a request.
package requestctx

import "context"

type Info struct {
	RequestID string
	// NewClient is set when the request carried no valid client cookie and
	// its client ID was minted on the spot.
	NewClient bool
}

type infoKey struct{}

func From(ctx context.Context) Info {
	info, _ := ctx.Value(infoKey{}).(Info)
	return info
}

func with(ctx context.Context, fn func(*Info)) context.Context {
	info := From(ctx)
	fn(&info)
	return context.WithValue(ctx, infoKey{}, info)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, func(info *Info) { info.RequestID = requestID })
}

func MarkNewClient(ctx context.Context) context.Context {
	return with(ctx, func(info *Info) { info.NewClient = true })
}

func RequestID(ctx context.Context) string {
	return From(ctx).RequestID
}

func IsNewClient(ctx context.Context) bool {
	return From(ctx).NewClient
}
