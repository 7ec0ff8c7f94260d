package shared

import "context"

// SystemActor is recorded in the audit trail when no caller identity is known.
const SystemActor = "SYSTEM"

// Metadata carries the caller identity and tracing ids of one request.
type Metadata struct {
	Actor         string
	CorrelationID string
	RequestID     string
}

type metadataKey struct{}

// WithMetadata returns a copy of ctx carrying md.
func WithMetadata(ctx context.Context, md Metadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, md)
}

// MetadataFrom returns the metadata stored in ctx, defaulting the actor to SystemActor.
func MetadataFrom(ctx context.Context) Metadata {
	md, _ := ctx.Value(metadataKey{}).(Metadata)
	if md.Actor == "" {
		md.Actor = SystemActor
	}
	return md
}
