package middleware

import "context"

type contextKey string

const (
	ctxSubjectID contextKey = "subject_id"
	ctxRole      contextKey = "actor_role"
	ctxEventID   contextKey = "event_id"
	ctxAccessID  contextKey = "access_id"
)

func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func SubjectIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSubjectID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func EventIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEventID).(string); ok {
		return v
	}
	return ""
}

// WithSubjectID injects the authenticated actor's identifier into the context.
func WithSubjectID(ctx context.Context, subjectID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSubjectID, subjectID)
}

// WithEventID injects the event scope into the context for downstream handlers.
func WithEventID(ctx context.Context, eventID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxEventID, eventID)
}
