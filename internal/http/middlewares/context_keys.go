package middlewares

// gin context keys set by this package.
const (
	CtxRequestID = "request_id"
	ctxUserIDKey = "auth.userID"
)
