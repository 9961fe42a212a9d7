package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxClaims    = "auth.claims"
	CtxUserID    = "auth.userID"
)
