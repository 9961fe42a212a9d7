package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/naydelinzavala7/back-login-mongo/internal/account"
	"github.com/naydelinzavala7/back-login-mongo/internal/auth"
	"github.com/naydelinzavala7/back-login-mongo/internal/domain/user"
	"github.com/naydelinzavala7/back-login-mongo/internal/http/middlewares"
)

const AuthTokenHeader = "auth-token"

type AccountService interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, error)
	Login(ctx context.Context, req user.LoginRequest) (string, error)
	List(ctx context.Context) ([]user.User, error)
	Get(ctx context.Context, id string) (user.User, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, req user.UpdateRequest) (user.User, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, claims *auth.Claims) error
}

// ResultObserver counts operation outcomes; observability.Prom satisfies it.
type ResultObserver interface {
	ObserveResult(op, result string)
}

type AccountsHandler struct {
	accounts AccountService
	tokens   TokenRevoker
	results  ResultObserver
	log      *slog.Logger
}

func NewAccountsHandler(accounts AccountService, tokens TokenRevoker, results ResultObserver, log *slog.Logger) *AccountsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AccountsHandler{accounts: accounts, tokens: tokens, results: results, log: log}
}

func (h *AccountsHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !h.bind(ctx, "register", &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.accounts.Register(cctx, req)
	h.observe("register", err)

	if err != nil {
		switch account.Kind(err) {
		case account.KindConflict:
			RespondConflict(ctx, "email_taken", "email already exists")
		default:
			h.logBackend(ctx, "register", err)
			RespondInternal(ctx, "could not save")
		}
		return
	}

	RespondOK(ctx, u)
}

func (h *AccountsHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !h.bind(ctx, "login", &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	token, err := h.accounts.Login(cctx, req)
	h.observe("login", err)

	if err != nil {
		switch account.Kind(err) {
		case account.KindNotFound:
			RespondKind(ctx, err, "email not found")
		case account.KindUnauthorized:
			RespondKind(ctx, err, "passwords do not match")
		default:
			h.logBackend(ctx, "login", err)
			RespondInternal(ctx, "could not log in")
		}
		return
	}

	ctx.Header(AuthTokenHeader, token)
	RespondOK(ctx, gin.H{"token": token})
}

func (h *AccountsHandler) List(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	users, err := h.accounts.List(cctx)
	h.observe("list", err)

	if err != nil {
		h.logBackend(ctx, "list", err)
		RespondInternal(ctx, "no users")
		return
	}

	// data stays present as [] when there are no users
	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"error": nil, "data": users})
}

func (h *AccountsHandler) Delete(ctx *gin.Context) {
	var req user.DeleteRequest

	if !h.bind(ctx, "delete", &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.accounts.Delete(cctx, req.ID)
	h.observe("delete", err)

	if err != nil {
		switch account.Kind(err) {
		case account.KindNotFound:
			RespondNotFound(ctx, "user not found")
		default:
			h.logBackend(ctx, "delete", err)
			RespondInternal(ctx, "could not delete")
		}
		return
	}

	RespondOK(ctx, "deleted")
}

func (h *AccountsHandler) Update(ctx *gin.Context) {
	var req user.UpdateRequest

	if !h.bind(ctx, "update", &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.accounts.Update(cctx, req)
	h.observe("update", err)

	if err != nil {
		switch account.Kind(err) {
		case account.KindNotFound:
			RespondNotFound(ctx, "user does not exist")
		default:
			h.logBackend(ctx, "update", err)
			RespondInternal(ctx, "could not update")
		}
		return
	}

	RespondOK(ctx, u)
}

// Me returns the record of the caller identified by the bearer token.
func (h *AccountsHandler) Me(ctx *gin.Context) {
	claims, ok := middlewares.ClaimsFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "missing identity")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.accounts.Get(cctx, claims.ID)
	if err != nil {
		if account.Kind(err) == account.KindNotFound {
			RespondNotFound(ctx, "user does not exist")
			return
		}
		h.logBackend(ctx, "me", err)
		RespondInternal(ctx, "could not load user")
		return
	}

	RespondOK(ctx, u)
}

func (h *AccountsHandler) Logout(ctx *gin.Context) {
	claims, ok := middlewares.ClaimsFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "missing identity")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.tokens.Revoke(cctx, claims); err != nil {
		h.logBackend(ctx, "logout", err)
		RespondInternal(ctx, "could not log out")
		return
	}

	RespondOK(ctx, "logged out")
}

func (h *AccountsHandler) bind(ctx *gin.Context, op string, out interface{}) bool {
	if BindJSON(ctx, out) {
		return true
	}
	if h.results != nil {
		h.results.ObserveResult(op, string(account.KindValidation))
	}
	return false
}

func (h *AccountsHandler) observe(op string, err error) {
	if h.results == nil {
		return
	}

	result := string(account.Kind(err))
	if result == "" {
		result = "ok"
	}
	h.results.ObserveResult(op, result)
}

func (h *AccountsHandler) logBackend(ctx *gin.Context, op string, err error) {
	h.log.ErrorContext(ctx.Request.Context(), "account operation failed",
		"op", op,
		"err", err,
		"request_id", requestIDFrom(ctx),
	)
}
