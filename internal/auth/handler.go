package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/utilities"
)

// Authenticator checks an email/password pair and returns ErrBadCredentials on any mismatch.
type Authenticator interface {
	AuthenticatePassword(ctx context.Context, email, password string) (*entity.User, error)
}

// Handler exposes the login endpoint.
type Handler struct {
	users  Authenticator
	tokens *TokenManager
	logger *zap.SugaredLogger
}

func NewHandler(users Authenticator, tokens *TokenManager, logger *zap.SugaredLogger) *Handler {
	return &Handler{users: users, tokens: tokens, logger: logger}
}

// TokenResponse is the body returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login takes an OAuth2 password-flow form (username carries the email).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utilities.WriteValidationError(w, []utilities.FieldError{{Loc: []string{"body"}, Msg: "invalid form body", Type: "value_error"}})
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	var missing []utilities.FieldError
	if username == "" {
		missing = append(missing, utilities.FieldError{Loc: []string{"body", "username"}, Msg: "field required", Type: "required"})
	}
	if password == "" {
		missing = append(missing, utilities.FieldError{Loc: []string{"body", "password"}, Msg: "field required", Type: "required"})
	}
	if len(missing) > 0 {
		utilities.WriteValidationError(w, missing)
		return
	}

	u, err := h.users.AuthenticatePassword(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			h.logger.Debugw("login failed", "err", err)
			utilities.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Errorw("login", "err", err)
		utilities.WriteInternalError(w)
		return
	}

	tok, err := h.tokens.Issue(u.ID, u.Email)
	if err != nil {
		h.logger.Errorw("issue token", "user_id", u.ID, "err", err)
		utilities.WriteInternalError(w)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: tok, TokenType: "bearer"})
}
