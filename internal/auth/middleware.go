package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/utilities"
)

// ErrUserGone is returned by a UserResolver when the token subject no longer exists.
var ErrUserGone = errors.New("token subject not found")

// UserResolver loads the current record for a token subject.
type UserResolver interface {
	ResolveUser(ctx context.Context, id int64) (*entity.User, error)
}

// RequireUser rejects requests without a valid bearer token for an existing user and
// stores the resolved user in the request context.
func RequireUser(tokens *TokenManager, users UserResolver, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				logger.Debugw("token rejected", "err", err)
				unauthorized(w)
				return
			}
			u, err := users.ResolveUser(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, ErrUserGone) {
					logger.Errorw("resolve token subject", "user_id", claims.UserID, "err", err)
					utilities.WriteInternalError(w)
					return
				}
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("bearer "):])
	return tok, tok != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	utilities.WriteError(w, http.StatusUnauthorized, "Could not validate credentials")
}
