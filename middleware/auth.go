package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/bracket-manager/models"
)

type contextKey string

const accountContextKey contextKey = "account"

// TokenCookieName is the cookie the HTML pages carry the JWT in.
const TokenCookieName = "token"

// Authenticator кладёт в контекст запроса аккаунт, восстановленный из JWT.
// Запросы без токена получают анонимный аккаунт.
type Authenticator struct {
	secret    []byte
	anonymous models.Account
	logger    *slog.Logger
}

func NewAuthenticator(secret string, anonymousCanView bool, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	anonymous := models.AnonymousAccount()
	if anonymousCanView {
		anonymous = models.AnonymousAccount(models.PermView)
	}
	return &Authenticator{secret: []byte(secret), anonymous: anonymous, logger: logger}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := a.anonymous

		if header := r.Header.Get("Authorization"); header != "" {
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				errorJSON(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}
			parsed, err := a.accountFromToken(tokenString)
			if err != nil {
				a.logger.WarnContext(r.Context(), "rejected bearer token", slog.Any("error", err))
				errorJSON(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			account = parsed
		} else if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
			// Просроченная cookie не ошибка: страница откроется анонимно.
			if parsed, err := a.accountFromToken(cookie.Value); err == nil {
				account = parsed
			} else {
				a.logger.DebugContext(r.Context(), "ignored token cookie", slog.Any("error", err))
			}
		}

		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
	})
}

func (a *Authenticator) accountFromToken(tokenString string) (models.Account, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return models.Account{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Account{}, errors.New("invalid token claims")
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return models.Account{}, err
	}
	role, err := roleFromClaims(claims)
	if err != nil {
		return models.Account{}, err
	}
	return models.NewAccount(userID, role), nil
}

// RequireAuthenticated rejects anonymous requests.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !AccountFromContext(r.Context()).IsAuthenticated() {
			errorJSON(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithAccount(ctx context.Context, account models.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

// AccountFromContext returns the request's account, or an anonymous account
// without permissions when none was set.
func AccountFromContext(ctx context.Context) models.Account {
	account, ok := ctx.Value(accountContextKey).(models.Account)
	if !ok {
		return models.AnonymousAccount()
	}
	return account
}
