package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/api/shared"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/platform/logger"
)

// UserIDHeader carries the caller's user ID. The service sits behind a
// gateway that authenticates users and sets this header; it is never
// trusted from the open internet.
const UserIDHeader = "X-User-ID"

// UserIdentity reads the caller's user ID from UserIDHeader and stores it in
// the request context. Requests without a valid ID get 401, logged with an
// error wrapping domain.ErrUnauthorized.
func UserIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, UserIDHeader+" header required",
				fmt.Errorf("%w: missing %s header", domain.ErrUnauthorized, UserIDHeader))
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid user ID",
				fmt.Errorf("%w: malformed %s header", domain.ErrUnauthorized, UserIDHeader),
				shared.WithElevatedLogLevel())
			return
		}

		ctx := shared.WithUserID(r.Context(), userID)
		ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(slog.String("user_id", userID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
