package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/zepzep/zepzep-backend/api/middleware"
	"github.com/zepzep/zepzep-backend/api/responses"
	"github.com/zepzep/zepzep-backend/api/validators"
	"github.com/zepzep/zepzep-backend/internal/trustscore"
	"github.com/zepzep/zepzep-backend/internal/users"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/logger"
)

// UsersMe returns the authenticated user's profile.
func UsersMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		profile, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"user": profile})
	}
}

// TrustScore computes the score for ?user_id=, falling back to the bearer
// token's user.
func TrustScore(svc trustscore.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseOptionalUUIDQuery(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if userID == uuid.Nil {
			userID = middleware.UserIDFromContext(r.Context())
		}
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "User ID required"))
			return
		}

		result, err := svc.Compute(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, result)
	}
}
