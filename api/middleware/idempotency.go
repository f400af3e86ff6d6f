package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/zepzep/zepzep-backend/api/responses"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/logger"
	pkgredis "github.com/zepzep/zepzep-backend/pkg/redis"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	replayedHeader        = "Idempotent-Replayed"
	defaultIdempotencyTTL = 24 * time.Hour
	pendingIdempotencyTTL = time.Minute
	maxIdempotencyKeyLen  = 128
)

// idempotentRoutes maps "METHOD pattern" to how long a response is kept.
// Patterns are chi route patterns, not raw paths.
var idempotentRoutes = map[string]time.Duration{
	http.MethodPost + " /api/v1/orders":         defaultIdempotencyTTL,
	http.MethodPost + " /api/v1/loyalty/redeem": defaultIdempotencyTTL,
}

var errStillInFlight = pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress")

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// the money-moving routes. Server errors are not stored so the client can
// retry them. A nil store disables the middleware.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	g := &idempotencyGuard{store: store, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := g.serve(w, r, next, ttl); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
			}
		})
	}
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, ttl time.Duration) error {
	ctx := r.Context()
	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	switch {
	case clientKey == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required")
	case len(clientKey) > maxIdempotencyKeyLen:
		return pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	fingerprint := hashBody(body)
	key := g.store.IdempotencyKey(buildScope(r), clientKey)

	claim := pendingRecord(fingerprint)
	claimed, err := g.store.SetNX(ctx, key, claim, pendingIdempotencyTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	if !claimed {
		return g.replay(ctx, w, key, fingerprint)
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)
	g.settle(ctx, key, claim, fingerprint, capture, ttl)
	return nil
}

// replay answers a request whose key is already claimed.
func (g *idempotencyGuard) replay(ctx context.Context, w http.ResponseWriter, key, fingerprint string) error {
	stored, err := g.store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.Nil):
		// The claim expired between SetNX and Get.
		return errStillInFlight
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	record, err := decodeRecord(stored)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	switch {
	case record.RequestHash != fingerprint:
		return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	case record.Pending:
		return errStillInFlight
	}
	record.writeTo(w)
	return nil
}

// settle swaps this request's pending claim for the captured response in
// one step, so the key is never free while the handler's effects stand. A
// 5xx releases the claim instead. Both run after the handler and must
// survive a cancelled request context.
func (g *idempotencyGuard) settle(ctx context.Context, key, claim, fingerprint string, capture *responseCapture, ttl time.Duration) {
	detached := context.WithoutCancel(ctx)
	record, ok := capture.record(fingerprint)
	if !ok {
		if _, err := g.store.ReleaseIfOwner(detached, key, claim); err != nil {
			g.logError(ctx, "idempotency.release_failed", err)
		}
		return
	}
	payload, err := record.encode()
	if err != nil {
		g.logError(ctx, "idempotency.marshal_failed", err)
		return
	}
	replaced, err := g.store.ReplaceIfOwner(detached, key, claim, payload, ttl)
	switch {
	case err != nil:
		g.logError(ctx, "idempotency.persist_failed", err)
	case !replaced && g.logg != nil:
		// The pending claim outlived its TTL while the handler ran.
		g.logg.Warn(ctx, "idempotency.claim_expired")
	}
}

func (g *idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

func buildScope(r *http.Request) string {
	return strings.Join([]string{callerKey(r.Context()), r.Method, r.URL.Path}, "|")
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	ttl, ok := idempotentRoutes[method+" "+pattern]
	return ttl, ok
}
