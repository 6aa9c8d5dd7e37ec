package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/tendant/simple-inspector/internal/job"
)

// Identity headers set by the authenticating proxy in front of the API.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserEmail = "X-User-Email"
)

type actorKey struct{}

// identify reads the caller from the identity headers. A request without a
// role is unauthenticated; an unknown role is passed through so the manager
// can refuse it with a permission error.
func identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := job.Actor{
			ID:    strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Role:  job.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))),
			Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		}
		if actor.Role == "" {
			_ = render.Render(w, r, errUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func actorFrom(ctx context.Context) job.Actor {
	actor, _ := ctx.Value(actorKey{}).(job.Actor)
	return actor
}
