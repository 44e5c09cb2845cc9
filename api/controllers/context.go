package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abiball/abiball-backend/pkg/authz"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
)

// actorFrom pulls the authenticated caller off the request context. The auth
// middleware guarantees it on protected subtrees.
func actorFrom(r *http.Request) (authz.Context, error) {
	actor, ok := authz.FromContext(r.Context())
	if !ok {
		return authz.Context{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return actor, nil
}

func urlParam(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, key))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, key+" is required")
	}
	return value, nil
}

// optionalEventID reads the event_id query parameter; absent means all events.
func optionalEventID(r *http.Request) *string {
	value := strings.TrimSpace(r.URL.Query().Get("event_id"))
	if value == "" {
		return nil
	}
	return &value
}
