package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/cardtable/internal/api/apierr"
	"github.com/mcoot/cardtable/internal/model"
)

type contextKey string

const connectionContextKey contextKey = "connection"

// ConnectionLookup reports whether a connection handle is live
type ConnectionLookup interface {
	Has(conn model.ConnectionID) bool
}

// Connection resolves the {conn} path variable to a live connection
func Connection(lookup ConnectionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn := model.ConnectionID(mux.Vars(r)["conn"])
			if conn == "" || !lookup.Has(conn) {
				apierr.WriteError(w, model.ErrConnectionNotFound)
				return
			}

			ctx := context.WithValue(r.Context(), connectionContextKey, conn)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetConnection returns the resolved connection from the request context
func GetConnection(ctx context.Context) (model.ConnectionID, bool) {
	conn, ok := ctx.Value(connectionContextKey).(model.ConnectionID)
	return conn, ok
}

// MustGetConnection returns the resolved connection or panics
func MustGetConnection(ctx context.Context) model.ConnectionID {
	conn, ok := GetConnection(ctx)
	if !ok {
		panic("no connection in context - connection middleware not applied?")
	}
	return conn
}
