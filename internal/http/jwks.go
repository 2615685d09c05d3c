package http

import (
	"net/http"

	"github.com/q360hq/q360/pkg/httpx"
	"github.com/q360hq/q360/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set so other services can verify
// access tokens without sharing key material.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
