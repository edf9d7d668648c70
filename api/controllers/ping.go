package controllers

import (
	"net/http"

	"github.com/atelierjamel/traiteur-backend/api/middleware"
	"github.com/atelierjamel/traiteur-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"message": "pong"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"message": "pong",
			"user_id": middleware.UserIDFromContext(r.Context()),
		})
	}
}
