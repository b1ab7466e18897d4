package handler

import (
	"net/http"

	"wardrobe-backend/bootstrap"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog/log"
)

var (
	fiberApp *fiber.App
	initErr  error
)

func init() {
	fiberApp, initErr = bootstrap.New()
	if initErr != nil {
		log.Error().Err(initErr).Msg("app create failed")
	}
}

// Handler is the Vercel entry point; every path is rewritten here. A failed cold start answers 503
// with the usual error envelope until the next instance.
func Handler(w http.ResponseWriter, r *http.Request) {
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error","error":{"message":"Service unavailable","statusCode":503,"details":{}}}`))
		return
	}
	r.RequestURI = r.URL.String()
	adaptor.FiberApp(fiberApp)(w, r)
}
