package webhook

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the webhook and token exchange endpoints.
func RegisterRoutes(r chi.Router, c *Controller) {
	r.Get("/webhook", c.HandleVerify)
	r.Post("/webhook", c.HandleMessage)
	r.Get("/convert-token", c.HandleConvertToken)
}
