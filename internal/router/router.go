package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	catalogHandler *handler.CatalogHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Catalog
	mux.HandleFunc("GET /api/catalog/{productID}", catalogHandler.Get)
	mux.HandleFunc("POST /api/catalog/{productID}/quote", catalogHandler.Quote)
	mux.HandleFunc("DELETE /api/catalog/{productID}", catalogHandler.Delete)

	// Cart
	mux.HandleFunc("GET /api/cart", cartHandler.Get)
	mux.HandleFunc("POST /api/cart/lines", cartHandler.AddLine)
	mux.HandleFunc("PUT /api/cart/lines/{key}", cartHandler.SetQuantity)

	// Orders
	mux.HandleFunc("POST /api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.GetByID)
	mux.HandleFunc("PUT /api/orders/{id}", orderHandler.Update)
	mux.HandleFunc("PUT /api/orders/{id}/special-request", orderHandler.UpdateSpecialRequest)
	mux.HandleFunc("POST /api/orders/{id}/payment-verify", orderHandler.VerifyPayment)
	mux.HandleFunc("POST /api/orders/{id}/notes", orderHandler.SetNote)
	mux.HandleFunc("DELETE /api/orders/{id}/notes", orderHandler.DeleteNote)
	mux.HandleFunc("DELETE /api/orders/{id}/invoice", orderHandler.RemoveInvoice)

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth -> Identity
	var handler http.Handler = mux
	handler = middleware.Identity(logger)(handler)
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
