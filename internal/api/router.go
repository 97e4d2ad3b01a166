package api

import (
	"net/http"
	"strings"

	"github.com/example/inventory-dashboard/internal/api/middleware"
	"github.com/example/inventory-dashboard/internal/auth"
)

type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	SSEHandlers  *SSEHandlers
	JWTService   *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	protect := middleware.AuthMiddleware(cfg.JWTService)

	// Auth
	mux.HandleFunc("/api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.AuthHandlers.Register(w, r)
		default:
			respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.AuthHandlers.Login(w, r)
		default:
			respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Inventory
	mux.Handle("/api/v1/inventory", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetInventory(w, r)
		default:
			respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/v1/inventory/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/update") && r.Method == http.MethodPut:
			cfg.Handlers.UpdateInventory(w, r)
		default:
			respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	// Orders
	mux.Handle("/api/v1/orders", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetOrders(w, r)
		case http.MethodPost:
			cfg.Handlers.CreateOrder(w, r)
		default:
			respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/v1/orders/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPut:
			cfg.Handlers.CancelOrder(w, r)
		case strings.HasSuffix(path, "/payment") && r.Method == http.MethodPost:
			cfg.Handlers.ConfirmPayment(w, r)
		case strings.HasSuffix(path, "/refund") && r.Method == http.MethodPost:
			cfg.Handlers.RefundOrder(w, r)
		default:
			respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	// Server-sent events. Left unguarded: EventSource cannot set headers.
	mux.HandleFunc("/api/v1/sse/orders", cfg.SSEHandlers.Orders)
	mux.HandleFunc("/api/v1/sse/inventory", cfg.SSEHandlers.Inventory)

	// Home + catch-all
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			respondMessage(w, http.StatusNotFound, "Route not found")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Dashboard API!"})
	})

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		println("[API]", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
