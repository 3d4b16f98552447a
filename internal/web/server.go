/*

HTTP surface. Exposes the valued portfolio for a wallet plus CRUD and
toggle operations on the protocol-config store. All responses are JSON.

*/

package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/yieldlens/yieldlens/internal/aggregator"
	"github.com/yieldlens/yieldlens/internal/logger"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer handles HTTP requests for portfolio data and config management.
type WebServer struct {
	router     *mux.Router
	port       string
	aggregator *aggregator.Aggregator
}

// NewWebServer creates a server bound to the given port.
func NewWebServer(port string, agg *aggregator.Aggregator) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:     mux.NewRouter(),
		port:       port,
		aggregator: agg,
	}

	server.setupRoutes()
	return server
}

func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/portfolio/{address}", ws.handlePortfolio).Methods("GET")
	api.HandleFunc("/protocols", ws.handleListProtocols).Methods("GET")
	api.HandleFunc("/protocols", ws.handleCreateProtocol).Methods("POST")
	api.HandleFunc("/protocols/{id}", ws.handleUpdateProtocol).Methods("PUT")
	api.HandleFunc("/protocols/{id}", ws.handleDeleteProtocol).Methods("DELETE")
	api.HandleFunc("/protocols/{id}/toggle", ws.handleToggleProtocol).Methods("POST")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.requestMiddleware)
}

// Start runs the server until it fails or the process exits.
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (ws *WebServer) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		webLogger.Debug().
			Str("requestId", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
