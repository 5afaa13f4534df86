package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabble-chat/gabble/configs"
	"github.com/gabble-chat/gabble/internal/chat"
	"github.com/gabble-chat/gabble/internal/db"
	"github.com/gabble-chat/gabble/internal/hub"
	"github.com/gabble-chat/gabble/internal/middleware"
	"github.com/gabble-chat/gabble/internal/routes"
)

// CreateAndListen wires the store, registry, and routes together and serves
// until SIGINT/SIGTERM.
func CreateAndListen(debug bool, host string, port int) {
	database := db.GetDB()
	defer database.Close()

	routingHub := hub.New(configs.LoginPolicy(), configs.Roster(), configs.MaxMessageSize())
	messages := chat.NewManager(database)
	history := chat.NewHistory(database, configs.Retention())

	routes.SetAllowedOrigins(configs.AllowedOrigins())
	h := routes.NewRouteHandler(routingHub, messages, history, configs.AdminIdentities())

	mux := http.NewServeMux()
	createRoutes(mux, h)

	var handler http.Handler = mux
	if debug {
		handler = middleware.DebugLogging(mux)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           handler,
	}

	// graceful shutdown channel
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
		log.Println("Stopped serving new connections.")
	}()

	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown does not touch hijacked websocket connections; the hub closes those
	routingHub.CloseAll()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("http shutdown error: %v", err)
	}
	log.Println("Graceful shutdown complete.")
}

// createRoutes creates the routing rules for the webserver
func createRoutes(mux *http.ServeMux, h *routes.RouteHandler) {
	mux.HandleFunc("GET /ws", h.ChatWS)
	mux.HandleFunc("GET /healthz", routes.Healthz)
}
