package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ledgerline/finance-services/api/handlers"
	"github.com/ledgerline/finance-services/api/middleware"
	"github.com/ledgerline/finance-services/api/services"
	"github.com/ledgerline/finance-services/internal/authn"
	"github.com/ledgerline/finance-services/internal/authz"
	"github.com/ledgerline/finance-services/internal/events"
	"github.com/ledgerline/finance-services/internal/membership"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server for handling API requests",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config, initialize the database and set up logging
		commonSetUp()
		defer financeDB.Close()

		// Initialize event publisher; fall back to a no-op when no
		// broker is configured so local runs do not need Pulsar
		var publisher events.Notifier
		if appCfg.Pulsar.URL != "" {
			p, err := events.NewEventPublisher(appCfg.Pulsar.URL, appCfg.Pulsar.TopicProducer)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize event publisher")
			}
			publisher = p
		} else {
			log.Warn().Msg("no pulsar URL configured, events will not be published")
			publisher = events.NoopNotifier{}
		}
		defer publisher.Close()

		codec := authn.NewCodec(
			[]byte(appCfg.Auth.SigningSecret),
			time.Duration(appCfg.Auth.AccessTTLMinutes)*time.Minute,
			time.Duration(appCfg.Auth.RefreshTTLHours)*time.Hour,
		)

		service := &services.Service{
			Config:     appCfg,
			DB:         financeDB,
			Codec:      codec,
			Verifier:   authz.NewVerifier(codec),
			Reconciler: membership.NewReconciler(financeDB),
			Publisher:  publisher,
		}

		// Create routes
		r := mux.NewRouter()

		api := r.PathPrefix(appCfg.BasePath).Subrouter()

		// Apply the middleware to the API routes
		api.Use(middleware.WithLogger)
		api.Use(middleware.TokenMiddleware(appCfg.Auth.AccessCookieName, appCfg.Auth.RefreshCookieName))

		// Auth routes
		api.HandleFunc("/auth/register", handlers.Register(service)).Methods(http.MethodPost)
		api.HandleFunc("/auth/login", handlers.Login(service)).Methods(http.MethodPost)
		api.HandleFunc("/auth/logout", handlers.Logout(service)).Methods(http.MethodPost)

		// User routes
		api.HandleFunc("/users/{username}", handlers.GetUser(service)).Methods(http.MethodGet)
		api.HandleFunc("/users/{username}", handlers.DeleteUser(service)).Methods(http.MethodDelete)

		// Group routes
		api.HandleFunc("/groups", handlers.CreateGroup(service)).Methods(http.MethodPost)
		api.HandleFunc("/groups/{group-name}", handlers.GetGroup(service)).Methods(http.MethodGet)
		api.HandleFunc("/groups/{group-name}", handlers.DeleteGroup(service)).Methods(http.MethodDelete)
		api.HandleFunc("/groups/{group-name}/members", handlers.AddGroupMembers(service)).Methods(http.MethodPost)
		api.HandleFunc("/groups/{group-name}/members", handlers.RemoveGroupMembers(service)).Methods(http.MethodDelete)
		api.HandleFunc("/admin/groups", handlers.AdminCreateGroup(service)).Methods(http.MethodPost)

		// Transaction routes
		api.HandleFunc("/users/{username}/transactions", handlers.GetTransactions(service)).Methods(http.MethodGet)
		api.HandleFunc("/users/{username}/transactions", handlers.CreateTransaction(service)).Methods(http.MethodPost)
		api.HandleFunc("/users/{username}/transactions/{transaction-id}", handlers.GetTransaction(service)).Methods(http.MethodGet)
		api.HandleFunc("/users/{username}/transactions/{transaction-id}", handlers.UpdateTransaction(service)).Methods(http.MethodPut)
		api.HandleFunc("/users/{username}/transactions/{transaction-id}", handlers.DeleteTransaction(service)).Methods(http.MethodDelete)

		// Category routes
		api.HandleFunc("/users/{username}/categories", handlers.GetCategories(service)).Methods(http.MethodGet)
		api.HandleFunc("/users/{username}/categories", handlers.CreateCategory(service)).Methods(http.MethodPost)
		api.HandleFunc("/users/{username}/categories/{category-id}", handlers.DeleteCategory(service)).Methods(http.MethodDelete)

		log.Info().Msg(fmt.Sprintf("Server started at %s:%d", host, port))

		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", host, port),
			r); err != nil {

			log.Error().Err(err).Msg("could not start server")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&host, "host", "0.0.0.0", "host to run the server on")
	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run the server on")
}
