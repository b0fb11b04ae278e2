package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/apex-eduai/examvault/internal/api/http"
	auth "github.com/apex-eduai/examvault/internal/auth/middleware"
	"github.com/apex-eduai/examvault/internal/billing"
	"github.com/apex-eduai/examvault/internal/config"
	"github.com/apex-eduai/examvault/internal/db"
	"github.com/apex-eduai/examvault/internal/eventlog"
	"github.com/apex-eduai/examvault/internal/exam"
	"github.com/apex-eduai/examvault/internal/genai"
	rbac "github.com/apex-eduai/examvault/internal/rbac"
	storage "github.com/apex-eduai/examvault/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	examStore := exam.NewSQLStore(dbh)
	billStore := billing.NewSQLStore(dbh)
	events := eventlog.NewRepo(dbh, cfg.SiteID)

	// --- Services ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)
	billSvc := billing.NewService(billStore)
	gen := genai.NewClient(cfg.GenBaseURL, genai.WithRetries(cfg.GenRetries))
	mgr := exam.NewManager(examStore, events)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public: transaction login + admin login
	r.Post("/auth/login", api.LoginHandler(billSvc, authSvc))
	r.Post("/auth/admin/login", api.AdminLoginHandler(cfg.AdminUser, cfg.AdminPassHash, authSvc))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("exam:generate")).
			Post("/exams/generate", api.GenerateExamHandler(gen, examStore, bs, events, cfg.DefaultNumQuestions))
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", api.GetExamHandler(examStore))
		pr.With(rbac.Require("exam:history")).
			Get("/exams", api.ListExamsHandler(examStore))

		// Timed attempt flow
		pr.With(rbac.Require("session:create")).
			Post("/sessions", api.CreateSessionHandler(mgr))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions/{sessionID}", api.GetSessionHandler(mgr))
		pr.With(rbac.Require("session:answer")).
			Post("/sessions/{sessionID}/answers", api.SaveAnswersHandler(mgr))
		pr.With(rbac.Require("session:submit")).
			Post("/sessions/{sessionID}/submit", api.SubmitSessionHandler(mgr))

		// Admin: billing and subscribers
		pr.With(rbac.Require("billing:txn_add")).
			Post("/admin/transactions", api.AddTransactionHandler(billStore))
		pr.With(rbac.Require("billing:txn_list")).
			Get("/admin/transactions", api.ListTransactionsHandler(billStore))
		pr.With(rbac.Require("users:list")).
			Get("/admin/users", api.ListSubscribersHandler(billStore))
		pr.With(rbac.Require("users:extend")).
			Post("/admin/users/extend", api.ExtendUserHandler(billSvc, events))
		pr.With(rbac.Require("users:deactivate")).
			Post("/admin/users/deactivate", api.DeactivateUserHandler(billSvc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", 503)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
