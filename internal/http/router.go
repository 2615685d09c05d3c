// Package http wires the service layer to the network: routing,
// middleware, request decoding and the JSON error surface.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/pkg/httpx"
	"github.com/q360hq/q360/pkg/jwtx"
	"github.com/q360hq/q360/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	TokenService        *service.TokenService
	UserService         *service.UserService
	MFAService          *service.MFAService
	DepartmentService   *service.DepartmentService
	EvaluationService   *service.EvaluationService
	IdeaService         *service.IdeaService
	NotificationService *service.NotificationService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMFA()
	r.registerUsers()
	r.registerDepartments()
	r.registerEvaluations()
	r.registerIdeas()
	r.registerNotifications()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured wraps h with authentication, optional role enforcement and a
// per-user rate limit.
func (r *Router) secured(h http.HandlerFunc, limit httpx.RateLimitConfig, roles ...string) http.Handler {
	mws := []httpx.Middleware{httpx.AuthnMiddleware(r.verifier)}
	if len(roles) > 0 {
		mws = append(mws, httpx.RequireRole(roles...))
	}
	mws = append(mws, httpx.RateLimitByUser(limit))
	return httpx.Chain(h, mws...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
		MFAService:   r.MFAService,
	}

	// Public signup and token endpoints carry strict per-IP limits:
	// every one of them is a brute force or enumeration target.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/mfa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleMFAVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/verify-email",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmail),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/password-reset/request",
		httpx.Chain(http.HandlerFunc(h.HandlePasswordResetRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/password-reset/confirm",
		httpx.Chain(http.HandlerFunc(h.HandlePasswordResetConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Refresh and logout take the refresh token in the body, no access
	// token needed.
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	r.Mux.Handle("POST /v1/mfa/setup", r.secured(h.HandleSetup, httpx.ModerateLimit))
	// Enable verifies a code, keep it strict.
	r.Mux.Handle("POST /v1/mfa/enable", r.secured(h.HandleEnable, httpx.StrictLimit))
	r.Mux.Handle("POST /v1/mfa/disable", r.secured(h.HandleDisable, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/mfa/backup-codes", r.secured(h.HandleBackupCodesCount, httpx.LenientLimit))
}

func (r *Router) registerUsers() {
	h := &UserHandler{UserService: r.UserService}

	r.Mux.Handle("GET /v1/me", r.secured(h.HandleMe, httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/me", r.secured(h.HandleUpdateMe, httpx.ModerateLimit))

	r.Mux.Handle("GET /v1/users",
		r.secured(h.HandleList, httpx.LenientLimit, domain.RoleAdmin, domain.RoleManager))
	r.Mux.Handle("GET /v1/users/{id}",
		r.secured(h.HandleGet, httpx.LenientLimit, domain.RoleAdmin, domain.RoleManager))
	r.Mux.Handle("GET /v1/users/{id}/subordinates",
		r.secured(h.HandleSubordinates, httpx.LenientLimit, domain.RoleAdmin, domain.RoleManager))
	r.Mux.Handle("PATCH /v1/users/{id}/role",
		r.secured(h.HandleUpdateRole, httpx.ModerateLimit, domain.RoleAdmin))
	r.Mux.Handle("PATCH /v1/users/{id}/org",
		r.secured(h.HandleUpdateOrg, httpx.ModerateLimit, domain.RoleAdmin))
}

func (r *Router) registerDepartments() {
	h := &DepartmentHandler{DepartmentService: r.DepartmentService}

	r.Mux.Handle("GET /v1/departments", r.secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/departments/{id}", r.secured(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/departments",
		r.secured(h.HandleCreate, httpx.ModerateLimit, domain.RoleAdmin))
	r.Mux.Handle("PATCH /v1/departments/{id}",
		r.secured(h.HandleUpdate, httpx.ModerateLimit, domain.RoleAdmin))
	r.Mux.Handle("DELETE /v1/departments/{id}",
		r.secured(h.HandleDelete, httpx.ModerateLimit, domain.RoleAdmin))
}

func (r *Router) registerEvaluations() {
	h := &EvaluationHandler{EvaluationService: r.EvaluationService}

	r.Mux.Handle("GET /v1/cycles", r.secured(h.HandleListCycles, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/cycles/{id}", r.secured(h.HandleGetCycle, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/cycles",
		r.secured(h.HandleCreateCycle, httpx.ModerateLimit, domain.RoleAdmin))
	r.Mux.Handle("PATCH /v1/cycles/{id}/status",
		r.secured(h.HandleSetCycleStatus, httpx.ModerateLimit, domain.RoleAdmin))

	r.Mux.Handle("GET /v1/competencies", r.secured(h.HandleListCompetencies, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/competencies",
		r.secured(h.HandleCreateCompetency, httpx.ModerateLimit, domain.RoleAdmin))
	r.Mux.Handle("GET /v1/competencies/{id}/questions", r.secured(h.HandleListQuestions, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/competencies/{id}/questions",
		r.secured(h.HandleAddQuestion, httpx.ModerateLimit, domain.RoleAdmin))

	r.Mux.Handle("POST /v1/evaluations",
		r.secured(h.HandleAssign, httpx.ModerateLimit, domain.RoleAdmin, domain.RoleManager))
	r.Mux.Handle("GET /v1/evaluations/mine", r.secured(h.HandleMine, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/evaluations/about-me", r.secured(h.HandleAboutMe, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/evaluations/{id}", r.secured(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/evaluations/{id}/answers", r.secured(h.HandleSaveAnswer, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/evaluations/{id}/submit", r.secured(h.HandleSubmit, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/evaluations/{id}/answers", r.secured(h.HandleListAnswers, httpx.LenientLimit))
}

func (r *Router) registerIdeas() {
	h := &IdeaHandler{IdeaService: r.IdeaService}

	r.Mux.Handle("GET /v1/ideas", r.secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/ideas", r.secured(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/ideas/{id}", r.secured(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/ideas/{id}/status",
		r.secured(h.HandleSetStatus, httpx.ModerateLimit, domain.RoleAdmin, domain.RoleManager))
	r.Mux.Handle("POST /v1/ideas/{id}/like", r.secured(h.HandleLike, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/ideas/{id}/like", r.secured(h.HandleUnlike, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/ideas/{id}/comments", r.secured(h.HandleComment, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/ideas/{id}/comments", r.secured(h.HandleListComments, httpx.LenientLimit))
}

func (r *Router) registerNotifications() {
	h := &NotificationHandler{NotificationService: r.NotificationService}

	r.Mux.Handle("GET /v1/notifications", r.secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/notifications/{id}/read", r.secured(h.HandleMarkRead, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/notifications/read-all", r.secured(h.HandleMarkAllRead, httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
