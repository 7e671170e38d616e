package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/helicode/ambassador-console-go/internal/domain"
	"github.com/helicode/ambassador-console-go/internal/guard"
	"github.com/helicode/ambassador-console-go/internal/infra/observability"
	"github.com/helicode/ambassador-console-go/internal/store"
	"github.com/helicode/ambassador-console-go/internal/workflow"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the console's HTTP surface: the login/logout pair,
// the role-guarded dashboard views and their admin operations, plus the
// operational endpoints.
func NewRouter(auth *store.AuthStore, admin *store.AmbassadorStore, referrals *store.ReferralStore, nav *ShellNavigator, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/stats", statsHandler(metrics))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Session ---
	r.Get("/", landingHandler(auth))
	r.Post("/login", loginHandler(auth, nav, logger))
	r.Post("/logout", logoutHandler(auth, nav))

	// --- Role dispatch ---
	r.Get(guard.RouteDashboard, dashboardHandler(auth, nav))

	// --- Admin dashboard ---
	r.Route(guard.RouteAdminDashboard, func(r chi.Router) {
		r.Get("/", adminDashboardHandler(auth, admin, nav, logger))
		r.Get("/ambassadors", adminAmbassadorsHandler(auth, admin, logger))
		r.Get("/ambassadors/{ambassadorId}/referrals", adminReferralsHandler(auth, admin, logger))
		r.Patch("/ambassadors/{ambassadorId}", updateAmbassadorHandler(auth, admin, logger))
		r.Post("/verify-account", verifyAccountHandler(auth, admin, logger))
		r.Post("/invite", inviteHandler(auth, admin, logger))
	})

	// --- Ambassador dashboard ---
	r.Route(guard.RouteAmbassadorDashboard, func(r chi.Router) {
		r.Get("/", ambassadorDashboardHandler(auth, referrals, nav, logger))
		r.Get("/referrals", ambassadorReferralsHandler(auth, referrals, logger))
	})

	return r
}

// guardRoute evaluates the access rules for path and handles the
// response itself when the request may not proceed. It runs before any
// data fetch, so denied requests never reach the API.
func guardRoute(w http.ResponseWriter, r *http.Request, auth *store.AuthStore, path string) bool {
	decision := guard.Check(auth.Role(), auth.IsAuthenticated(), path)
	switch decision.Action {
	case guard.Redirect:
		http.Redirect(w, r, decision.Target, http.StatusFound)
		return false
	case guard.Deny:
		writeError(w, http.StatusForbidden, "access denied")
		return false
	}
	return true
}

// ============================================================
// Session
// ============================================================

func landingHandler(auth *store.AuthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"route":           guard.RouteLanding,
			"isAuthenticated": auth.IsAuthenticated(),
			"role":            auth.Role(),
		})
	}
}

func loginHandler(auth *store.AuthStore, nav *ShellNavigator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /login")
		defer span.End()

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}
		span.SetAttributes(attribute.String("user.email", req.Email))

		session, err := auth.Login(ctx, req.Email, req.Password)
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}

		// A fresh login lands on the role's own dashboard.
		if view := guard.DashboardView(session.Role, session.Authenticated); view.Action == guard.Allow {
			nav.NavigateTo(view.Target)
		}

		writeJSON(w, http.StatusOK, session)
	}
}

func logoutHandler(auth *store.AuthStore, nav *ShellNavigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.Logout()
		nav.NavigateTo(guard.RouteLanding)
		w.WriteHeader(http.StatusNoContent)
	}
}

// dashboardHandler dispatches /dashboard to the session's own view.
func dashboardHandler(auth *store.AuthStore, nav *ShellNavigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decision := guard.DashboardView(auth.Role(), auth.IsAuthenticated())
		switch decision.Action {
		case guard.Allow:
			nav.NavigateTo(decision.Target)
			http.Redirect(w, r, decision.Target, http.StatusFound)
		case guard.Redirect:
			http.Redirect(w, r, decision.Target, http.StatusFound)
		default:
			writeError(w, http.StatusForbidden, "access denied")
		}
	}
}

// ============================================================
// Admin dashboard
// ============================================================

type adminDashboardView struct {
	Ambassadors []domain.Ambassador `json:"ambassadors"`
	Page        int                 `json:"page"`
	TotalPages  int                 `json:"totalPages"`
	Banks       []domain.Bank       `json:"banks"`
	Error       string              `json:"error,omitempty"`
}

func adminDashboardHandler(auth *store.AuthStore, admin *store.AmbassadorStore, nav *ShellNavigator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin-dashboard")
		defer span.End()

		if !guardRoute(w, r, auth, guard.RouteAdminDashboard) {
			return
		}
		nav.NavigateTo(guard.RouteAdminDashboard)

		// The list and the bank reference data load independently.
		bootstrapAdmin(ctx, admin)

		writeJSON(w, http.StatusOK, adminDashboardView{
			Ambassadors: admin.VisibleAmbassadors(),
			Page:        admin.Page(),
			TotalPages:  admin.TotalPages(),
			Banks:       admin.Banks(),
			Error:       admin.Err(),
		})
	}
}

func adminAmbassadorsHandler(auth *store.AuthStore, admin *store.AmbassadorStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin-dashboard/ambassadors")
		defer span.End()

		if !guardRoute(w, r, auth, guard.RouteAdminDashboard) {
			return
		}

		admin.FetchAmbassadors(ctx)
		admin.SetSearch(r.URL.Query().Get("q"))
		if page, ok := parsePage(r); ok {
			admin.SetPage(page)
		}

		writeJSON(w, http.StatusOK, adminDashboardView{
			Ambassadors: admin.VisibleAmbassadors(),
			Page:        admin.Page(),
			TotalPages:  admin.TotalPages(),
			Error:       admin.Err(),
		})
	}
}

func adminReferralsHandler(auth *store.AuthStore, admin *store.AmbassadorStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin-dashboard/ambassadors/{ambassadorId}/referrals")
		defer span.End()

		if !guardRoute(w, r, auth, guard.RouteAdminDashboard) {
			return
		}

		ambassadorID := chi.URLParam(r, "ambassadorId")
		if ambassadorID == "" {
			writeError(w, http.StatusBadRequest, "ambassadorId is required")
			return
		}
		span.SetAttributes(attribute.String("ambassador.id", ambassadorID))

		admin.FetchReferrals(ctx, ambassadorID)

		writeJSON(w, http.StatusOK, map[string]any{
			"referrals": admin.Referrals(),
			"error":     admin.Err(),
		})
	}
}

func updateAmbassadorHandler(auth *store.AuthStore, admin *store.AmbassadorStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /admin-dashboard/ambassadors/{ambassadorId}")
		defer span.End()

		if !guardRoute(w, r, auth, guard.RouteAdminDashboard) {
			return
		}

		ambassadorID := chi.URLParam(r, "ambassadorId")
		span.SetAttributes(attribute.String("ambassador.id", ambassadorID))

		var patch domain.AmbassadorPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := admin.UpdateAmbassador(ctx, ambassadorID, &patch); err != nil {
			handleStoreError(w, err, logger)
			return
		}

		for _, a := range admin.Ambassadors() {
			if a.ID == ambassadorID {
				writeJSON(w, http.StatusOK, a)
				return
			}
		}
		writeError(w, http.StatusNotFound, "ambassador not found")
	}
}

func verifyAccountHandler(auth *store.AuthStore, admin *store.AmbassadorStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /admin-dashboard/verify-account")
		defer span.End()

		if !guardRoute(w, r, auth, guard.RouteAdminDashboard) {
			return
		}

		var req struct {
			BankCode      string `json:"bankCode"`
			AccountNumber string `json:"accountNumber"`
			// "invite" clears the account number when verification
			// fails; "edit" keeps it.
			Flow string `json:"flow,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		policy := workflow.KeepAccountNumberOnFailure
		if req.Flow == "" || req.Flow == "invite" {
			policy = workflow.ClearAccountNumberOnFailure
		}

		verifier := workflow.NewAccountVerifier(admin, policy)
		if err := verifier.SetBankCode(ctx, req.BankCode); err != nil {
			handleStoreError(w, err, logger)
			return
		}
		if err := verifier.SetAccountNumber(ctx, req.AccountNumber); err != nil {
			handleStoreError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"verified":      verifier.Verified(),
			"accountName":   admin.AccountName(),
			"accountNumber": verifier.AccountNumber(),
		})
	}
}

func inviteHandler(auth *store.AuthStore, admin *store.AmbassadorStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /admin-dashboard/invite")
		defer span.End()

		if !guardRoute(w, r, auth, guard.RouteAdminDashboard) {
			return
		}

		var req domain.InviteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// The invite form resolves the holder name before submitting.
		if req.AccountName == "" && req.BankCode != "" && req.AccountNumber != "" {
			verifier := workflow.NewAccountVerifier(admin, workflow.ClearAccountNumberOnFailure)
			if err := verifier.SetBankCode(ctx, req.BankCode); err != nil {
				handleStoreError(w, err, logger)
				return
			}
			if err := verifier.SetAccountNumber(ctx, req.AccountNumber); err != nil {
				handleStoreError(w, err, logger)
				return
			}
			req.AccountName = admin.AccountName()
		}

		result, err := admin.InviteUser(ctx, &req)
		if err != nil {
			handleStoreError(w, err, logger)
			return
		}

		// A successful invite resets the form state and refreshes the
		// list so the new ambassador shows up.
		admin.ResetVerification()
		admin.FetchAmbassadors(ctx)

		writeJSON(w, http.StatusCreated, result)
	}
}

// ============================================================
// Ambassador dashboard
// ============================================================

type ambassadorDashboardView struct {
	Metrics    *domain.ReferralMetrics `json:"metrics"`
	Referrals  []domain.Referral       `json:"referrals"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"totalPages"`
	Error      string                  `json:"error,omitempty"`
}

func ambassadorDashboardHandler(auth *store.AuthStore, referrals *store.ReferralStore, nav *ShellNavigator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /ambassador-dashboard")
		defer span.End()

		if !guardRoute(w, r, auth, guard.RouteAmbassadorDashboard) {
			return
		}
		nav.NavigateTo(guard.RouteAmbassadorDashboard)

		bootstrapAmbassador(ctx, referrals)

		writeJSON(w, http.StatusOK, ambassadorDashboardView{
			Metrics:    referrals.Metrics(),
			Referrals:  referrals.VisibleReferrals(),
			Page:       referrals.Page(),
			TotalPages: referrals.TotalPages(),
			Error:      referrals.Err(),
		})
	}
}

func ambassadorReferralsHandler(auth *store.AuthStore, referrals *store.ReferralStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /ambassador-dashboard/referrals")
		defer span.End()

		if !guardRoute(w, r, auth, guard.RouteAmbassadorDashboard) {
			return
		}

		referrals.FetchReferrals(ctx)
		referrals.SetSearch(r.URL.Query().Get("q"))
		if page, ok := parsePage(r); ok {
			referrals.SetPage(page)
		}

		writeJSON(w, http.StatusOK, ambassadorDashboardView{
			Referrals:  referrals.VisibleReferrals(),
			Page:       referrals.Page(),
			TotalPages: referrals.TotalPages(),
			Error:      referrals.Err(),
		})
	}
}

// ============================================================
// Operational
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func statsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Stats())
	}
}
