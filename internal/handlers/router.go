package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/authz"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimit throttles the unauthenticated auth and contact endpoints per IP.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Disabled bool
}

// Deps is everything the router needs to build its handlers.
type Deps struct {
	Store       Pinger
	Tokens      middleware.TokenParser
	Authz       middleware.Authorizer
	Auth        *services.AuthService
	Users       *services.UserService
	Recipes     *services.RecipeService
	Favorites   *services.FavoriteService
	Events      *services.EventService
	Reports     *services.ReportService
	Moderation  *services.ModerationService
	Images      *services.ImageService
	Captcha     services.CaptchaVerifier
	Mailer      services.Mailer
	Cookie      CookieConfig
	CORSOrigins []string
	MaxUploadMB int64
	RateLimit   RateLimit
}

func NewRouter(d Deps) http.Handler {
	authH := NewAuthHandler(d.Auth, d.Cookie)
	profileH := NewProfileHandler(d.Users)
	accountH := NewAccountHandler(d.Users, d.Auth, d.Cookie)
	recipeH := NewRecipeHandler(d.Recipes)
	favoriteH := NewFavoriteHandler(d.Favorites)
	imageH := NewImageHandler(d.Images, d.MaxUploadMB)
	eventH := NewEventHandler(d.Events)
	reportH := NewReportHandler(d.Reports)
	modH := NewModeratorHandler(d.Moderation)
	supportH := NewSupportHandler(d.Captcha, d.Mailer)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limit := func(next http.Handler) http.Handler { return next }
	if !d.RateLimit.Disabled && d.RateLimit.Requests > 0 {
		limit = httprate.LimitByIP(d.RateLimit.Requests, d.RateLimit.Window)
	}

	r.Get("/health", healthHandler(d.Store))
	r.Handle("/metrics", promhttp.Handler())

	if d.Images != nil {
		fs := http.StripPrefix(services.UploadURLPrefix, http.FileServer(http.Dir(d.Images.Dir())))
		r.Handle(services.UploadURLPrefix+"*", fs)
	}

	session := middleware.Auth(d.Tokens, d.Auth, d.Cookie.Name)
	can := func(obj, act string) func(http.Handler) http.Handler {
		return middleware.Require(d.Authz, obj, act)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limit).Post("/signup", authH.Signup)
			r.With(limit).Post("/login", authH.Login)
			r.Post("/verify-email", authH.VerifyEmail)
			r.With(limit).Post("/forgot-password", authH.ForgotPassword)
			r.Post("/reset-password/{token}", authH.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(session)
				r.Post("/logout", authH.Logout)
				r.Get("/check-auth", authH.CheckAuth)
				r.Post("/create-role-info", profileH.CreateRoleInfo)
				r.Get("/role-info", profileH.GetRoleInfo)
				r.Put("/update-profile", profileH.UpdateProfile)
				r.Delete("/delete-account", accountH.DeleteAccount)
			})
		})

		r.With(limit).Post("/contact", supportH.Submit)

		r.Group(func(r chi.Router) {
			r.Use(session)

			r.Route("/inbox", func(r chi.Router) {
				r.Get("/", profileH.Inbox)
				r.Put("/{msgId}/read", profileH.MarkMessageRead)
				r.Delete("/{msgId}", profileH.DeleteMessage)
			})

			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", recipeH.List)
				r.With(can(authz.ResRecipe, authz.ActCreate)).Post("/", recipeH.Create)
				r.With(can(authz.ResRecipe, authz.ActWrite)).Get("/mine", recipeH.ListMine)
				r.With(can(authz.ResRecipe, authz.ActUpload)).Post("/upload", imageH.Upload)
				r.Get("/{id}", recipeH.Get)
				r.With(can(authz.ResRecipe, authz.ActWrite)).Put("/{id}", recipeH.Update)
				r.With(can(authz.ResRecipe, authz.ActWrite)).Delete("/{id}", recipeH.Delete)
			})

			r.Route("/recipesinfo", func(r chi.Router) {
				r.With(can(authz.ResFavourite, authz.ActToggle)).Post("/togglefav", favoriteH.Toggle)
				r.With(can(authz.ResFavourite, authz.ActRead)).Get("/favourites", favoriteH.List)
				r.With(can(authz.ResRecipe, authz.ActRate)).Post("/{id}/rate", recipeH.Rate)
				r.With(can(authz.ResRecipe, authz.ActComment)).Post("/{id}/comment", recipeH.Comment)
			})

			r.Route("/events", func(r chi.Router) {
				r.Get("/", eventH.ListUpcoming)
				r.With(can(authz.ResEvent, authz.ActCreate)).Post("/", eventH.Create)
				r.With(can(authz.ResEvent, authz.ActWrite)).Get("/mine", eventH.ListMine)
				r.With(can(authz.ResEvent, authz.ActRespond)).Post("/join/{token}", eventH.JoinByToken)
				r.Get("/{id}", eventH.Get)
				r.With(can(authz.ResEvent, authz.ActWrite)).Put("/{id}", eventH.Update)
				r.With(can(authz.ResEvent, authz.ActWrite)).Delete("/{id}", eventH.Delete)
				r.With(can(authz.ResEvent, authz.ActInvite)).Post("/{id}/invite", eventH.Invite)
				r.With(can(authz.ResEvent, authz.ActRespond)).Post("/{id}/accept", eventH.Accept)
				r.With(can(authz.ResEvent, authz.ActRespond)).Post("/{id}/reject", eventH.Reject)
			})

			r.Route("/reports", func(r chi.Router) {
				r.With(can(authz.ResReport, authz.ActCreate)).Post("/", reportH.Submit)
				r.With(can(authz.ResReport, authz.ActRead)).Get("/allReports", reportH.List)
				r.With(can(authz.ResReport, authz.ActDelete)).Delete("/{id}", reportH.Delete)
				r.With(can(authz.ResReport, authz.ActResolve)).Post("/{id}/resolve", reportH.Resolve)
			})

			r.Route("/moderator", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(can(authz.ResModeration, authz.ActWrite))
					r.Post("/add-passed-report", modH.AddPassedReport)
					r.Post("/add-warning", modH.AddWarning)
					r.Post("/add-deleted-user-history", modH.AddDeletedUserHistory)
					r.Post("/add-deleted-recipe-history", modH.AddDeletedRecipeHistory)
					r.Post("/add-deleted-event-history", modH.AddDeletedEventHistory)
					r.Delete("/{id}/delete-improper-user", modH.DeleteUser)
					r.Delete("/recipes/{id}", modH.DeleteRecipe)
					r.Delete("/events/{id}", modH.DeleteEvent)
				})
				r.Group(func(r chi.Router) {
					r.Use(can(authz.ResModeration, authz.ActRead))
					r.Get("/history", modH.History)
					r.Get("/users", modH.Users)
					r.Get("/warnings/{userId}", modH.Warnings)
				})
			})
		})
	})

	return r
}

func healthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("store unavailable"))
				return
			}
		}
		writeJSON(w, http.StatusOK, models.NewMessageResponse("OK"))
	}
}

var _ middleware.Authorizer = (*authz.Enforcer)(nil)
