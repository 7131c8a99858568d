package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/demandas/internal/config"
	httpmiddleware "github.com/gestaozabele/demandas/internal/http/middleware"
	"github.com/gestaozabele/demandas/internal/repo"
	"github.com/gestaozabele/demandas/internal/service"
	"github.com/gestaozabele/demandas/internal/storage"
)

// Handler agrega as dependências dos endpoints.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	queries       *repo.Queries
	authService   *service.AuthService
	rbac          *service.RBACService
	usuarios      *service.UsuarioService
	demandas      *service.DemandaService
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, queries *repo.Queries, authService *service.AuthService, uploader storage.Uploader) http.Handler {
	rbac := service.NewRBACService(queries)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		queries:       queries,
		authService:   authService,
		rbac:          rbac,
		usuarios:      service.NewUsuarioService(queries, rbac),
		demandas:      service.NewDemandaService(queries, rbac, uploader),
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	// Rotas públicas de autenticação, limitadas por IP.
	r.Group(func(pub chi.Router) {
		pub.Use(httpmiddleware.IPRateLimit(h.publicLimiter))
		pub.Post("/auth/login", h.Login)
		pub.Post("/auth/logout", h.Logout)
		pub.Post("/auth/refresh", h.Refresh)
		pub.Post("/auth/recuperar-senha", h.RecuperarSenha)
		pub.Post("/auth/alterar-senha", h.AlterarSenha)
		pub.Post("/auth/verificar-email", h.VerificarEmail)
		pub.Post("/auth/introspect", h.Introspect)
		pub.Post("/auth/signup", h.Signup)
	})

	// Rotas autenticadas.
	r.Group(func(priv chi.Router) {
		priv.Use(httpmiddleware.Auth(authService.Tokens()))
		priv.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		priv.Get("/auth/me", h.Me)
		priv.With(httpmiddleware.RequireAdministrador(rbac)).
			Post("/auth/revoke", h.Revoke)

		priv.Route("/usuarios", func(u chi.Router) {
			u.Get("/", h.ListUsuarios)
			u.Post("/", h.CriarUsuario)
			u.Get("/{id}", h.GetUsuario)
			u.Patch("/{id}", h.AtualizarUsuario)
			u.Delete("/{id}", h.DeletarUsuario)
			u.Get("/{id}/secretarias", h.SecretariasDoUsuario)
		})

		priv.Route("/demandas", func(d chi.Router) {
			d.Get("/", h.ListDemandas)
			d.Post("/", h.CriarDemanda)
			d.Get("/{id}", h.GetDemanda)
			d.Patch("/{id}/status", h.AtualizarStatusDemanda)
			d.Get("/{id}/anexos", h.AnexosDemanda)
			d.Post("/{id}/anexos", h.AnexarFotoDemanda)
			d.Delete("/{id}", h.DeletarDemanda)
		})

		priv.Route("/secretarias", func(s chi.Router) {
			s.Get("/", h.ListSecretarias)
			s.Get("/{id}", h.GetSecretaria)
			s.Group(func(adm chi.Router) {
				adm.Use(httpmiddleware.RequireAdministrador(rbac))
				adm.Post("/", h.CriarSecretaria)
				adm.Put("/{id}", h.AtualizarSecretaria)
				adm.Delete("/{id}", h.DeletarSecretaria)
			})
		})

		priv.Route("/tipos-demanda", func(t chi.Router) {
			t.Get("/", h.ListTiposDemanda)
			t.Group(func(adm chi.Router) {
				adm.Use(httpmiddleware.RequireAdministrador(rbac))
				adm.Post("/", h.CriarTipoDemanda)
				adm.Delete("/{id}", h.DeletarTipoDemanda)
			})
		})

		priv.Route("/grupos", func(g chi.Router) {
			g.Use(httpmiddleware.RequireAdministrador(rbac))
			g.Get("/", h.ListGrupos)
			g.Post("/", h.CriarGrupo)
			g.Get("/{id}/permissoes", h.ListPermissoes)
			g.Post("/{id}/permissoes", h.CriarPermissao)
			g.Delete("/{id}/permissoes/{permissaoID}", h.DeletarPermissao)
			g.Delete("/{id}", h.DeletarGrupo)
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
