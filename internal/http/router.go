package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/praticaeng/obrasflow/internal/cache"
	"github.com/praticaeng/obrasflow/internal/config"
	httpmiddleware "github.com/praticaeng/obrasflow/internal/http/middleware"
	"github.com/praticaeng/obrasflow/internal/permissao"
	"github.com/praticaeng/obrasflow/internal/remote"
	"github.com/praticaeng/obrasflow/internal/repo"
	"github.com/praticaeng/obrasflow/internal/service"
	"github.com/praticaeng/obrasflow/internal/store"
)

// Handler agrega as dependências das rotas da API.
type Handler struct {
	cfg           *config.Config
	engine        *store.Engine
	repo          *repo.Repository
	remote        *remote.Client
	redis         *redis.Client
	authService   *service.AuthService
	perms         *permissao.Filtro
	ferramentas   *cache.Ferramentas
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// Deps reúne as dependências externas do roteador. Remote e Redis são
// opcionais: nil desliga o backend remoto e o cache, respectivamente.
type Deps struct {
	Engine      *store.Engine
	Repo        *repo.Repository
	Remote      *remote.Client
	Redis       *redis.Client
	AuthService *service.AuthService
	Ferramentas *cache.Ferramentas
}

// NewRouter devolve o roteador configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	h := &Handler{
		cfg:           cfg,
		engine:        deps.Engine,
		repo:          deps.Repo,
		remote:        deps.Remote,
		redis:         deps.Redis,
		authService:   deps.AuthService,
		perms:         permissao.New(deps.Repo),
		ferramentas:   deps.Ferramentas,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Post("/v1/auth/login", h.Login)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(h.authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/v1/me", h.Me)

		private.Route("/v1/obras", func(o chi.Router) {
			o.Get("/", h.ListObras)
			o.Post("/", h.CreateObra)
			o.Get("/{id}", h.GetObra)
			o.Patch("/{id}", h.UpdateObra)
			o.Delete("/{id}", h.DeleteObra)
			o.Get("/{id}/imagens", h.ListObraImagens)
			o.Post("/{id}/imagens", h.CreateObraImagem)
			o.Delete("/{id}/imagens/{imagemID}", h.DeleteObraImagem)
		})

		private.Route("/v1/estabelecimentos", func(e chi.Router) {
			e.Get("/", h.ListEstabelecimentos)
			e.Post("/", h.CreateEstabelecimento)
			e.Get("/{id}", h.GetEstabelecimento)
			e.Patch("/{id}", h.UpdateEstabelecimento)
			e.Delete("/{id}", h.DeleteEstabelecimento)
		})

		private.Route("/v1/ferramentas", func(f chi.Router) {
			f.Get("/", h.ListFerramentas)
			f.Get("/desaparecidas", h.ListFerramentasDesaparecidas)
			f.Post("/", h.CreateFerramenta)
			f.Get("/{id}", h.GetFerramenta)
			f.Patch("/{id}", h.UpdateFerramenta)
			f.Delete("/{id}", h.DeleteFerramenta)
			f.Get("/{id}/movimentacoes", h.ListMovimentacoes)
		})

		private.Post("/v1/movimentacoes", h.CreateMovimentacao)
		private.Get("/v1/historico", h.ListHistorico)

		private.Route("/v1/equipe", func(eq chi.Router) {
			eq.Get("/", h.ListEquipe)
			eq.Group(func(host chi.Router) {
				host.Use(httpmiddleware.RequireHost)
				host.Post("/", h.CreateFuncionario)
				host.Delete("/{id}", h.DeleteFuncionario)
			})
		})

		private.Group(func(host chi.Router) {
			host.Use(httpmiddleware.RequireHost)
			host.Route("/v1/permissoes", func(p chi.Router) {
				p.Get("/obras/{usuarioID}", h.ListPermissoesObra)
				p.Put("/obras/{usuarioID}/{obraID}", h.SetPermissaoObra)
				p.Delete("/obras/{usuarioID}/{obraID}", h.DeletePermissaoObra)
				p.Get("/ferramentas/{usuarioID}", h.ListPermissoesFerramenta)
				p.Put("/ferramentas/{usuarioID}/{ferramentaID}", h.SetPermissaoFerramenta)
				p.Delete("/ferramentas/{usuarioID}/{ferramentaID}", h.DeletePermissaoFerramenta)
			})
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida a base embutida e, quando configurado, o Redis. O backend
// remoto fica de fora de propósito: a API continua pronta sem ele.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.engine.Init(ctx); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "base embutida indisponível", map[string]any{
			"store": err.Error(),
		})
		return
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "redis indisponível", map[string]any{
				"redis": err.Error(),
			})
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// usuarioAtual carrega o usuário autenticado a partir do subject do token.
func (h *Handler) usuarioAtual(r *http.Request) (*repo.Usuario, error) {
	subject := httpmiddleware.GetSubject(r.Context())
	if subject == "" {
		return nil, errors.New("subject ausente")
	}
	return h.authService.GetUsuario(r.Context(), subject)
}

// ownerIDs resolve os hosts da empresa do usuário, escopo de toda listagem.
func (h *Handler) ownerIDs(r *http.Request, u *repo.Usuario) []string {
	return h.authService.CompanyHostIDs(r.Context(), u)
}
