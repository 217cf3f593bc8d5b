package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lws-dev/hiring/backend/internal/config"
	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Retrieve(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

type Assistant interface {
	GenerateJob(ctx context.Context, sourceText string) (*domain.JobDraft, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

type PageFetcher interface {
	SourceText(ctx context.Context, input string) string
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	publisher   Publisher
	redisClient *redis.Client
	store       ObjectStore
	assistant   Assistant
	fetcher     PageFetcher

	Mux *chi.Mux
}

type Dependencies struct {
	Repository  *repository.Repository
	Publisher   Publisher
	RedisClient *redis.Client
	Store       ObjectStore
	Assistant   Assistant
	Fetcher     PageFetcher
}

func NewHandler(cfg *config.Config, deps Dependencies) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  deps.Repository,
		translator:  trans,
		publisher:   deps.Publisher,
		redisClient: deps.RedisClient,
		store:       deps.Store,
		assistant:   deps.Assistant,
		fetcher:     deps.Fetcher,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/livez", h.Livez)
	h.Mux.Get("/healthz", h.Healthz)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/verify", h.Verify)
		r.With(h.authenticate).Post("/logout", h.Logout)
	})

	// everything below requires a session
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/me", h.GetMe)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", h.CreateProject)
			r.Get("/", h.GetMyProjects)
			r.Get("/invites/accept", h.AcceptInvite)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Use(h.project)
				r.Get("/", h.GetProject)
				r.Delete("/", h.DeleteProject)
				r.Post("/invites", h.InviteMember)
				r.Get("/members", h.GetProjectMembers)
				r.Route("/jobs", func(r chi.Router) {
					r.Post("/", h.CreateJob)
					r.Get("/", h.GetProjectJobs)
					r.Delete("/", h.DeleteJobsByDepartment)
					r.Post("/generate", h.GenerateJob)
					r.Route("/{jobID}", func(r chi.Router) {
						r.Use(h.job)
						r.Get("/", h.GetJob)
						r.Patch("/", h.UpdateJob)
						r.Delete("/", h.DeleteJob)
					})
				})
			})
		})

		r.Route("/evaluations", func(r chi.Router) {
			r.Post("/", h.CreateEvaluation)
			r.Get("/", h.GetMyEvaluations)
			r.Route("/{evaluationID}", func(r chi.Router) {
				r.Use(h.evaluation)
				r.Get("/", h.GetEvaluation)
				r.Get("/resumes", h.GetEvaluationResumes)
				r.Get("/search", h.SearchResumes)
			})
		})

		r.With(h.resume).Get("/resumes/{resumeID}/content", h.GetResumeContent)
	})
}
