package handlers

import (
	"SchemaDesk/internal/blob"
	"SchemaDesk/internal/config"
	"SchemaDesk/internal/events"
	"SchemaDesk/internal/listing"
	"SchemaDesk/internal/middleware"
	"SchemaDesk/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// Deps - всё, что нужно HTTP-слою.
type Deps struct {
	Users       *service.UserService
	Collections *service.CollectionService
	Items       *service.ItemService
	Views       *listing.Registry
	Uploader    *blob.Uploader
	// Files задан только для хранилища вложений в БД.
	Files  *blob.DBStore
	Hub    *events.Hub
	Logger *zap.SugaredLogger
	Config *config.Config
}

// NewHandler разводящий для хендлеров
func NewHandler(d Deps) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(d.Config.AuthSecret))
	r.Use(middleware.WithSetupGate(d.Users, "/api/bootstrap", "/api/setup"))

	userHandler := NewUserHandler(d.Users, d.Views, d.Logger, d.Config)
	collectionHandler := NewCollectionHandler(d.Collections, d.Views, d.Uploader, d.Logger)
	itemHandler := NewItemHandler(d.Items, d.Collections, d.Views, d.Logger)
	uploadHandler := NewUploadHandler(d.Collections, d.Uploader, d.Logger)

	// Public routes
	r.Get("/api/bootstrap", userHandler.Bootstrap)
	r.Post("/api/setup", userHandler.Setup)
	r.Post("/api/auth/login", userHandler.Login)
	r.Post("/api/auth/logout", userHandler.Logout)
	r.Post("/api/auth/reset", userHandler.RequestReset)
	r.Post("/api/auth/reset/confirm", userHandler.ConfirmReset)
	if d.Files != nil {
		r.Get(blob.FilesPath+"*", NewFilesHandler(d.Files, d.Logger).Serve)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/api/auth/me", userHandler.Me)
		r.Get("/api/field-types", collectionHandler.FieldTypes)

		r.Get("/api/collections", collectionHandler.List)
		r.Post("/api/collections", collectionHandler.Create)
		r.Post("/api/collections/sort", collectionHandler.ToggleSort)

		r.Route("/api/collections/{cid}", func(r chi.Router) {
			r.Get("/", collectionHandler.Get)
			r.Put("/", collectionHandler.Update)
			r.Delete("/", collectionHandler.Delete)
			r.Get("/form", itemHandler.CreateForm)

			r.Get("/items", itemHandler.List)
			r.Post("/items", itemHandler.Create)
			r.Delete("/items", itemHandler.DeleteSelected)
			r.Post("/items/sort", itemHandler.ToggleSort)
			r.Get("/items/{iid}", itemHandler.Get)
			r.Put("/items/{iid}", itemHandler.Update)
			r.Patch("/items/{iid}", itemHandler.Patch)
			r.Delete("/items/{iid}", itemHandler.Delete)
			r.Get("/items/{iid}/form", itemHandler.EditForm)

			r.Get("/selection", itemHandler.Selection)
			r.Delete("/selection", itemHandler.ClearSelection)
			r.Post("/selection/all", itemHandler.SelectAll)
			r.Post("/selection/{iid}", itemHandler.SelectOne)
		})

		r.Post("/api/uploads", uploadHandler.Upload)
		r.Delete("/api/uploads", uploadHandler.Remove)

		if d.Hub != nil {
			r.Get("/api/events", NewEventsHandler(d.Hub, d.Logger).Stream)
		}
	})

	return &Handler{Router: r}
}
