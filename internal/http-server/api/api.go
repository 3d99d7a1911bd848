package api

import (
	"CaseLink/internal/config"
	"CaseLink/internal/http-server/handlers/conversation"
	"CaseLink/internal/http-server/handlers/errors"
	"CaseLink/internal/http-server/handlers/files"
	"CaseLink/internal/http-server/handlers/message"
	"CaseLink/internal/http-server/handlers/whatsapp"
	"CaseLink/internal/http-server/middleware/authenticate"
	"CaseLink/internal/lib/api/cont"
	"CaseLink/internal/lib/sl"
	"CaseLink/internal/ws"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const requestTimeout = 30 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	conversation.Core
	message.Core
	files.Core
	whatsapp.Core
}

// NewRouter builds the HTTP surface. hub may be nil, then the socket endpoint is not mounted.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub, verifier whatsapp.Verifier) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(withEnv(conf.Env))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/api/v1", func(v1 chi.Router) {
		if hub != nil {
			v1.Get("/ws", ws.ServeWs(hub, handler, conf.Ws.AllowOrigins, log))
		}

		authenticated := func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(authenticate.New(log, handler))
		}

		v1.With(middleware.Timeout(requestTimeout)).Get("/files/{file_id}", files.Download(log, handler))

		v1.Route("/conversations", func(r chi.Router) {
			authenticated(r)
			r.Post("/", conversation.Create(log, handler))
			r.Get("/case/{case_id}", conversation.ForCase(log, handler))
			r.Get("/user/recent", conversation.Recent(log, handler))
			r.Get("/user/unread", conversation.Unread(log, handler))
			r.Get("/search", conversation.Search(log, handler))
			r.Get("/admin/statistics", conversation.Statistics(log, handler))
			r.Get("/admin/all", conversation.All(log, handler))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversation.Get(log, handler))
				r.Get("/export", conversation.Export(log, handler))
				r.Patch("/status", conversation.SetStatus(log, handler))
				r.Patch("/priority", conversation.SetPriority(log, handler))
				r.Get("/participants", conversation.Participants(log, handler))
				r.Post("/participants", conversation.AddParticipant(log, handler))
				r.Get("/messages", message.List(log, handler))
				r.Post("/messages", message.Send(log, handler))
				r.Post("/messages/{message_id}/read", message.MarkRead(log, handler))
				r.Delete("/messages/{message_id}", message.Delete(log, handler))
			})
		})

		v1.Route("/whatsapp", func(r chi.Router) {
			// the provider signs deliveries instead of sending a token
			r.Post("/webhook", whatsapp.Webhook(log, handler, verifier, whatsapp.WebhookOptions{
				CallbackURL:       conf.Twilio.WebhookURL,
				ValidateSignature: conf.Twilio.ValidateSig,
				Timeout:           conf.Twilio.WebhookTimeout,
			}))

			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Post("/map-phone", whatsapp.MapPhone(log, handler))
				r.Get("/mappings", whatsapp.Mappings(log, handler))
				r.Post("/send", whatsapp.Send(log, handler))
				r.Get("/status", whatsapp.Status(log, handler))
				r.Get("/messages/{phone}", whatsapp.History(log, handler))
			})
		})
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub, verifier whatsapp.Verifier) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:           NewRouter(conf, log, handler, hub, verifier),
		ErrorLog:          httpLog,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}

func withEnv(env string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(cont.PutEnv(r.Context(), env)))
		})
	}
}
