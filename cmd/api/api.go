package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazaar/docs" //this is required to generate swagger docs
	"bazaar/internal/auth"
	"bazaar/internal/cart"
	"bazaar/internal/checkout"
	"bazaar/internal/favorites"
	"bazaar/internal/mailer"
	"bazaar/internal/ratelimiter"
	"bazaar/internal/session"
	"bazaar/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	sessions      *session.Store
	carts         *cart.Selector
	favorites     *favorites.Selector
	checkout      *checkout.Service
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	redis       redisConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	session     sessionConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type redisConfig struct {
	addr     string
	password string
	db       int
}

type sessionConfig struct {
	cookieName string
	ttl        time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/{productID}", app.getProductHandler)

			// Admin catalog management
			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Use(app.RequireRole("admin"))
				r.Post("/", app.createProductHandler)
				r.Patch("/{productID}", app.updateProductHandler)
				r.Post("/{productID}/image", app.uploadProductImageHandler)
			})
		})

		// Cart and favorites serve both anonymous (session cookie) and
		// authenticated (Bearer token) callers.
		r.Group(func(r chi.Router) {
			r.Use(app.SessionMiddleware)
			r.Use(app.OptionalAuthMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", app.getCartHandler)
				r.Get("/count", app.getCartCountHandler)
				r.Delete("/", app.clearCartHandler)
				r.Post("/{productID}", app.addToCartHandler)
				r.Patch("/{productID}", app.updateCartQuantityHandler)
				r.Delete("/{productID}", app.removeFromCartHandler)
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", app.listFavoritesHandler)
				r.Delete("/", app.clearFavoritesHandler)
				r.Post("/{productID}/toggle", app.toggleFavoriteHandler)
				r.Put("/{productID}", app.addFavoriteHandler)
				r.Delete("/{productID}", app.removeFavoriteHandler)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(app.SessionMiddleware)
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.createOrderHandler)
			r.Get("/", app.listOrdersHandler)
			r.Get("/{orderID}", app.getOrderHandler)
		})

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Use(app.SessionMiddleware)
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		r.With(app.AuthTokenMiddleware).Post("/users/logout", app.logoutHandler)
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
