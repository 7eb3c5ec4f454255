// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/alan-mat/sqlsuggest/internal/provider"
	"github.com/alan-mat/sqlsuggest/internal/suggest"
)

type ServerConfig struct {
	ListenHost string
	ListenPort int

	SuggestPath    string
	AllowedOrigins []string

	ShutdownTimeout time.Duration

	// APIKey is the provider credential. When empty every suggestion
	// request fails, naming KeyEnv as the variable to set.
	APIKey string
	KeyEnv string

	Completion suggest.Options
}

func DefaultConfig() ServerConfig {
	return ServerConfig{
		ListenPort:      8080,
		SuggestPath:     "/api/ai/sql/suggest",
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: 10 * time.Second,
		KeyEnv:          provider.LMProviderTypeOpenAI.KeyEnv(),
		Completion: suggest.Options{
			MaxTokens: suggest.DefaultMaxTokens,
		},
	}
}

// Server serves the suggestion endpoint over HTTP.
type Server struct {
	config ServerConfig

	provider provider.LMProvider
	engine   *gin.Engine
}

// New builds the server and its routes. prov may be nil only when
// config.APIKey is empty.
func New(config ServerConfig, prov provider.LMProvider) *Server {
	s := &Server{
		config:   config,
		provider: prov,
	}
	s.engine = s.buildEngine()
	return s
}

func (s *Server) buildEngine() *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), RequestID(), Logger())
	if m := CORS(s.config.AllowedOrigins); m != nil {
		r.Use(m)
	}

	r.GET("/healthz", s.Health)

	// every method is routed so the handler answers with its own 405
	r.Any(s.config.SuggestPath, s.Suggest)

	return r
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	lisAddr := net.JoinHostPort(s.config.ListenHost, strconv.Itoa(s.config.ListenPort))
	srv := &http.Server{
		Addr:              lisAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server starting", "listener", lisAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to serve", "err", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Server shutting down", "timeout", s.config.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
