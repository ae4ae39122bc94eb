package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/igolaizola/rapgen/pkg/beat"
	"github.com/igolaizola/rapgen/pkg/export"
	"github.com/igolaizola/rapgen/pkg/generator"
	"github.com/igolaizola/rapgen/pkg/lyrics"
)

const (
	msgRequired      = "theme, mood, and length are required"
	msgInvalidLength = "Invalid length option"
	msgFailed        = "Failed to generate lyrics"
	msgExportFailed  = "Export failed"
)

// DevOrigins are the frontend dev servers allowed outside production.
var DevOrigins = []string{"http://localhost:5173", "http://localhost:5174"}

type Config struct {
	Debug      bool
	Production bool
	Addr       string
	// Dist is the folder with the compiled frontend.
	Dist      string
	Watermark string
}

// Server exposes lyric generation, card export and the beat catalog over
// HTTP. It keeps no per-user state.
type Server struct {
	cfg      *Config
	client   generator.Client
	catalog  *beat.Catalog
	renderer export.Renderer
}

func New(cfg *Config, client generator.Client, catalog *beat.Catalog, renderer export.Renderer) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Server{
		cfg:      cfg,
		client:   client,
		catalog:  catalog,
		renderer: renderer,
	}
}

// Router returns the HTTP handler of the server.
func (s *Server) Router() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Timeout(60 * time.Second))
	if !s.cfg.Production {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   DevOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	mux.Group(func(r chi.Router) {
		if s.cfg.Debug {
			r.Use(middleware.Logger)
		}
		r.Post("/api/lyrics", s.lyrics)
		r.Get("/api/health", s.health)
		r.Post("/api/export", s.export)
		r.Get("/api/beats", s.beats)
	})

	if s.catalog != nil {
		mux.Get("/beats/*", http.StripPrefix("/beats/", http.FileServer(http.Dir(s.catalog.Dir()))).ServeHTTP)
	}
	mux.Get("/*", s.frontend)
	return mux
}

// Serve listens until the context is done and then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Router(),
	}
	errC := make(chan error, 1)
	go func() {
		log.Printf("api: listening on http://%s\n", displayAddr(s.cfg.Addr))
		log.Printf("api: lyrics http://%s/api/lyrics\n", displayAddr(s.cfg.Addr))
		log.Printf("api: health http://%s/api/health\n", displayAddr(s.cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if errors.Is(err, syscall.EADDRINUSE) {
				err = fmt.Errorf("api: port already in use %s: %w", s.cfg.Addr, err)
			} else {
				err = fmt.Errorf("api: couldn't start server: %w", err)
			}
			errC <- err
			return
		}
		errC <- nil
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}
	log.Println("api: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: forced shutdown: %w", err)
	}
	return <-errC
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type lyricsRequest struct {
	Theme  string `json:"theme"`
	Mood   string `json:"mood"`
	Length string `json:"length"`
}

type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
}

func (s *Server) lyrics(w http.ResponseWriter, r *http.Request) {
	var body lyricsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && s.cfg.Debug {
		log.Printf("api: couldn't decode lyrics request: %v\n", err)
	}
	if body.Theme == "" || body.Mood == "" || body.Length == "" {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: msgRequired})
		return
	}
	length, err := lyrics.ParseLength(body.Length)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: msgInvalidLength})
		return
	}
	profile, _ := lyrics.ProfileOf(length)
	req := lyrics.Request{Theme: body.Theme, Mood: body.Mood, Length: length}

	text, err := s.client.Generate(r.Context(), req, profile.Budget)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("api: backend returned no text: %w", lyrics.ErrEmptyResponse)
	}
	if err != nil {
		log.Printf("api: couldn't generate lyrics: %v\n", err)
		status := http.StatusBadGateway
		if errors.Is(err, lyrics.ErrConfiguration) {
			status = http.StatusInternalServerError
		}
		resp := &errorResponse{Error: msgFailed}
		if !s.cfg.Production {
			resp.Details = err.Error()
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, &lyricsResponse{Lyrics: strings.TrimSpace(text)})
}

// Health is the payload of the health endpoint.
type Health struct {
	Status    string `json:"status"`
	Port      string `json:"port"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	_, port, err := net.SplitHostPort(s.cfg.Addr)
	if err != nil {
		port = s.cfg.Addr
	}
	writeJSON(w, http.StatusOK, &Health{
		Status:    "ok",
		Port:      port,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type exportRequest struct {
	Lyrics    string `json:"lyrics"`
	Watermark string `json:"watermark"`
	Filename  string `json:"filename"`
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	var body exportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && s.cfg.Debug {
		log.Printf("api: couldn't decode export request: %v\n", err)
	}
	if strings.TrimSpace(body.Lyrics) == "" {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: "lyrics are required"})
		return
	}
	watermark := body.Watermark
	if watermark == "" {
		watermark = s.cfg.Watermark
	}
	filename := filepath.Base(body.Filename)
	if body.Filename == "" || filename == "." || filename == "/" {
		filename = export.DefaultFilename
	}

	// Each request gets its own compositor, the in-flight guard is per user
	var written bool
	download := export.DownloaderFunc(func(ctx context.Context, name, contentType string, data []byte) error {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		written = true
		_, err := w.Write(data)
		return err
	})
	c := export.New(&export.Config{
		Debug: s.cfg.Debug,
		Alert: func(msg string) { log.Printf("api: %s\n", msg) },
	}, s.renderer, download)
	if err := c.Export(r.Context(), export.DefaultCard(body.Lyrics), body.Lyrics, watermark, filename); err != nil {
		log.Printf("api: couldn't export card: %v\n", err)
		if written {
			return
		}
		resp := &errorResponse{Error: msgExportFailed}
		if !s.cfg.Production {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

// Beat is a catalog entry. Duration is omitted for streams.
type Beat struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Format   string   `json:"format"`
	Duration *float64 `json:"duration,omitempty"`
}

func (s *Server) beats(w http.ResponseWriter, r *http.Request) {
	beats := []*Beat{}
	if s.catalog != nil {
		for _, t := range s.catalog.List() {
			b := &Beat{
				Name:   t.Name,
				URL:    "/beats/" + t.Name,
				Format: t.Format,
			}
			if !math.IsInf(t.Duration, 0) && !math.IsNaN(t.Duration) {
				d := t.Duration
				b.Duration = &d
			}
			beats = append(beats, b)
		}
	}
	writeJSON(w, http.StatusOK, beats)
}

const missingFrontend = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <title>Rap Lyrics Generator</title>
    <style>
      body { font-family: Arial, sans-serif; background: #111; color: #eee; text-align: center; padding: 4rem; }
      a { color: #58c4ff; }
    </style>
  </head>
  <body>
    <h1>Frontend build not found</h1>
    <p>No compiled assets were found in the <code>dist</code> directory. Build the frontend to generate the bundle.</p>
  </body>
</html>`

func (s *Server) frontend(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(s.cfg.Dist, "index.html")
	if s.cfg.Dist == "" || !exists(index) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(missingFrontend))
		return
	}
	name := filepath.Join(s.cfg.Dist, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}
	http.ServeFile(w, r, index)
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: couldn't encode response: %v\n", err)
	}
}
