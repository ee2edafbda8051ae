// Package mockllm serves canned completions over the OpenAI chat completions,
// Anthropic messages and Gemini generateContent wire formats, so the pipeline
// can run end to end without spending tokens.
package mockllm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/distill/pkg/logger"
)

// Responder produces the completion text for a prompt sent to the named wire format
type Responder func(provider, prompt string) string

// Server is a mock language-model server
type Server struct {
	router    *mux.Router
	config    *ServerConfig
	server    *http.Server
	responder Responder

	mu      sync.Mutex
	prompts []string
}

// ServerConfig holds the listen address of the mock server
type ServerConfig struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}
	return nil
}

// Option configures a Server
type Option func(*Server)

// WithResponder replaces the canned responder
func WithResponder(r Responder) Option {
	return func(s *Server) {
		s.responder = r
	}
}

// NewServer creates a mock server
func NewServer(config *ServerConfig, opts ...Option) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router:    mux.NewRouter(),
		config:    config,
		responder: CannedResponder,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/v1/chat/completions", s.handleChatCompletions).Methods("POST")
	s.router.HandleFunc("/v1/messages", s.handleMessages).Methods("POST")
	s.router.HandleFunc("/{version}/models/{model}:generateContent", s.handleGenerateContent).Methods("POST")
	s.router.Use(s.loggingMiddleware)
}

// Handler returns the HTTP handler, for use with httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Prompts returns the prompts received so far
func (s *Server) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *Server) record(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

// lastUserPrompt returns the text of the last user message. Content may be a
// plain string or a list of typed blocks.
func (r chatRequest) lastUserPrompt() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		m := r.Messages[i]
		if m.Role != "user" {
			continue
		}
		var text string
		if err := json.Unmarshal(m.Content, &text); err == nil {
			return text
		}
		var blocks []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(m.Content, &blocks); err == nil {
			var parts []string
			for _, b := range blocks {
				if b.Type == "text" {
					parts = append(parts, b.Text)
				}
			}
			return strings.Join(parts, "\n")
		}
	}
	return ""
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	prompt := req.lastUserPrompt()
	s.record(prompt)

	model := req.Model
	if model == "" {
		model = "gpt-4-mock"
	}
	s.writeJSONResponse(w, map[string]any{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": s.responder("openai", prompt)},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	prompt := req.lastUserPrompt()
	s.record(prompt)

	model := req.Model
	if model == "" {
		model = "claude-mock"
	}
	s.writeJSONResponse(w, map[string]any{
		"id":            "msg_" + uuid.NewString(),
		"type":          "message",
		"role":          "assistant",
		"model":         model,
		"content":       []map[string]any{{"type": "text", "text": s.responder("anthropic", prompt)}},
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 100, "output_tokens": 50},
	})
}

func (s *Server) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var prompt string
	if n := len(req.Contents); n > 0 {
		var parts []string
		for _, p := range req.Contents[n-1].Parts {
			parts = append(parts, p.Text)
		}
		prompt = strings.Join(parts, "\n")
	}
	s.record(prompt)

	s.writeJSONResponse(w, map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": s.responder("google", prompt)}},
			},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 100, "candidatesTokenCount": 50, "totalTokenCount": 150},
		"modelVersion":  mux.Vars(r)["model"],
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
		}).Debug("mock llm request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Warn(message)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"type": "invalid_request_error", "message": message},
	})
}

// Address returns host:port
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "mock llm server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Stop closes the server immediately
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
