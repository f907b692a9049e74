package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/infrastructure/logger"
)

type errorBody struct {
	Error string `json:"error"`
}

type chatRequest struct {
	Message string                 `json:"message"`
	UseRAG  *bool                  `json:"use_rag"`
	History []entities.ChatMessage `json:"history"`
}

type searchResponse struct {
	Query   string               `json:"query"`
	Results []entities.SearchHit `json:"results"`
}

type uploadResponse struct {
	OK        bool   `json:"ok"`
	Filename  string `json:"filename"`
	Fragments int    `json:"fragments"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Fragments int    `json:"fragments"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrPathOutsideRoot), errors.Is(err, entities.ErrHostNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, entities.ErrToolUnavailable):
		return http.StatusNotImplemented
	case entities.IsStorageError(err):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

// handleIndex renders the chat UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		s.logger.Error("render index", zap.Error(err))
	}
}

// handleChat answers one message.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	useRAG := true
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}

	resp, err := s.queryUseCase.Ask(r.Context(), &entities.ChatRequest{
		Message: req.Message,
		UseRAG:  useRAG,
		History: req.History,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChatStream handles SSE streaming chat.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}
	useRAG := r.URL.Query().Get("rag") != "false"

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	resp, tokens, err := s.queryUseCase.AskStream(ctx, &entities.ChatRequest{Message: query, UseRAG: useRAG})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err != nil {
		sendSSE(w, flusher, map[string]any{"error": err.Error(), "done": true})
		return
	}
	if resp.Tool != nil {
		sendSSE(w, flusher, map[string]any{"tool": resp.Tool, "done": true})
		return
	}
	if len(resp.Sources) > 0 {
		sendSSE(w, flusher, map[string]any{"sources": resp.Sources, "done": false})
	}

	for token := range tokens {
		if token.Error != nil {
			sendSSE(w, flusher, map[string]any{"error": token.Error.Error(), "done": true})
			return
		}
		sendSSE(w, flusher, map[string]any{"content": token.Content, "done": token.Done})
		if token.Done {
			return
		}
	}
}

func sendSSE(w io.Writer, flusher http.Flusher, data map[string]any) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

// handleSearch returns ranked fragments without calling the LLM.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	k := 0
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}

	hits, err := s.queryUseCase.Search(r.Context(), query, k)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: hits})
}

// handleIngest rebuilds the index from the documents directory.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	report, err := s.ingestUseCase.IngestDirectory(r.Context(), s.opts.DocsDir)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleUpload stores one file in the documents directory and re-ingests.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" required")
		return
	}
	defer file.Close()

	name := filepath.Base(filepath.Clean("/" + filepath.ToSlash(header.Filename)))
	if name == "/" || name == "." || name == ".." {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	if err := os.MkdirAll(s.opts.DocsDir, 0o755); err != nil {
		s.fail(w, r, &entities.StorageError{Op: "create documents dir", Err: err})
		return
	}
	if err := saveUpload(filepath.Join(s.opts.DocsDir, name), file); err != nil {
		var storageErr *entities.StorageError
		if errors.As(err, &storageErr) {
			s.fail(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.ingestUseCase.IngestDirectory(r.Context(), s.opts.DocsDir)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{OK: true, Filename: name, Fragments: report.Fragments})
}

// saveUpload writes src to path. A partial file is removed on failure so the
// next ingestion never sees it.
func saveUpload(path string, src io.Reader) error {
	dest, err := os.Create(path)
	if err != nil {
		return &entities.StorageError{Op: "create upload", Err: err}
	}
	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		os.Remove(path)
		return fmt.Errorf("reading upload: %w", err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(path)
		return &entities.StorageError{Op: "write upload", Err: err}
	}
	return nil
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Fragments: n})
}
