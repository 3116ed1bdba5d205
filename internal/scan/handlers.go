package scan

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/zombor/product-scanner/internal/classifying"
	"github.com/zombor/product-scanner/internal/credential"
)

// maxUploadSize bounds uploaded photos (20MB covers high-resolution phone pictures)
const maxUploadSize = int64(20 << 20)

// errorResponse is the body of every failed API call
type errorResponse struct {
	Error string    `json:"error"`
	Kind  ErrorKind `json:"kind,omitempty"`
	State *State    `json:"state,omitempty"`
}

// categoryResponse describes one category for the UI
type categoryResponse struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Hint  string `json:"hint"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError maps err to a status code and writes it with the current state
func writeError(w http.ResponseWriter, err error, state *State) {
	code := http.StatusInternalServerError
	var kind ErrorKind
	switch {
	case errors.Is(err, ErrAnalysisInFlight):
		code = http.StatusConflict
	case errors.Is(err, ErrConfirmationRequired):
		code = http.StatusPreconditionRequired
	case errors.Is(err, ErrHistoryItemNotFound):
		code = http.StatusNotFound
	case errors.Is(err, credential.ErrEmptyKey):
		code = http.StatusBadRequest
	case errors.Is(err, classifying.ErrInputMissing):
		code, kind = http.StatusBadRequest, ErrorKindInput
	case errors.Is(err, classifying.ErrInvalidFileType):
		code, kind = http.StatusBadRequest, ErrorKindFile
	case classifying.IsAuthError(err):
		code, kind = http.StatusUnauthorized, ErrorKindAuth
	default:
		var classErr *classifying.ClassificationError
		if errors.As(err, &classErr) {
			code, kind = http.StatusBadGateway, ErrorKindClassification
		}
	}
	writeJSON(w, code, errorResponse{Error: err.Error(), Kind: kind, State: state})
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		setCORSHeaders(w)
		http.NotFound(w, r)
		return
	}
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleGetState returns the current view state
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.State())
}

// handleSwitchTab switches between the analyze and history tabs
func (s *Server) handleSwitchTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	tab, err := ParseTab(req.Tab)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.controller.SwitchTab(tab))
}

// handleUploadImage accepts a product photo
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: uploadErrorMessage(err), Kind: ErrorKindFile})
		return
	}

	state, err := s.readUpload(r)
	if err != nil {
		writeError(w, err, &state)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// readUpload hands the "file" form field, if present, to the controller
func (s *Server) readUpload(r *http.Request) (State, error) {
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return s.controller.State(), classifying.ErrInvalidFileType
	}
	if err != nil {
		return s.controller.State(), err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		return s.controller.State(), err
	}

	return s.controller.UploadImage(data, header.Header.Get("Content-Type"), header.Filename)
}

// uploadErrorMessage turns a form parsing error into a message for the user
func uploadErrorMessage(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return "File is too large. Maximum size is 20MB. Please compress or resize your image."
	}
	return "Error parsing form"
}

// handleClearImage drops the current photo
func (s *Server) handleClearImage(w http.ResponseWriter, r *http.Request) {
	state, err := s.controller.ClearImage()
	if err != nil {
		writeError(w, err, &state)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleSetDescription replaces the product description
func (s *Server) handleSetDescription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	state, err := s.controller.SetDescription(req.Description)
	if err != nil {
		writeError(w, err, &state)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleAnalyze classifies the current photo and description. A multipart
// body may carry a new "file" and "description" in the same request.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			slog.Error("Error parsing multipart form", "error", err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: uploadErrorMessage(err), Kind: ErrorKindFile})
			return
		}
		if _, ok := r.MultipartForm.File["file"]; ok {
			if state, err := s.readUpload(r); err != nil {
				writeError(w, err, &state)
				return
			}
		}
		if values, ok := r.MultipartForm.Value["description"]; ok && len(values) > 0 {
			if state, err := s.controller.SetDescription(values[0]); err != nil {
				writeError(w, err, &state)
				return
			}
		}
	case "application/json":
		var req struct {
			Description *string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
			return
		}
		if req.Description != nil {
			if state, err := s.controller.SetDescription(*req.Description); err != nil {
				writeError(w, err, &state)
				return
			}
		}
	}

	state, err := s.controller.Analyze(r.Context())
	if err != nil {
		writeError(w, err, &state)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleReset starts a new scan
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.controller.Reset()
	if err != nil {
		writeError(w, err, &state)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleListHistory returns the stored scans, newest first
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.History())
}

// handleSelectHistory replays a stored scan
func (s *Server) handleSelectHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "History ID required"})
		return
	}
	state, err := s.controller.SelectHistory(id)
	if err != nil {
		writeError(w, err, &state)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleClearHistory deletes all stored scans; requires ?confirm=true
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := s.controller.ClearHistory(confirmed); err != nil {
		slog.Error("Error clearing history", "error", err)
		writeError(w, err, nil)
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleListCategories returns the category list with icons
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories := make([]categoryResponse, 0, len(classifying.Categories))
	for _, c := range classifying.Categories {
		categories = append(categories, categoryResponse{Label: c.String(), Icon: c.Icon(), Hint: c.Hint()})
	}
	writeJSON(w, http.StatusOK, categories)
}

// handleGetCredential reports whether a key is selected
func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Selectable bool `json:"selectable"`
		Selected   bool `json:"selected"`
		Prompt     bool `json:"prompt"`
	}{}
	if s.keys != nil {
		resp.Selectable = true
		resp.Selected, _ = s.keys.HasCredential(r.Context())
		resp.Prompt = s.keys.Prompted()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSelectCredential stores the key picked by the user
func (s *Server) handleSelectCredential(w http.ResponseWriter, r *http.Request) {
	if s.keys == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "API key selection is not available"})
		return
	}
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if err := s.keys.Select(req.APIKey); err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.controller.CredentialSelected())
}

// handlePromptCredential reopens the key picker
func (s *Server) handlePromptCredential(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.PromptCredential(r.Context()))
}
