// Package httpapi exposes the JSON HTTP surface of the service.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/owoa/splitbill/internal/ai"
	"github.com/owoa/splitbill/internal/auth"
	"github.com/owoa/splitbill/internal/middleware"
	"github.com/owoa/splitbill/internal/models"
	"github.com/owoa/splitbill/internal/ratelimit"
	"github.com/owoa/splitbill/internal/service"
)

// maxUploadBytes bounds receipt uploads (images only, well under this).
const maxUploadBytes = 10 << 20

// Dependencies wires the server's collaborators.
type Dependencies struct {
	Addr          string
	AccessService *service.AccessService
	ResultService *service.ResultService
	JWTManager    *auth.JWTManager
}

// Server serves the split-bill JSON API.
type Server struct {
	httpServer    *http.Server
	mux           *http.ServeMux
	accessService *service.AccessService
	resultService *service.ResultService
}

// NewServer builds the route table and middleware chain.
func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:           mux,
		accessService: d.AccessService,
		resultService: d.ResultService,
	}

	mux.HandleFunc("POST /api/split-bill", s.handleSplitBill)
	mux.HandleFunc("POST /api/verify-passcode", s.handleVerifyPasscode)
	mux.HandleFunc("PATCH /api/update-result", s.handleUpdateResult)
	mux.HandleFunc("PATCH /api/result-protection", s.handleResultProtection)
	mux.HandleFunc("GET /api/result/{id}", s.handleGetResult)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	if d.JWTManager != nil {
		handler = middleware.OptionalAuth(d.JWTManager)(handler)
	}
	handler = middleware.Logging(middleware.CORS(handler))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped handler, for tests and for h2c
// wrapping in main.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type verifyRequest struct {
	ID       string `json:"id"`
	Passcode string `json:"passcode"`
}

func (s *Server) handleVerifyPasscode(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	clientKey := ratelimit.ClientKey(
		middleware.GetUserID(r.Context()),
		ratelimit.ClientAddr(r),
		r.UserAgent(),
	)

	err := s.accessService.VerifyPasscode(r.Context(), req.ID, req.Passcode, clientKey)
	if err != nil {
		var limited *service.RateLimitedError
		switch {
		case errors.As(err, &limited):
			w.Header().Set("Retry-After", strconv.Itoa(limited.RetryAfterSeconds))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":      "Too many failed attempts. Please try again later.",
				"retryAfter": limited.RetryAfterSeconds,
			})
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrResultNotFound):
			writeError(w, http.StatusNotFound, "Result not found")
		case errors.Is(err, service.ErrIncorrectPasscode):
			writeError(w, http.StatusUnauthorized, "Incorrect passcode")
		case errors.Is(err, service.ErrMisconfigured):
			writeError(w, http.StatusInternalServerError, "Result configuration error")
		default:
			slog.Error("verify passcode error", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to verify passcode")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type updateResultRequest struct {
	ID              string          `json:"id"`
	People          []models.Person `json:"people"`
	TotalTax        float64         `json:"totalTax"`
	TotalServiceFee float64         `json:"totalServiceFee"`
}

func (s *Server) handleUpdateResult(w http.ResponseWriter, r *http.Request) {
	var req updateResultRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	data, err := s.resultService.UpdateResult(r.Context(), req.ID, req.People, req.TotalTax, req.TotalServiceFee)
	if err != nil {
		writeServiceError(w, err, "Failed to update result")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"result_data": data,
	})
}

type protectionRequest struct {
	ID         string `json:"id"`
	Visibility string `json:"visibility"`
	Passcode   string `json:"passcode"`
}

func (s *Server) handleResultProtection(w http.ResponseWriter, r *http.Request) {
	var req protectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.resultService.SetProtection(r.Context(), req.ID, req.Visibility, req.Passcode); err != nil {
		writeServiceError(w, err, "Failed to update protection")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.resultService.GetResult(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Failed to load result")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":                 result.ID,
		"result":             result.ResultData,
		"currency":           result.Currency,
		"receiptImageUrl":    result.ReceiptImageURL,
		"createdAt":          result.CreatedAt,
		"visibility":         result.Visibility,
		"isPrivate":          result.IsPrivate(),
		"paymentInstruction": result.PaymentInstruction,
	})
}

func (s *Server) handleSplitBill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	defer file.Close()

	peopleCount, err := strconv.Atoi(r.FormValue("peopleCount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	result, err := s.resultService.CreateFromReceipt(r.Context(), ai.ParseRequest{
		Image:        image,
		MIMEType:     mimeType,
		PeopleCount:  peopleCount,
		Instructions: r.FormValue("instructions"),
	}, r.FormValue("currency"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ai.ErrUnavailable):
			writeError(w, http.StatusBadGateway, "AI processing failed")
		case errors.Is(err, ai.ErrBadResponse):
			writeError(w, http.StatusInternalServerError, "Invalid AI response format")
		default:
			slog.Error("split bill error", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     result.ID,
		"result": result.ResultData,
	})
}

// writeServiceError maps the common service error taxonomy to HTTP
// status codes; fallbackMsg covers untyped internal failures.
func writeServiceError(w http.ResponseWriter, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrResultNotFound):
		writeError(w, http.StatusNotFound, "Result not found")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, fallbackMsg)
	}
}
