package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/engine"
	"github.com/rushteam/moodrec/filter"
)

// maxBodyBytes 限制请求体大小。
const maxBodyBytes = 1 << 20

// RecommendRequest 是 POST /recommend 的请求体。
type RecommendRequest struct {
	Text string `json:"text" validate:"notblank"`
	// MaxBooks 为 0 时使用服务端默认值
	MaxBooks      int      `json:"max_books" validate:"omitempty,gte=3,lte=20"`
	ExcludeTitles []string `json:"exclude_titles" validate:"omitempty,dive,required"`
}

// ErrorResponse 是错误响应体。
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"books":      s.engine.Corpus().Len(),
		"classifier": s.engine.ClassifierName(),
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	var req RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be a JSON object", requestID, err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", validationMessage(err), requestID, nil)
		return
	}

	var params map[string]any
	if len(req.ExcludeTitles) > 0 {
		params = map[string]any{filter.ParamExcludeTitles: req.ExcludeTitles}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.engine.RecommendRequest(ctx, engine.Request{
		Text:      req.Text,
		MaxBooks:  req.MaxBooks,
		Params:    params,
		RequestID: requestID,
	})
	if err != nil {
		status, code := statusFor(err)
		s.respondError(w, status, code, "failed to generate recommendations", requestID, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// statusFor 把领域错误映射为 HTTP 状态码。
func statusFor(err error) (int, string) {
	var de *core.DomainError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case core.IsClassifierError(err):
		if errors.As(err, &de) {
			return http.StatusBadGateway, de.Code
		}
		return http.StatusBadGateway, core.ErrorCodeUnavailable
	case core.IsInvalidInput(err):
		return http.StatusBadRequest, core.ErrorCodeInvalidInput
	default:
		return http.StatusInternalServerError, core.ErrorCodeInternalError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Text":
		return "text must not be empty"
	case "MaxBooks":
		return "max_books must be between 3 and 20"
	default:
		return strings.ToLower(fe.Field()) + " is invalid"
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message, requestID string, err error) {
	if err != nil {
		ev := s.logger.Warn()
		if status >= http.StatusInternalServerError {
			ev = s.logger.Error()
		}
		ev.Err(err).Str("request_id", requestID).Str("code", code).Int("status", status).Msg("request failed")
	}
	respondJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, RequestID: requestID}})
}
