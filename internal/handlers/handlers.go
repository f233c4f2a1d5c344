package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/Totarae/Bitlytics/internal/auth"
	"github.com/Totarae/Bitlytics/internal/cache"
	"github.com/Totarae/Bitlytics/internal/model"
	"github.com/Totarae/Bitlytics/internal/normalizer"
	"github.com/Totarae/Bitlytics/internal/repositories"
	"github.com/Totarae/Bitlytics/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler связывает HTTP-слой с сервисами ядра.
type Handler struct {
	Resolver      *service.Resolver
	Creator       *service.Creator
	Repo          repositories.LinkRepositoryInterface
	Cache         cache.Cache
	Auth          *auth.Auth
	Logger        *zap.Logger
	BaseURL       string
	TrustedSubnet string
}

// NewHandler создаёт Handler.
func NewHandler(resolver *service.Resolver, creator *service.Creator, repo repositories.LinkRepositoryInterface,
	c cache.Cache, a *auth.Auth, logger *zap.Logger, baseURL, trustedSubnet string) *Handler {
	return &Handler{
		Resolver:      resolver,
		Creator:       creator,
		Repo:          repo,
		Cache:         c,
		Auth:          a,
		Logger:        logger,
		BaseURL:       strings.TrimSuffix(baseURL, "/"),
		TrustedSubnet: trustedSubnet,
	}
}

// Redirect обрабатывает GET /{code}: единственная обязательная
// I/O-граница до ответа — поиск назначения (кеш либо БД); учёт клика
// уходит в фон до записи ответа.
func (h *Handler) Redirect(res http.ResponseWriter, req *http.Request) {
	code := chi.URLParam(req, "code")
	if code == "" {
		http.Error(res, "Bad Request: Missing code in URL", http.StatusBadRequest)
		return
	}

	meta := model.ClickMeta{
		ClientAddr: clientAddr(req),
		UserAgent:  req.UserAgent(),
		Referrer:   req.Referer(),
	}

	destination, err := h.Resolver.Resolve(req.Context(), code, meta)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			h.Logger.Error("resolution failed", zap.String("code", code), zap.Error(err))
		}
		// Наружу не различаем "не было", "выключена", "истекла" и "БД недоступна"
		http.NotFound(res, req)
		return
	}

	res.Header().Set("Location", destination)
	res.WriteHeader(http.StatusTemporaryRedirect)
}

// ReceiveURL обрабатывает POST / с text/plain телом-URL.
func (h *Handler) ReceiveURL(res http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(res, "BadRequest", http.StatusBadRequest)
		return
	}

	result, err := h.Creator.Create(req.Context(), service.CreateRequest{
		OriginalURL: string(body),
		Owner:       h.Auth.OptionalOwner(req),
	})
	if err != nil {
		h.writeCreateError(res, err)
		return
	}

	res.Header().Set("Content-Type", "text/plain")
	res.WriteHeader(http.StatusCreated)
	res.Write([]byte(h.BaseURL + "/" + result.Code))
}

// ReceiveShorten обрабатывает POST /api/shorten с JSON-телом.
func (h *Handler) ReceiveShorten(res http.ResponseWriter, req *http.Request) {
	var in model.ShortenRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(res, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.Creator.Create(req.Context(), service.CreateRequest{
		OriginalURL: in.URL,
		CustomCode:  in.CustomCode,
		Title:       in.Title,
		Description: in.Description,
		Owner:       h.Auth.OptionalOwner(req),
	})
	if err != nil {
		h.writeCreateError(res, err)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusCreated)
	json.NewEncoder(res).Encode(model.ShortenResponse{Result: h.BaseURL + "/" + result.Code})
}

// writeCreateError переводит ошибки создания в HTTP-статусы:
// валидация — 400, конфликт кода — 409, исчерпание генерации — 500.
func (h *Handler) writeCreateError(res http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCodeTaken):
		http.Error(res, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrGenerationExhausted):
		h.Logger.Error("short code generation exhausted", zap.Error(err))
		http.Error(res, "failed to generate unique short code, please try again", http.StatusInternalServerError)
	case errors.Is(err, service.ErrInvalidCustomCode),
		errors.Is(err, service.ErrReservedCode),
		errors.Is(err, normalizer.ErrEmptyURL),
		errors.Is(err, normalizer.ErrUnsupportedScheme),
		errors.Is(err, normalizer.ErrPrivateAddress),
		errors.Is(err, normalizer.ErrInvalidDomain),
		errors.Is(err, normalizer.ErrInvalidFormat):
		http.Error(res, err.Error(), http.StatusBadRequest)
	default:
		h.Logger.Error("link creation failed", zap.Error(err))
		http.Error(res, "internal server error", http.StatusInternalServerError)
	}
}

// clientAddr извлекает адрес клиента с учётом прокси-заголовков.
func clientAddr(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		// X-Forwarded-For может содержать цепочку адресов; первый — клиентский
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := req.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
