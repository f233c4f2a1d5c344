package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthResponse — агрегированное состояние сервиса для мониторинга.
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Database  DatabaseHealth  `json:"database"`
	CacheInfo CacheHealthInfo `json:"cache"`
}

type DatabaseHealth struct {
	Status string `json:"status"`
	Links  int    `json:"links"`
	Clicks int    `json:"clicks"`
	Owners int    `json:"owners"`
}

type CacheHealthInfo struct {
	Status   string `json:"status"`
	Memory   string `json:"memory,omitempty"`
	KeyCount int64  `json:"key_count,omitempty"`
}

// Health обрабатывает GET /api/health: проверка БД (SELECT 1),
// состояние кеша и базовые счётчики. Недоступный кеш деградирует
// статус до "degraded", недоступная БД — до "unhealthy" и 503.
func (h *Handler) Health(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	out := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Database:  DatabaseHealth{Status: "connected"},
		CacheInfo: CacheHealthInfo{Status: "connected"},
	}

	status := http.StatusOK
	if err := h.Repo.Ping(ctx); err != nil {
		h.Logger.Error("database health check failed", zap.Error(err))
		out.Status = "unhealthy"
		out.Database.Status = "disconnected"
		status = http.StatusServiceUnavailable
	} else {
		// Счётчики — best-effort: сбой не валит health-ответ
		if links, err := h.Repo.CountLinks(ctx); err == nil {
			out.Database.Links = links
		}
		if clicksTotal, err := h.Repo.CountClicks(ctx); err == nil {
			out.Database.Clicks = clicksTotal
		}
		if owners, err := h.Repo.CountOwners(ctx); err == nil {
			out.Database.Owners = owners
		}
	}

	cacheHealth := h.Cache.HealthStatus(ctx)
	if !cacheHealth.Connected {
		out.CacheInfo.Status = "disconnected"
		if out.Status == "healthy" {
			// Резолв переживает падение кеша, поэтому статус лишь degraded
			out.Status = "degraded"
		}
	} else {
		out.CacheInfo.Memory = cacheHealth.MemoryUsed
		out.CacheInfo.KeyCount = cacheHealth.KeyCount
	}

	res.Header().Set("Content-Type", "application/json")
	res.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	res.WriteHeader(status)
	json.NewEncoder(res).Encode(out)
}

// StatsResponse — счётчики для внутренней статистики.
type StatsResponse struct {
	Links  int `json:"links"`
	Clicks int `json:"clicks"`
	Owners int `json:"owners"`
}

// Stats обрабатывает GET /api/internal/stats. Доступ разрешён только
// из доверенной подсети (X-Real-IP внутри TRUSTED_SUBNET).
func (h *Handler) Stats(res http.ResponseWriter, req *http.Request) {
	if !h.trustedRequest(req) {
		http.Error(res, "Forbidden", http.StatusForbidden)
		return
	}

	ctx := req.Context()
	links, err := h.Repo.CountLinks(ctx)
	if err != nil {
		h.Logger.Error("failed to count links", zap.Error(err))
		http.Error(res, "internal server error", http.StatusInternalServerError)
		return
	}
	clicksTotal, err := h.Repo.CountClicks(ctx)
	if err != nil {
		h.Logger.Error("failed to count clicks", zap.Error(err))
		http.Error(res, "internal server error", http.StatusInternalServerError)
		return
	}
	owners, err := h.Repo.CountOwners(ctx)
	if err != nil {
		h.Logger.Error("failed to count owners", zap.Error(err))
		http.Error(res, "internal server error", http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	json.NewEncoder(res).Encode(StatsResponse{Links: links, Clicks: clicksTotal, Owners: owners})
}

func (h *Handler) trustedRequest(req *http.Request) bool {
	if h.TrustedSubnet == "" {
		return false
	}
	_, subnet, err := net.ParseCIDR(h.TrustedSubnet)
	if err != nil {
		h.Logger.Error("invalid trusted subnet", zap.String("subnet", h.TrustedSubnet), zap.Error(err))
		return false
	}
	ip := net.ParseIP(req.Header.Get("X-Real-IP"))
	if ip == nil {
		return false
	}
	return subnet.Contains(ip)
}
