package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// API 管理与监控接口；只读房间管理器，不触碰房间内部状态
type API struct {
	rooms *RoomManager
	log   *zap.SugaredLogger
}

func NewAPI(rooms *RoomManager, log *zap.SugaredLogger) *API {
	return &API{rooms: rooms, log: log}
}

// HandleRooms 房间列表
// GET /rooms
func (a *API) HandleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.rooms.List())
}

// HandlePlayers 房间内玩家状态快照
// GET /rooms/{room}/players；未知房间返回空数组
func (a *API) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.rooms.GetPlayers(chi.URLParam(r, "room")))
}

// HandleMetrics 输出房间运行指标
// GET /metrics?room=room-1；不带 room 参数时输出所有房间
func (a *API) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		out := make([]map[string]any, 0)
		for _, info := range a.rooms.List() {
			if room := a.rooms.Get(info.ID); room != nil {
				out = append(out, metricsPayload(room))
			}
		}
		writeJSON(w, out)
		return
	}
	room := a.rooms.Get(roomID)
	if room == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, metricsPayload(room))
}

func metricsPayload(room *Room) map[string]any {
	return map[string]any{
		"room":    room.ID,
		"tick":    room.TickSeq(),
		"players": room.PlayerCount(),
		"metrics": room.Metrics().Snapshot(),
	}
}

// HandleConfig 提供房间模拟参数的读取与热更新
// GET  /admin/config?room=room-1  返回当前参数
// POST /admin/config?room=room-1  以 JSON 载荷更新部分字段
// 注意：只操作已存在的房间，不在这里创建（空房间不允许常驻）
func (a *API) HandleConfig(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	room := a.rooms.Get(roomID)
	if room == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	type cfg struct {
		ProjectileSpeed *float64 `json:"projectileSpeed,omitempty"`
		ProjectileTTLMs *int     `json:"projectileTtlMs,omitempty"`
		HitDamage       *int     `json:"hitDamage,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		speed, ttl, damage, _ := room.Tuning().Values()
		ttlMs := int(ttl / time.Millisecond)
		writeJSON(w, cfg{ProjectileSpeed: &speed, ProjectileTTLMs: &ttlMs, HitDamage: &damage})
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		room.Tuning().Apply(body.ProjectileSpeed, body.ProjectileTTLMs, body.HitDamage)
		speed, ttl, damage, _ := room.Tuning().Values()
		a.log.Infof("config updated: room=%s speed=%.1f ttl=%s damage=%d", roomID, speed, ttl, damage)
		writeJSON(w, map[string]any{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
