package server

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// RoomManager 管理多个房间的生命周期
// 进程启动时构造并注入使用方，不做包级单例，便于并行测试与组合
type RoomManager struct {
	mu    sync.Mutex
	rooms map[string]*Room
	cfg   *Config
	log   *zap.SugaredLogger
}

func NewRoomManager(cfg *Config, log *zap.SugaredLogger) *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		log:   log,
	}
}

// GetOrCreate 获取或懒创建房间，并启动其主循环
func (m *RoomManager) GetOrCreate(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return r
	}
	r := NewRoom(id, m.cfg, m.log, m.remove)
	m.rooms[id] = r
	go r.Run()
	m.log.Infof("room %s created", id)
	return r
}

// Get 查询房间；不存在返回 nil
func (m *RoomManager) Get(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[id]
}

// remove 摘除清空的房间；按指针比对，防误删同名新房间
func (m *RoomManager) remove(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[r.ID]; ok && cur == r {
		delete(m.rooms, r.ID)
		m.log.Infof("room %s removed", r.ID)
	}
}

// GetPlayers 房间成员状态快照；未知房间返回空列表，从不报错
func (m *RoomManager) GetPlayers(roomID string) []PlayerSnapshot {
	r := m.Get(roomID)
	if r == nil {
		return []PlayerSnapshot{}
	}
	s := r.Players()
	if s == nil {
		return []PlayerSnapshot{}
	}
	return s
}

// List 房间列表（按 ID 排序，输出稳定）
func (m *RoomManager) List() []RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, RoomInfo{ID: id, Count: r.PlayerCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StopAll 进程退出时停掉所有房间协程
func (m *RoomManager) StopAll() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
	}
}
