package server

import "sync"

// Connection 一条网络会话的注册信息
type Connection struct {
	ID     string
	Name   string
	RoomID string // 为空表示尚未进房
}

// Registry 连接注册表：连接 ID → 会话身份与所在房间
// 与房间状态分开维护，断线清理时先查这里再回收房间
type Registry struct {
	mu    sync.Mutex
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register 登记新连接（尚未加入任何房间）
func (g *Registry) Register(id string) *Connection {
	g.mu.Lock()
	defer g.mu.Unlock()
	c := &Connection{ID: id}
	g.conns[id] = c
	return c
}

// SetRoom 记录连接当前所在房间；未知连接静默忽略
func (g *Registry) SetRoom(id, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.conns[id]; ok {
		c.RoomID = roomID
	}
}

// SetName 记录展示名；未知连接静默忽略
func (g *Registry) SetName(id, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.conns[id]; ok {
		c.Name = name
	}
}

// RoomOf 查询连接所在房间；未登记或未进房返回空串
func (g *Registry) RoomOf(id string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.conns[id]; ok {
		return c.RoomID
	}
	return ""
}

// Unregister 注销连接，返回其所在房间供调用方触发房间清理；未登记返回空串
func (g *Registry) Unregister(id string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.conns[id]
	if !ok {
		return ""
	}
	delete(g.conns, id)
	return c.RoomID
}
