package server

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway 协议网关：入站事件翻译成注册表/房间操作，自身不做业务决策
type Gateway struct {
	registry *Registry
	rooms    *RoomManager
	log      *zap.SugaredLogger
}

func NewGateway(registry *Registry, rooms *RoomManager, log *zap.SugaredLogger) *Gateway {
	return &Gateway{registry: registry, rooms: rooms, log: log}
}

// HandleWS WebSocket 接入，连接建立即登记身份；进房靠 joinRoom 消息
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warnf("upgrade error: %v", err)
		return
	}

	connID := uuid.NewString()
	g.registry.Register(connID)
	g.log.Infof("conn %s connected from %s", connID, r.RemoteAddr)

	client := NewClientConn(ws)
	go client.writePump()
	go client.readPump(g, connID)
}

// Dispatch 分发一条入站消息；无法识别的消息直接忽略
func (g *Gateway) Dispatch(connID string, client Conn, raw []byte) {
	in := DecodeInbound(raw)
	switch in.Kind {
	case MsgJoinRoom:
		g.handleJoin(connID, client, in.Join)
	case MsgUpdatePos:
		if room := g.roomOf(connID); room != nil {
			room.UpdatePos(PlayerID(connID), in.Move)
		}
	case MsgShoot:
		if room := g.roomOf(connID); room != nil {
			room.Shoot(PlayerID(connID), in.Shoot.Dir)
		}
	case MsgListRooms:
		client.Enqueue(encode(roomsListMsg{Type: "roomsList", Rooms: g.rooms.List()}))
	default:
		g.log.Debugf("conn %s: unknown message ignored", connID)
	}
}

// handleJoin 进房流程：校验房间号 → 必要时退旧房 → 向房间申请席位
func (g *Gateway) handleJoin(connID string, client Conn, p JoinPayload) {
	if p.RoomID == "" {
		client.Enqueue(encode(joinErrorMsg{Type: "joinError", Msg: "roomId missing"}))
		return
	}
	// 已在房间内再次 joinRoom：按先退旧房、再全新进房处理
	if old := g.registry.RoomOf(connID); old != "" {
		if room := g.rooms.Get(old); room != nil {
			room.Leave(PlayerID(connID))
		}
		g.registry.SetRoom(connID, "")
	}

	for attempt := 0; attempt < 2; attempt++ {
		room := g.rooms.GetOrCreate(p.RoomID)
		res := room.Join(PlayerID(connID), p.Name, client)
		if res.Closed {
			// 撞上正被回收的空房间，重取一次
			continue
		}
		if res.Full {
			g.log.Infof("conn %s rejected from full room %s", connID, p.RoomID)
			client.Enqueue(encode(roomFullMsg{Type: "roomFull", RoomID: p.RoomID}))
			return
		}
		g.registry.SetName(connID, p.Name)
		g.registry.SetRoom(connID, p.RoomID)
		return
	}
	client.Enqueue(encode(joinErrorMsg{Type: "joinError", Msg: "room unavailable"}))
}

// Disconnect 断线清理：注销身份、退房、关连接；空房间由房间自行触发回收
func (g *Gateway) Disconnect(connID string, client Conn) {
	if roomID := g.registry.Unregister(connID); roomID != "" {
		if room := g.rooms.Get(roomID); room != nil {
			room.Leave(PlayerID(connID))
		}
	}
	client.Close()
	g.log.Infof("conn %s disconnected", connID)
}

func (g *Gateway) roomOf(connID string) *Room {
	roomID := g.registry.RoomOf(connID)
	if roomID == "" {
		return nil
	}
	return g.rooms.Get(roomID)
}

func shortID(id string) string {
	if len(id) > 5 {
		return id[:5]
	}
	return id
}
