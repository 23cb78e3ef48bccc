package server

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// 入站消息为带 type 字段的 JSON 文本
// 示例：{"type":"joinRoom","roomId":"room-1","name":"alice"}
// 载荷按字段逐个提取：单个字段缺失或类型不对只丢该字段，不整条拒绝

// InboundKind 入站消息种类
type InboundKind int

const (
	MsgUnknown InboundKind = iota
	MsgJoinRoom
	MsgUpdatePos
	MsgShoot
	MsgListRooms
)

// JoinPayload joinRoom 载荷
type JoinPayload struct {
	RoomID string
	Name   string
}

// MovePayload updatePos / state:update 载荷；nil 表示该字段缺失或非数值
type MovePayload struct {
	X, Y, Z *float64
	Rot     *float64
}

// ShootPayload shoot 载荷；方向可为零向量，生成弹道时回退默认朝向
type ShootPayload struct {
	Dir Vec3
}

// Inbound 入站消息的标签联合
type Inbound struct {
	Kind  InboundKind
	Join  JoinPayload
	Move  MovePayload
	Shoot ShootPayload
}

// DecodeInbound 解析入站消息；无法识别时 Kind 为 MsgUnknown
func DecodeInbound(raw []byte) Inbound {
	if !gjson.ValidBytes(raw) {
		return Inbound{Kind: MsgUnknown}
	}
	switch gjson.GetBytes(raw, "type").String() {
	case "joinRoom":
		return Inbound{Kind: MsgJoinRoom, Join: JoinPayload{
			RoomID: strField(raw, "roomId", "room"),
			Name:   strField(raw, "name"),
		}}
	case "updatePos", "state:update":
		return Inbound{Kind: MsgUpdatePos, Move: MovePayload{
			X:   numField(raw, "x"),
			Y:   numField(raw, "y"),
			Z:   numField(raw, "z"),
			Rot: numField(raw, "rot"),
		}}
	case "shoot":
		return Inbound{Kind: MsgShoot, Shoot: ShootPayload{Dir: Vec3{
			X: numValue(raw, "dir.x"),
			Y: numValue(raw, "dir.y"),
			Z: numValue(raw, "dir.z"),
		}}}
	case "listRooms":
		return Inbound{Kind: MsgListRooms}
	}
	return Inbound{Kind: MsgUnknown}
}

// numField 提取数值字段；缺失或非数值返回 nil
func numField(raw []byte, path string) *float64 {
	v := gjson.GetBytes(raw, path)
	if v.Type != gjson.Number {
		return nil
	}
	f := v.Float()
	return &f
}

// numValue 提取数值字段；缺失或非数值按 0 处理
func numValue(raw []byte, path string) float64 {
	v := gjson.GetBytes(raw, path)
	if v.Type != gjson.Number {
		return 0
	}
	return v.Float()
}

// strField 依次尝试多个路径，返回第一个字符串字段
func strField(raw []byte, paths ...string) string {
	for _, p := range paths {
		if v := gjson.GetBytes(raw, p); v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

// ---- 出站消息 ----

type initMsg struct {
	Type   string `json:"type"`
	SelfID string `json:"selfId"`
}

// rosterEntry 名单条目：状态快照外加装饰信息
type rosterEntry struct {
	PlayerSnapshot
	Name  string `json:"name"`
	Color string `json:"color"`
}

type currentPlayersMsg struct {
	Type    string        `json:"type"`
	Players []rosterEntry `json:"players"`
}

type playerJoinMsg struct {
	Type   string         `json:"type"`
	Player PlayerSnapshot `json:"player"`
	Name   string         `json:"name"`
	Color  string         `json:"color"`
}

type playerLeaveMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type bulletSpawnMsg struct {
	Type    string  `json:"type"`
	ID      string  `json:"id"`
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	VZ      float64 `json:"vz"`
}

type snapshotMsg struct {
	Type    string           `json:"type"`
	Tick    int64            `json:"tick"`
	Players []PlayerSnapshot `json:"players"`
}

type playerHitMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	HP       int    `json:"hp"`
	By       string `json:"by,omitempty"`
}

type playerRespawnMsg struct {
	Type     string  `json:"type"`
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	RY       float64 `json:"ry"`
	HP       int     `json:"hp"`
}

type roomFullMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type joinErrorMsg struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// RoomInfo 房间列表条目（WS roomsList 与 HTTP /rooms 共用）
type RoomInfo struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

type roomsListMsg struct {
	Type  string     `json:"type"`
	Rooms []RoomInfo `json:"rooms"`
}

// encode 出站消息统一序列化；结构都是本包可控的，失败视为编程错误
func encode(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
