package server

import (
	"math"
	"math/rand"
)

// PlayerID 表示玩家唯一标识（会话期间即连接 ID）
type PlayerID string

// 世界边界与实体尺寸
const (
	WorldMinXZ = -100.0
	WorldMaxXZ = 100.0
	WorldMinY  = 0.0
	WorldMaxY  = 20.0

	PlayerRadius = 0.8 // 玩家碰撞半径
	TorsoOffset  = 0.6 // 命中判定取躯干高度：脚底坐标向上偏移
	MaxHP        = 100

	spawnSpread = 20.0 // 出生点在地图中心附近随机散布的范围
)

// PlayerSnapshot 广播给客户端的轻量状态
type PlayerSnapshot struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	RY float64 `json:"ry"`
	HP int     `json:"hp"`
}

// Player 房间内的玩家实体（服务端权威状态）
type Player struct {
	ID    PlayerID
	Name  string
	Color string // 仅作装饰标识，进房时分配

	Pos Vec3
	Yaw float64 // 弧度，归一化到 [0, 2π)
	HP  int

	Conn Outbox // 网络连接的发送端（写协程）
}

var playerColors = []string{
	"#e6533c", "#3c7ee6", "#41b05f", "#e6b23c",
	"#9a5ce6", "#3cc8e6", "#e63c9d", "#8ae63c",
}

// Snapshot 导出为广播结构
func (p *Player) Snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID: string(p.ID),
		X:  p.Pos.X, Y: p.Pos.Y, Z: p.Pos.Z,
		RY: p.Yaw,
		HP: p.HP,
	}
}

// clampCoord 单轴裁剪
func clampCoord(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clampPos 越界位置裁剪：拒绝客户端上报的离谱坐标
func clampPos(p Vec3) Vec3 {
	return Vec3{
		X: clampCoord(p.X, WorldMinXZ, WorldMaxXZ),
		Y: clampCoord(p.Y, WorldMinY, WorldMaxY),
		Z: clampCoord(p.Z, WorldMinXZ, WorldMaxXZ),
	}
}

// normalizeYaw 朝向角归一化到 [0, 2π)
func normalizeYaw(r float64) float64 {
	r = math.Mod(r, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r
}

// randomSpawn 随机出生点；不做防重叠，偶发重叠靠正常移动自行散开
func randomSpawn(rng *rand.Rand) Vec3 {
	return Vec3{
		X: (rng.Float64() - 0.5) * 2 * spawnSpread,
		Y: 1,
		Z: (rng.Float64() - 0.5) * 2 * spawnSpread,
	}
}
