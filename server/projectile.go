package server

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	ProjectileRadius = 0.2 // 弹道碰撞半径
)

// Projectile 一次射击产生的飞行弹道；出膛后速度恒定，无重力无加速
type Projectile struct {
	ID        string
	OwnerID   PlayerID // 用于排除自伤；拥有者断线后弹道照常模拟
	Pos       Vec3
	Vel       Vec3
	CreatedAt time.Time
}

// NewProjectile 由射击事件生成弹道
// 方向为零向量时回退到默认朝向；ID 由拥有者 + 时间戳 + 随机后缀拼成，
// 同一玩家同毫秒连射也不会撞号
func NewProjectile(owner PlayerID, origin, dir Vec3, speed float64, now time.Time, rng *rand.Rand) *Projectile {
	d := dir.NormalizeOr(Forward)
	return &Projectile{
		ID:        fmt.Sprintf("%s-%d-%04x", owner, now.UnixMilli(), rng.Intn(1<<16)),
		OwnerID:   owner,
		Pos:       origin,
		Vel:       d.Scale(speed),
		CreatedAt: now,
	}
}

// Advance 按固定步长推进一帧（纯运动学积分，弹道之间互不影响）
func (b *Projectile) Advance(dt float64) {
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))
}

// Expired 是否超出存活上限
func (b *Projectile) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(b.CreatedAt) > ttl
}
