package server

import (
	"sync/atomic"
	"time"
)

// Run 房间主循环：命令与 Tick 都在本协程串行执行，天然不叠帧
// （Tick 落后时 time.Ticker 只保留一次触发，相当于跳过过期帧）
func (r *Room) Run() {
	interval := time.Second / time.Duration(r.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 固定步长推进，不用实测耗时，避免调度抖动影响弹道积分
	dt := 1.0 / float64(r.tickRate)

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-ticker.C:
			start := time.Now()
			r.step(dt)
			r.metrics.AddTick(time.Since(start).Nanoseconds())
		}
	}
}

// step 推进一个 Tick：弹道积分 → 命中结算 → 回收 → 广播快照
func (r *Room) step(dt float64) {
	seq := atomic.AddInt64(&r.tickSeq, 1)
	now := r.now()
	_, ttl, damage, _ := r.tuning.Values()

	// 1) 运动学推进（弹道之间无交互，顺序无关）
	for _, b := range r.projectiles {
		b.Advance(dt)
	}

	// 2-4) 逐弹道结算命中、扣血、重生
	hit := make(map[string]struct{})
	for _, b := range r.projectiles {
		if r.resolveHit(b, damage) {
			hit[b.ID] = struct{}{}
		}
	}

	// 5) 先清命中弹，再清超时弹
	kept := r.projectiles[:0]
	for _, b := range r.projectiles {
		if _, ok := hit[b.ID]; ok {
			continue
		}
		if b.Expired(now, ttl) {
			continue
		}
		kept = append(kept, b)
	}
	for i := len(kept); i < len(r.projectiles); i++ {
		r.projectiles[i] = nil
	}
	r.projectiles = kept

	// 6) 广播权威快照
	if len(r.players) > 0 {
		r.broadcast(snapshotMsg{Type: "state:snapshot", Tick: seq, Players: r.snapshotPlayers()})
	}
}

// resolveHit 单颗弹道的命中结算；每颗弹道同一帧最多记一次命中
// 单个实体的异常只丢弃该弹道的结算，不能拖垮整帧
func (r *Room) resolveHit(b *Projectile, damage int) (scored bool) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Errorf("room %s: projectile %s resolve panic: %v", r.ID, b.ID, p)
		}
	}()

	const thresholdSq = (PlayerRadius + ProjectileRadius) * (PlayerRadius + ProjectileRadius)
	// 按加入顺序遍历：多目标同帧重叠时的归属是“定义好的任意”，测试钉死该行为
	for _, id := range r.order {
		p, ok := r.players[id]
		if !ok || p.ID == b.OwnerID {
			continue
		}
		torso := p.Pos.Add(Vec3{Y: TorsoOffset})
		if DistSq(b.Pos, torso) > thresholdSq {
			continue
		}

		p.HP -= damage
		if p.HP < 0 {
			p.HP = 0
		}
		r.metrics.IncHits()
		r.broadcast(playerHitMsg{Type: "player:hit", PlayerID: string(p.ID), HP: p.HP, By: string(b.OwnerID)})

		if p.HP == 0 {
			// 无死亡状态：立刻满血换点重生
			p.HP = MaxHP
			p.Pos = randomSpawn(r.rng)
			p.Yaw = 0
			r.metrics.IncRespawns()
			r.broadcast(playerRespawnMsg{
				Type: "player:respawn", PlayerID: string(p.ID),
				X: p.Pos.X, Y: p.Pos.Y, Z: p.Pos.Z, RY: p.Yaw, HP: p.HP,
			})
		}
		return true
	}
	return false
}
