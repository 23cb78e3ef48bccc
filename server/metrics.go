package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount      int64 // 统计的 Tick 次数
	TotalTickNs    int64 // Tick 累计耗时（纳秒）
	InputsAccepted int64 // 被接受的入站事件数
	InputsDropped  int64 // 因通道满被丢弃的入站事件数
	ShotsFired     int64 // 生成的弹道数
	HitsScored     int64 // 判定命中次数
	Respawns       int64 // 重生次数
	JoinsRejected  int64 // 因满员被拒的加入请求数
}

func (m *RoomMetrics) IncAccepted()      { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncDropped()       { atomic.AddInt64(&m.InputsDropped, 1) }
func (m *RoomMetrics) IncShots()         { atomic.AddInt64(&m.ShotsFired, 1) }
func (m *RoomMetrics) IncHits()          { atomic.AddInt64(&m.HitsScored, 1) }
func (m *RoomMetrics) IncRespawns()      { atomic.AddInt64(&m.Respawns, 1) }
func (m *RoomMetrics) IncJoinsRejected() { atomic.AddInt64(&m.JoinsRejected, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":      tick,
		"avg_tick_ms":     avgMs,
		"inputs_accepted": atomic.LoadInt64(&m.InputsAccepted),
		"inputs_dropped":  atomic.LoadInt64(&m.InputsDropped),
		"shots_fired":     atomic.LoadInt64(&m.ShotsFired),
		"hits_scored":     atomic.LoadInt64(&m.HitsScored),
		"respawns":        atomic.LoadInt64(&m.Respawns),
		"joins_rejected":  atomic.LoadInt64(&m.JoinsRejected),
	}
}
