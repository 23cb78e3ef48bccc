package server

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// roomCmd 房间入站命令（标签联合），全部在房间自己的协程里处理
type roomCmd interface{ isRoomCmd() }

type joinCmd struct {
	ID    PlayerID
	Name  string
	Conn  Outbox
	Reply chan JoinResult
}

type leaveCmd struct{ ID PlayerID }

type moveCmd struct {
	ID   PlayerID
	Move MovePayload
}

type shootCmd struct {
	ID  PlayerID
	Dir Vec3
}

type playersCmd struct{ Reply chan []PlayerSnapshot }

func (joinCmd) isRoomCmd()    {}
func (leaveCmd) isRoomCmd()   {}
func (moveCmd) isRoomCmd()    {}
func (shootCmd) isRoomCmd()   {}
func (playersCmd) isRoomCmd() {}

// JoinResult 加入房间的同步应答
type JoinResult struct {
	Full   bool // 满员被拒
	Closed bool // 房间已在回收中，调用方应重试或报错
	Self   PlayerSnapshot
}

// Tuning 房间内可热调的模拟参数；admin 接口跨协程读写，单独加锁
type Tuning struct {
	mu       sync.RWMutex
	speed    float64
	ttl      time.Duration
	damage   int
	capacity int
}

func newTuning(cfg *Config) *Tuning {
	return &Tuning{
		speed:    cfg.ProjectileSpeed,
		ttl:      cfg.ProjectileTTL,
		damage:   cfg.HitDamage,
		capacity: cfg.RoomCapacity,
	}
}

// Values 读取当前参数
func (t *Tuning) Values() (speed float64, ttl time.Duration, damage, capacity int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.speed, t.ttl, t.damage, t.capacity
}

// Apply 部分更新；nil 字段保持原值
func (t *Tuning) Apply(speed *float64, ttlMs *int, damage *int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if speed != nil {
		t.speed = *speed
	}
	if ttlMs != nil {
		t.ttl = time.Duration(*ttlMs) * time.Millisecond
	}
	if damage != nil {
		t.damage = *damage
	}
}

// Room 房间世界：权威状态维护在内存，由单协程推进
// 外部只能通过 Join/Leave/UpdatePos/Shoot 投递命令，杜绝并发改动
type Room struct {
	ID string

	players     map[PlayerID]*Player
	order       []PlayerID // 加入顺序；命中判定按此遍历，多目标同帧重叠时先进房者先结算
	projectiles []*Projectile

	inbox    chan roomCmd
	quit     chan struct{}
	stopOnce sync.Once

	tickRate int
	tuning   *Tuning
	metrics  *RoomMetrics

	tickSeq     int64 // atomic
	playerCount int64 // atomic，供房间列表免锁读取

	now     func() time.Time // 可注入，便于测试控制弹道寿命
	rng     *rand.Rand
	log     *zap.SugaredLogger
	onEmpty func(*Room) // 最后一名玩家离开时回调（管理器摘除本房间）
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(id string, cfg *Config, log *zap.SugaredLogger, onEmpty func(*Room)) *Room {
	return &Room{
		ID:          id,
		players:     make(map[PlayerID]*Player),
		projectiles: make([]*Projectile, 0, 16),
		inbox:       make(chan roomCmd, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		quit:        make(chan struct{}),
		tickRate:    cfg.TickRate,
		tuning:      newTuning(cfg),
		metrics:     &RoomMetrics{},
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		log:         log,
		onEmpty:     onEmpty,
	}
}

// Stop 结束房间协程；幂等
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// PlayerCount 当前人数（任意协程可读）
func (r *Room) PlayerCount() int {
	return int(atomic.LoadInt64(&r.playerCount))
}

// TickSeq 已推进的 Tick 序号（任意协程可读）
func (r *Room) TickSeq() int64 {
	return atomic.LoadInt64(&r.tickSeq)
}

// Metrics 运行指标
func (r *Room) Metrics() *RoomMetrics {
	return r.metrics
}

// Tuning 可热调参数
func (r *Room) Tuning() *Tuning {
	return r.tuning
}

// Join 请求加入房间并等待应答；房间正在回收时返回 Closed
func (r *Room) Join(id PlayerID, name string, conn Outbox) JoinResult {
	reply := make(chan JoinResult, 1)
	select {
	case r.inbox <- joinCmd{ID: id, Name: name, Conn: conn, Reply: reply}:
	case <-r.quit:
		return JoinResult{Closed: true}
	}
	select {
	case res := <-reply:
		return res
	case <-r.quit:
		return JoinResult{Closed: true}
	}
}

// Leave 请求移除玩家。阻塞式写入保证断线清理一定送达（通道有容量，不会死锁）
func (r *Room) Leave(id PlayerID) {
	select {
	case r.inbox <- leaveCmd{ID: id}:
	case <-r.quit:
	}
}

// UpdatePos 投递位置上报；拥塞时丢弃，保证 Tick 准时
func (r *Room) UpdatePos(id PlayerID, mv MovePayload) {
	select {
	case r.inbox <- moveCmd{ID: id, Move: mv}:
	default:
		r.metrics.IncDropped()
	}
}

// Shoot 投递射击事件；拥塞时丢弃
func (r *Room) Shoot(id PlayerID, dir Vec3) {
	select {
	case r.inbox <- shootCmd{ID: id, Dir: dir}:
	default:
		r.metrics.IncDropped()
	}
}

// Players 人数状态快照读（任意协程可调）；房间已回收时返回空
func (r *Room) Players() []PlayerSnapshot {
	reply := make(chan []PlayerSnapshot, 1)
	select {
	case r.inbox <- playersCmd{Reply: reply}:
	case <-r.quit:
		return nil
	}
	select {
	case s := <-reply:
		return s
	case <-r.quit:
		return nil
	}
}

// handle 处理单条命令（仅 Run 协程调用）
func (r *Room) handle(c roomCmd) {
	switch cmd := c.(type) {
	case joinCmd:
		r.handleJoin(cmd)
	case leaveCmd:
		r.handleLeave(cmd.ID)
	case moveCmd:
		r.handleMove(cmd.ID, cmd.Move)
	case shootCmd:
		r.handleShoot(cmd.ID, cmd.Dir)
	case playersCmd:
		cmd.Reply <- r.snapshotPlayers()
	}
}

func (r *Room) handleJoin(cmd joinCmd) {
	select {
	case <-r.quit:
		// 房间已在回收：别把玩家塞进僵尸房
		cmd.Reply <- JoinResult{Closed: true}
		return
	default:
	}
	if p, ok := r.players[cmd.ID]; ok {
		// 重复加入视作幂等，返回现有状态
		cmd.Reply <- JoinResult{Self: p.Snapshot()}
		return
	}
	_, _, _, capacity := r.tuning.Values()
	if len(r.players) >= capacity {
		r.metrics.IncJoinsRejected()
		cmd.Reply <- JoinResult{Full: true}
		return
	}

	name := cmd.Name
	if name == "" {
		name = "player_" + shortID(string(cmd.ID))
	}
	p := &Player{
		ID:    cmd.ID,
		Name:  name,
		Color: playerColors[r.rng.Intn(len(playerColors))],
		Pos:   randomSpawn(r.rng),
		Yaw:   0,
		HP:    MaxHP,
		Conn:  cmd.Conn,
	}
	r.players[cmd.ID] = p
	r.order = append(r.order, cmd.ID)
	atomic.StoreInt64(&r.playerCount, int64(len(r.players)))

	// 先告知新玩家身份与在场名单，再向其他人通告进房
	r.sendTo(p, encode(initMsg{Type: "init", SelfID: string(p.ID)}))
	r.sendTo(p, encode(currentPlayersMsg{Type: "currentPlayers", Players: r.roster()}))
	r.broadcastExcept(p.ID, playerJoinMsg{Type: "player:join", Player: p.Snapshot(), Name: p.Name, Color: p.Color})

	r.log.Infof("room %s: %s joined as %q (players: %d)", r.ID, p.ID, p.Name, len(r.players))
	cmd.Reply <- JoinResult{Self: p.Snapshot()}
}

// handleLeave 移除玩家；对已不在场的玩家重复调用是无害的空操作
func (r *Room) handleLeave(id PlayerID) {
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	atomic.StoreInt64(&r.playerCount, int64(len(r.players)))
	// 该玩家的在途弹道不回收，命中或超时自然消亡

	r.broadcast(playerLeaveMsg{Type: "player:leave", ID: string(id)})
	r.log.Infof("room %s: %s left (players: %d)", r.ID, id, len(r.players))

	if len(r.players) == 0 {
		r.log.Infof("room %s: empty, shutting down", r.ID)
		if r.onEmpty != nil {
			r.onEmpty(r)
		}
		r.Stop()
	}
}

// handleMove 客户端权威移动，服务端仅逐字段裁剪；玩家不在场静默忽略
func (r *Room) handleMove(id PlayerID, mv MovePayload) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	if mv.X != nil {
		p.Pos.X = clampCoord(*mv.X, WorldMinXZ, WorldMaxXZ)
	}
	if mv.Y != nil {
		p.Pos.Y = clampCoord(*mv.Y, WorldMinY, WorldMaxY)
	}
	if mv.Z != nil {
		p.Pos.Z = clampCoord(*mv.Z, WorldMinXZ, WorldMaxXZ)
	}
	if mv.Rot != nil {
		p.Yaw = normalizeYaw(*mv.Rot)
	}
	r.metrics.IncAccepted()
}

func (r *Room) handleShoot(id PlayerID, dir Vec3) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	speed, _, _, _ := r.tuning.Values()
	origin := p.Pos.Add(Vec3{Y: TorsoOffset})
	b := NewProjectile(p.ID, origin, dir, speed, r.now(), r.rng)
	r.projectiles = append(r.projectiles, b)
	r.metrics.IncShots()

	// 供客户端做视觉预测；权威位置仍以快照为准
	r.broadcast(bulletSpawnMsg{
		Type: "bullet:spawn", ID: b.ID, OwnerID: string(b.OwnerID),
		X: b.Pos.X, Y: b.Pos.Y, Z: b.Pos.Z,
		VX: b.Vel.X, VY: b.Vel.Y, VZ: b.Vel.Z,
	})
}

// roster 按加入顺序导出全员名单（含名字与颜色，进房时一次性下发）
func (r *Room) roster() []rosterEntry {
	out := make([]rosterEntry, 0, len(r.players))
	for _, id := range r.order {
		if p := r.players[id]; p != nil {
			out = append(out, rosterEntry{PlayerSnapshot: p.Snapshot(), Name: p.Name, Color: p.Color})
		}
	}
	return out
}

// snapshotPlayers 按加入顺序导出全员状态
func (r *Room) snapshotPlayers() []PlayerSnapshot {
	out := make([]PlayerSnapshot, 0, len(r.players))
	for _, id := range r.order {
		if p := r.players[id]; p != nil {
			out = append(out, p.Snapshot())
		}
	}
	return out
}

// sendTo 单连接投递；一条坏连接的异常不能中断对其他玩家的广播
func (r *Room) sendTo(p *Player, b []byte) {
	if p == nil || p.Conn == nil {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			r.log.Errorf("room %s: send to %s panic: %v", r.ID, p.ID, v)
		}
	}()
	p.Conn.Enqueue(b)
}

// broadcast 序列化一次，发给房间内所有玩家
func (r *Room) broadcast(msg any) {
	b := encode(msg)
	for _, p := range r.players {
		r.sendTo(p, b)
	}
}

// broadcastExcept 发给除 except 外的所有玩家
func (r *Room) broadcastExcept(except PlayerID, msg any) {
	b := encode(msg)
	for _, p := range r.players {
		if p == nil || p.ID == except {
			continue
		}
		r.sendTo(p, b)
	}
}
