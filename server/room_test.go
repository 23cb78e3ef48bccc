package server

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCapacity13thRejected(t *testing.T) {
	r := newTestRoom("cap")
	for i := 0; i < 12; i++ {
		joinDirect(t, r, PlayerID(fmt.Sprintf("p%d", i)), "", &fakeOutbox{})
	}
	require.Equal(t, 12, len(r.players))

	reply := make(chan JoinResult, 1)
	r.handleJoin(joinCmd{ID: "p12", Name: "late", Conn: &fakeOutbox{}, Reply: reply})
	res := <-reply
	assert.True(t, res.Full)
	assert.Equal(t, 12, len(r.players), "rejected join must not mutate the room")
	assert.NotContains(t, r.players, PlayerID("p12"))
}

func TestRoomJoinSendsInitAndRoster(t *testing.T) {
	r := newTestRoom("seq")
	first := &fakeOutbox{}
	joinDirect(t, r, "a", "alice", first)

	inits := first.ofType("init")
	require.Len(t, inits, 1)
	assert.Equal(t, "a", inits[0].Get("selfId").String())
	rosters := first.ofType("currentPlayers")
	require.Len(t, rosters, 1)
	assert.Equal(t, 1, int(rosters[0].Get("players.#").Int()))

	// 第二人进房：老玩家收到 player:join，新玩家名单含两人
	second := &fakeOutbox{}
	joinDirect(t, r, "b", "", second)
	joins := first.ofType("player:join")
	require.Len(t, joins, 1)
	assert.Equal(t, "b", joins[0].Get("player.id").String())
	// 未提名字时按连接 ID 前缀起默认名
	assert.Equal(t, "player_b", joins[0].Get("name").String())
	rosters = second.ofType("currentPlayers")
	require.Len(t, rosters, 1)
	assert.Equal(t, 2, int(rosters[0].Get("players.#").Int()))
}

func TestRoomJoinSpawnsInBoundsWithFullHealth(t *testing.T) {
	r := newTestRoom("spawn")
	self := joinDirect(t, r, "a", "", &fakeOutbox{})
	assert.Equal(t, MaxHP, self.HP)
	assert.Zero(t, self.RY)
	assert.GreaterOrEqual(t, self.X, WorldMinXZ)
	assert.LessOrEqual(t, self.X, WorldMaxXZ)
	assert.GreaterOrEqual(t, self.Y, WorldMinY)
	assert.LessOrEqual(t, self.Y, WorldMaxY)
	assert.GreaterOrEqual(t, self.Z, WorldMinXZ)
	assert.LessOrEqual(t, self.Z, WorldMaxXZ)
}

func TestRoomLeaveIsIdempotent(t *testing.T) {
	r := newTestRoom("leave")
	out := &fakeOutbox{}
	joinDirect(t, r, "a", "", &fakeOutbox{})
	joinDirect(t, r, "b", "", out)

	r.handleLeave("a")
	assert.Equal(t, 1, len(r.players))
	require.NotPanics(t, func() { r.handleLeave("a") })
	assert.Equal(t, 1, len(r.players))
	assert.Len(t, out.ofType("player:leave"), 1, "second leave must not re-notify")
}

func TestRoomMoveClampsPerField(t *testing.T) {
	r := newTestRoom("move")
	joinDirect(t, r, "a", "", &fakeOutbox{})
	p := r.players["a"]

	x, y, z := 250.0, -3.0, -250.0
	r.handleMove("a", MovePayload{X: &x, Y: &y, Z: &z})
	assert.Equal(t, Vec3{X: WorldMaxXZ, Y: WorldMinY, Z: WorldMinXZ}, p.Pos)

	// 部分字段缺失：只写到场的字段
	nx := 5.0
	r.handleMove("a", MovePayload{X: &nx})
	assert.Equal(t, 5.0, p.Pos.X)
	assert.Equal(t, WorldMinY, p.Pos.Y)

	rot := -math.Pi / 2
	r.handleMove("a", MovePayload{Rot: &rot})
	assert.InDelta(t, 3*math.Pi/2, p.Yaw, 1e-12, "yaw normalized to [0,2π)")
}

func TestRoomMoveUnknownPlayerIsNoop(t *testing.T) {
	r := newTestRoom("ghost")
	x := 1.0
	require.NotPanics(t, func() { r.handleMove("nobody", MovePayload{X: &x}) })
	require.NotPanics(t, func() { r.handleShoot("nobody", Vec3{Z: -1}) })
	assert.Empty(t, r.projectiles)
}

func TestRoomShootBroadcastsSpawn(t *testing.T) {
	r := newTestRoom("shoot")
	a := &fakeOutbox{}
	b := &fakeOutbox{}
	joinDirect(t, r, "a", "", a)
	joinDirect(t, r, "b", "", b)
	r.players["a"].Pos = Vec3{X: 0, Y: 1, Z: 0}

	r.handleShoot("a", Vec3{Z: -1})
	require.Len(t, r.projectiles, 1)
	pr := r.projectiles[0]
	assert.InDelta(t, 1.6, pr.Pos.Y, 1e-12, "projectile spawns at torso height")
	assert.Zero(t, pr.Pos.X)
	assert.Zero(t, pr.Pos.Z)
	assert.Equal(t, Vec3{X: 0, Y: 0, Z: -35}, pr.Vel)

	for _, out := range []*fakeOutbox{a, b} {
		spawns := out.ofType("bullet:spawn")
		require.Len(t, spawns, 1)
		assert.Equal(t, "a", spawns[0].Get("ownerId").String())
		assert.Equal(t, float64(-35), spawns[0].Get("vz").Float())
	}
}
