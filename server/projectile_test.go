package server

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectileKinematicRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	origin := Vec3{X: 0, Y: 1.6, Z: 0}
	b := NewProjectile("a", origin, Vec3{Z: -1}, 35, time.Now(), rng)

	const n = 7
	dt := 1.0 / 20.0
	for i := 0; i < n; i++ {
		b.Advance(dt)
	}
	// 纯运动学积分，无阻尼：origin + dir*S*n*T
	assert.InDelta(t, 0, b.Pos.X, 1e-9)
	assert.InDelta(t, 1.6, b.Pos.Y, 1e-9)
	assert.InDelta(t, -35*float64(n)*dt, b.Pos.Z, 1e-9)
}

func TestProjectileZeroDirectionFallsBackToForward(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := NewProjectile("a", Vec3{}, Vec3{}, 35, time.Now(), rng)
	assert.Equal(t, Vec3{X: 0, Y: 0, Z: -35}, b.Vel, "zero direction must not produce a NaN/zero velocity")
}

func TestProjectileVelocityMagnitudeConstant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := NewProjectile("a", Vec3{}, Vec3{X: 3, Y: 4, Z: 12}, 35, time.Now(), rng)
	assert.InDelta(t, 35*35, b.Vel.LengthSq(), 1e-9)
	vel := b.Vel
	b.Advance(0.05)
	assert.Equal(t, vel, b.Vel, "no acceleration, no gravity")
}

func TestProjectileExpiry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	born := time.Now()
	b := NewProjectile("a", Vec3{}, Vec3{Z: -1}, 35, born, rng)
	ttl := 1500 * time.Millisecond
	assert.False(t, b.Expired(born.Add(1499*time.Millisecond), ttl))
	assert.True(t, b.Expired(born.Add(1501*time.Millisecond), ttl))
}

func TestProjectileIDsDistinctUnderRapidFire(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		// 同一毫秒同一拥有者连射：靠随机后缀区分
		b := NewProjectile("a", Vec3{}, Vec3{Z: -1}, 35, now, rng)
		require.False(t, seen[b.ID], "duplicate projectile id %s", b.ID)
		seen[b.ID] = true
	}
}

func TestTickPrunesExpiredProjectiles(t *testing.T) {
	r := newTestRoom("prune")
	joinDirect(t, r, "a", "", &fakeOutbox{})
	r.handleShoot("a", Vec3{Z: -1})
	require.Len(t, r.projectiles, 1)

	// 把房间时钟拨到 TTL 之后再推一帧
	base := time.Now()
	r.now = func() time.Time { return base.Add(2 * time.Second) }
	r.step(1.0 / 20.0)
	assert.Empty(t, r.projectiles)
}
