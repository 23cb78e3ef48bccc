package server

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// fakeOutbox 收集房间发出的消息，替代真实 WebSocket 连接
type fakeOutbox struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (f *fakeOutbox) Enqueue(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(b))
	copy(cp, b)
	f.msgs = append(f.msgs, cp)
}

// ofType 按出站消息类型过滤
func (f *fakeOutbox) ofType(typ string) []gjson.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gjson.Result
	for _, m := range f.msgs {
		if gjson.GetBytes(m, "type").String() == typ {
			out = append(out, gjson.ParseBytes(m))
		}
	}
	return out
}

func (f *fakeOutbox) countType(typ string) int {
	return len(f.ofType(typ))
}

func testConfig() *Config {
	return &Config{
		RoomCapacity:    12,
		TickRate:        20,
		ProjectileSpeed: 35,
		ProjectileTTL:   1500 * time.Millisecond,
		HitDamage:       25,
	}
}

// newTestRoom 不启动 Run 协程的房间：测试直接调用 handle*/step，完全确定性
func newTestRoom(id string) *Room {
	r := NewRoom(id, testConfig(), zap.NewNop().Sugar(), nil)
	r.rng = rand.New(rand.NewSource(1))
	return r
}

// joinDirect 直接走 handleJoin，断言成功并返回初始状态
func joinDirect(t *testing.T, r *Room, id PlayerID, name string, out Outbox) PlayerSnapshot {
	t.Helper()
	reply := make(chan JoinResult, 1)
	r.handleJoin(joinCmd{ID: id, Name: name, Conn: out, Reply: reply})
	res := <-reply
	require.False(t, res.Full, "join unexpectedly rejected")
	return res.Self
}

// waitUntil 轮询直到条件成立或超时（涉及真实房间协程的用例专用）
func waitUntil(t *testing.T, within time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", within)
}
