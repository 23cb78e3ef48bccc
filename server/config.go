package server

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 进程级配置：从 .env / 环境变量读取，未设置时取默认值
type Config struct {
	LogFile  string
	LogLevel string

	RoomCapacity    int           // 单房间人数上限
	TickRate        int           // 世界推进频率（TPS）
	ProjectileSpeed float64       // 弹道速度（单位/秒）
	ProjectileTTL   time.Duration // 弹道存活上限
	HitDamage       int           // 单次命中扣血
}

// LoadConfig 读取配置；.env 不存在时静默跳过（线上通常直接注入环境变量）
func LoadConfig() *Config {
	_ = godotenv.Load()
	return &Config{
		LogFile:         envStr("ISOARENA_LOG_FILE", "app.log"),
		LogLevel:        envStr("ISOARENA_LOG_LEVEL", "debug"),
		RoomCapacity:    envInt("ISOARENA_ROOM_CAPACITY", 12),
		TickRate:        envInt("ISOARENA_TICK_RATE", 20),
		ProjectileSpeed: envFloat("ISOARENA_PROJECTILE_SPEED", 35),
		ProjectileTTL:   time.Duration(envInt("ISOARENA_PROJECTILE_TTL_MS", 1500)) * time.Millisecond,
		HitDamage:       envInt("ISOARENA_HIT_DAMAGE", 25),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
