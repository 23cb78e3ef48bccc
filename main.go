package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"isoarena/server"
)

// IsoArena 入口：启动 HTTP + WebSocket 服务，初始化注册表与房间管理器
func main() {
	var addr string
	flag.StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	flag.Parse()

	cfg := server.LoadConfig()
	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	// 依赖显式注入：注册表、房间管理器、网关都在这里组装
	registry := server.NewRegistry()
	rooms := server.NewRoomManager(cfg, server.Log)
	gateway := server.NewGateway(registry, rooms, server.Log)
	api := server.NewAPI(rooms, server.Log)

	r := chi.NewRouter()
	r.Get("/ws", gateway.HandleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	// 房间列表、监控与热调参
	r.Get("/rooms", api.HandleRooms)
	r.Get("/rooms/{room}/players", api.HandlePlayers)
	r.Get("/metrics", api.HandleMetrics)
	r.Get("/admin/config", api.HandleConfig)
	r.Post("/admin/config", api.HandleConfig)
	// 前后端分离：将 / 映射到 web 目录的静态资源
	r.Handle("/*", http.FileServer(http.Dir("web")))

	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		server.Log.Infof("IsoArena listening on %s; open http://localhost%v/", addr, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	rooms.StopAll()
}
