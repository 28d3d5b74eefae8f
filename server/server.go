package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"harmonyhub/cache"
	"harmonyhub/config"
	"harmonyhub/core/auth"
	"harmonyhub/core/classifier"
	"harmonyhub/core/ingest"
	"harmonyhub/core/player"
	"harmonyhub/db"
	"harmonyhub/logger"
	"harmonyhub/model"
	"harmonyhub/repository"
	"harmonyhub/storage"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel), OutputPath: cfg.LogPath})
	auth.SetJWTSecret(cfg.JWTSecret)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 连接数据库
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}

	// GORM 连接承载社区动态相关的表
	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect GORM database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(&model.Post{}, &model.Comment{}); err != nil {
		logger.Fatal("Failed to migrate models", logger.ErrorField(err))
	}

	// 连接 Redis
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	// 初始化对象存储
	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	songRepo := repository.NewMySQLSongRepository()
	playlistRepo := repository.NewMySQLPlaylistRepository()
	userRepo := repository.NewMySQLUserRepository()
	postRepo := repository.NewGormPostRepository()

	genreClassifier := classifier.NewClient(&classifier.Config{
		APIBaseURL: cfg.AIAPIBaseURL,
		APIKey:     cfg.AIAPIKey,
		Model:      cfg.AIModel,
	})

	hub := NewHub()

	// 播放器管理器：新建播放器时恢复快照，状态变化时落Redis并推送
	players := player.NewManager(NewTransportFactory(hub), func(p *player.Player) {
		ctx := context.Background()
		if snap, err := cache.LoadPlayerSnapshot(ctx, p.UserID()); err != nil {
			logger.Warn("Failed to load player snapshot", logger.Int64("userId", p.UserID()), logger.ErrorField(err))
		} else if snap != nil {
			p.Restore(snap.ActivePlaylist, snap.SearchQuery, snap.Shuffled, snap.RepeatMode, snap.Volume, snap.Muted)
		}
		userID := p.UserID()
		p.SetOnChange(func(st player.State) {
			hub.Publish(userID, MsgTypeState, st)

			snap := &cache.PlayerSnapshot{
				ActivePlaylist: st.ActivePlaylist,
				SearchQuery:    st.SearchQuery,
				Shuffled:       st.Shuffled,
				RepeatMode:     st.RepeatMode,
				Volume:         st.Volume,
				Muted:          st.Muted,
			}
			if st.CurrentSong != nil {
				snap.SongID = st.CurrentSong.ID
			}
			if err := cache.SavePlayerSnapshot(context.Background(), userID, snap); err != nil {
				logger.Warn("Failed to save player snapshot", logger.Int64("userId", userID), logger.ErrorField(err))
			}
		})
	})

	tasks := ingest.NewTaskStore()
	pipeline := ingest.NewPipeline(store, genreClassifier, songRepo, tasks, ingest.Options{
		MaxSize: cfg.MaxUploadSize,
		OnSongCreated: func(song *model.Song) {
			// 新歌入库后刷新所有在线播放器的读模型并通知上传者
			refreshAllPlayers(players, songRepo, playlistRepo)
			hub.Publish(song.UserID, MsgTypeTask, tasks.List())
		},
	})

	apiHandler := NewAPIHandler(songRepo, playlistRepo, userRepo, postRepo, pipeline, players, hub, cfg)

	router := mux.NewRouter()

	// CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/password-reset/request", apiHandler.RequestPasswordResetHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/password-reset", apiHandler.ResetPasswordHandler).Methods(http.MethodPost)

	// 歌曲相关的API端点
	router.HandleFunc("/api/songs", apiHandler.GetSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/mine", apiHandler.AuthMiddleware(apiHandler.GetMySongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateSongHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteSongHandler)).Methods(http.MethodDelete)

	// 上传与摄取任务
	router.HandleFunc("/api/upload", apiHandler.AuthMiddleware(apiHandler.UploadHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/upload/tasks", apiHandler.AuthMiddleware(apiHandler.GetTasksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/upload/tasks/completed", apiHandler.AuthMiddleware(apiHandler.ClearCompletedTasksHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/upload/tasks/{id}", apiHandler.AuthMiddleware(apiHandler.DismissTaskHandler)).Methods(http.MethodDelete)

	// 歌单相关的API端点
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.GetMyPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.GetPlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}/songs", apiHandler.AuthMiddleware(apiHandler.AddSongToPlaylistHandler)).Methods(http.MethodPost)

	// 社区动态
	router.HandleFunc("/api/posts", apiHandler.ListPostsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/posts", apiHandler.AuthMiddleware(apiHandler.CreatePostHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/posts/{id}", apiHandler.AuthMiddleware(apiHandler.DeletePostHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/posts/{id}/comments", apiHandler.ListCommentsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/posts/{id}/comments", apiHandler.AuthMiddleware(apiHandler.CreateCommentHandler)).Methods(http.MethodPost)

	// 播放器控制
	router.HandleFunc("/api/player/state", apiHandler.AuthMiddleware(apiHandler.GetPlayerStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/player/command", apiHandler.AuthMiddleware(apiHandler.PlayerCommandHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/report", apiHandler.AuthMiddleware(apiHandler.PlayerReportHandler)).Methods(http.MethodPost)

	// 状态推送
	router.HandleFunc("/ws", apiHandler.WSHandler)

	// MinIO 静态文件代理（音频与封面）
	router.PathPrefix("/static/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/static/")

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, err := store.Object(ctx, objectPath)
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		var contentType string
		if strings.HasPrefix(objectPath, "covers/") {
			contentType = "image/jpeg"
		} else if strings.HasPrefix(objectPath, "music/") {
			contentType = "audio/mpeg"
		} else {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000") // 缓存一年

		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("Error serving object", logger.String("path", objectPath), logger.ErrorField(err))
		}
	})

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	// 等待在途摄取任务收尾
	pipeline.Wait()
	logger.Info("Server stopped")
}

// refreshAllPlayers 曲库变化后刷新全部在线播放器
func refreshAllPlayers(players *player.Manager, songRepo repository.SongRepository, playlistRepo repository.PlaylistRepository) {
	songs, err := songRepo.GetAllSongs()
	if err != nil {
		logger.Error("Failed to refresh song read model", logger.ErrorField(err))
		return
	}
	for _, p := range players.All() {
		playlists, err := playlistRepo.GetPlaylistsByUserID(p.UserID())
		if err != nil {
			logger.Error("Failed to refresh playlist read model", logger.Int64("userId", p.UserID()), logger.ErrorField(err))
			continue
		}
		p.SetCollection(songs, playlists)
	}
}
