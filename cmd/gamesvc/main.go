package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/foolsarena/durak-services/configs"
	mongodb "github.com/foolsarena/durak-services/internal/db"
	"github.com/foolsarena/durak-services/internal/gamesvc/broker"
	"github.com/foolsarena/durak-services/internal/gamesvc/db"
	handlers "github.com/foolsarena/durak-services/internal/gamesvc/handlers"
	"github.com/foolsarena/durak-services/internal/gamesvc/service"
	"github.com/foolsarena/durak-services/internal/gamesvc/store"
	nats "github.com/foolsarena/durak-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "game"

var instanceId string

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {

	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	// mongo holds the archive of finished games
	mdb, cancelMongo, err := mongodb.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer cancelMongo()
	log.Printf("mongo connection established successfully")

	userStore := store.NewUserStore(dbpool)
	userService := service.NewUserService(userStore)

	lobbyStore := store.NewLobbyStore(dbpool)
	lobbyPlayerStore := store.NewLobbyPlayerStore(dbpool)
	lobbyService := service.NewLobbyService(lobbyStore, lobbyPlayerStore)

	retentionDays, _ := strconv.Atoi(os.Getenv("ARCHIVE_RETENTION_DAYS"))
	archiveStore := store.NewMoveArchiveStore(mdb, time.Duration(retentionDays)*24*time.Hour)
	if err := mongodb.CreateTTLIndexForCollection(mdb, archiveStore.CollectionName()); err != nil {
		log.Fatalf("Failed to ensure archive TTL index: %v", err)
	}

	gameStore := store.NewGameStore(dbpool)
	gamePlayerStore := store.NewGamePlayerStore(dbpool)
	moveStore := store.NewMoveStore(dbpool)
	gameService := service.NewGameService(gameStore, gamePlayerStore, moveStore, archiveStore, lobbyService)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// init game message broker
	broker := broker.NewBroker(n.Conn, userService, lobbyService, gameService)

	// subscribe to socket service
	topic := "socket.service"
	sub, err := broker.SubscribSocketService(topic)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	// periodic liveness notice for the socket gateway
	heartbeat := time.NewTicker(30 * time.Second)
	go func() {
		for range heartbeat.C {
			broker.PublishHeartbeat(instanceId)
		}
	}()

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler()
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("GAME_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	heartbeat.Stop()
	broker.PublishShutdown(instanceId)
	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
