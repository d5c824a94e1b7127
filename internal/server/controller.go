package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"hashfarm/internal/api"
	apijwt "hashfarm/internal/api/jwt"
	"hashfarm/internal/api/middleware"
	"hashfarm/internal/hashfarm"
	"hashfarm/internal/mining"
	"hashfarm/internal/worker"
)

var App *hashfarm.App
var Engine *mining.Engine
var Lifecycle *mining.Lifecycle

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
}

func ApiInit() { // Run Api Server
	App = hashfarm.Init()

	store := mining.NewGormStore(App.Db)
	notifier := mining.NewRedisNotifier(App.Rdb)
	pool := worker.NewPool(GlobalConfig.WorkerSpeed, GlobalConfig.WorkerQueue)
	tickSeconds := hashfarm.CurrentAppConfig.Settings.Mining.TickSeconds
	if GlobalConfig.TickSeconds > 0 {
		tickSeconds = GlobalConfig.TickSeconds
	}
	Engine = mining.NewEngine(mining.EngineConfig{
		TickInterval: time.Duration(tickSeconds) * time.Second,
		RefLvlOne:    hashfarm.CurrentAppConfig.Settings.Ref.LvlOne,
		RefLvlTwo:    hashfarm.CurrentAppConfig.Settings.Ref.LvlTwo,
	}, store, store, store, notifier, pool)
	Lifecycle = mining.NewLifecycle(store, store, Engine)

	// Rigs left active by the previous process must keep earning after a
	// restart, without waiting for someone to press start.
	active, err := store.ActiveRigs()
	if err != nil {
		Logger.Error(fmt.Sprint("Failed to load active rigs on boot: ", err))
	} else if len(active) > 0 {
		fmt.Printf("[[Accrual]] Resuming %d active rigs\n", len(active))
		Engine.EnsureStarted()
	}

	router := gin.Default()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	// This makes it so each ip can only make 100 requests per second
	rlStore := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       1,
		}),
		Rate:  time.Second,
		Limit: 100,
	})
	mw := ratelimit.RateLimiter(rlStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://0.0.0.0:3000",
			"http://localhost:3000",
		},
		AllowHeaders:  []string{"Origin", "Access-Control-Allow-Origin", "Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		AllowMethods:  []string{"GET, POST, OPTIONS, PUT, DELETE"},
		MaxAge:        24 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Set("app", App)
		c.Set("lifecycle", Lifecycle)
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mining": Engine.Running()})
	})
	router.GET("/ws", mw, wsHandler)
	router.GET("/ws/", mw, wsHandler)
	users := router.Group("/api/users/")
	{
		users.POST("/signup", mw, api.Signup)
		users.POST("/signup/", mw, api.Signup)
		users.POST("/login", mw, api.Login)
		users.POST("/login/", mw, api.Login)
	}
	account := router.Group("/api/users/").Use(middleware.Auth())
	{
		account.GET("/me", mw, api.GetUser)
		account.GET("/me/", mw, api.GetUser)
		account.GET("/balance", mw, api.GetBalance)
		account.GET("/balance/", mw, api.GetBalance)
		account.GET("/rigs", mw, api.GetRigs)
		account.GET("/rigs/", mw, api.GetRigs)
		account.GET("/available-rigs", mw, api.GetAvailableRigs)
		account.GET("/available-rigs/", mw, api.GetAvailableRigs)
		account.POST("/order-rig", mw, api.OrderRig)
		account.POST("/order-rig/", mw, api.OrderRig)
		account.POST("/start-mining", mw, api.StartMining)
		account.POST("/start-mining/", mw, api.StartMining)
		account.POST("/stop-mining", mw, api.StopMining)
		account.POST("/stop-mining/", mw, api.StopMining)
		account.POST("/deposit", mw, api.CreateDeposit)
		account.POST("/deposit/", mw, api.CreateDeposit)
		account.POST("/create-withdrawals", mw, api.CreateWithdrawal)
		account.POST("/create-withdrawals/", mw, api.CreateWithdrawal)
		account.GET("/get-withdrawals", mw, api.GetWithdrawals)
		account.GET("/get-withdrawals/", mw, api.GetWithdrawals)
		account.POST("/create-bank", mw, api.CreateBankDetails)
		account.POST("/create-bank/", mw, api.CreateBankDetails)
		account.GET("/get-bank", mw, api.GetBankDetails)
		account.GET("/get-bank/", mw, api.GetBankDetails)
		account.GET("/referred-users", mw, api.GetReferredUsers)
		account.GET("/referred-users/", mw, api.GetReferredUsers)
		account.GET("/referral-earnings", mw, api.GetReferralEarnings)
		account.GET("/referral-earnings/", mw, api.GetReferralEarnings)
	}
	// The gateway calls back server-to-server, it never carries a user jwt.
	router.POST("/api/users/callback", mw, api.HandleCallback)
	router.POST("/api/users/callback/", mw, api.HandleCallback)
	admin := router.Group("/api/admin/").Use(middleware.Auth(), middleware.Admin())
	{
		admin.GET("/users", mw, api.GetAllUsers)
		admin.GET("/users/", mw, api.GetAllUsers)
		admin.GET("/rigs", mw, api.GetAllRigs)
		admin.GET("/rigs/", mw, api.GetAllRigs)
		admin.GET("/daily-rewards", mw, api.GetDailyRewards)
		admin.GET("/daily-rewards/", mw, api.GetDailyRewards)
		admin.GET("/payout-queue", mw, api.GetPayoutQueue)
		admin.GET("/payout-queue/", mw, api.GetPayoutQueue)
	}
	port := GlobalConfig.Port
	fmt.Println("[ Hashfarm Backend is up and listening to :" + port + " ]")
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to run Hashfarm Backend on :"+port+": ", err)
	}
}

// wsHandler streams balance updates: every accrual credit and confirmed
// deposit for the user is pushed as it happens.
func wsHandler(c *gin.Context) {
	token := c.DefaultQuery("token", "")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	userId, _, err := apijwt.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	app := c.MustGet("app").(*hashfarm.App)
	user := hashfarm.User{}
	res := app.Db.Where("id = ?", userId).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to set websocket upgrade: %+v", err)
		return
	}
	defer conn.Close()

	lastPong := time.Now()
	conn.SetPongHandler(func(string) error {
		lastPong = time.Now()
		return nil
	})
	pingPeriod := 3 * time.Second
	timeout := 9 * time.Second
	var mu sync.Mutex // Mutex to synchronize writes to the WebSocket connection

	snapshot, err := json.Marshal(gin.H{"user_id": user.Id, "balance": user.Balance})
	if err == nil {
		if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
			fmt.Println("Socket: Failed to send data:", err)
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		pubsub := app.Rdb.Subscribe(c, fmt.Sprintf("balance_ch@%d", user.Id))
		defer pubsub.Close()

		ch := pubsub.Channel()
		for msg := range ch {
			var event mining.EarnedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			_ = app.Db.Where("id = ?", user.Id).First(&user)
			payload, err := json.Marshal(gin.H{
				"user_id": user.Id,
				"balance": user.Balance,
				"earned":  event.Earned,
			})
			if err != nil {
				continue
			}
			mu.Lock()
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				fmt.Println("Socket: Failed to send data:", err)
				mu.Unlock()
				_ = conn.Close()
				return
			}
			mu.Unlock()
		}
	}()
	// Drain reads so pongs and close frames get processed.
	go func() {
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	for {
		select {
		case <-done:
			return
		case <-time.After(pingPeriod):
		}
		if time.Since(lastPong) > timeout {
			log.Println("Socket: Client did not respond to ping, closing connection")
			return
		}
		mu.Lock()
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			log.Println("Socket: Failed to send ping:", err)
			mu.Unlock()
			return
		}
		mu.Unlock()
	}
}
