package hashfarm

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type App struct {
	Rdb *redis.Client
	Db  *gorm.DB
	Aqc *asynq.Client
	Aqi *asynq.Inspector
}

type AppConfig struct {
	Settings AppSettings `json:"settings"`
}

type AppSettings struct {
	Ref    RefSettings    `json:"ref"`
	Mining MiningSettings `json:"mining"`
	Limits SettingLimit   `json:"limits"`
}

type RefSettings struct {
	LvlOne float64 `json:"lvl_one"`
	LvlTwo float64 `json:"lvl_two"`
}

type MiningSettings struct {
	TickSeconds uint    `json:"tick_seconds"`
	DailyRate   float64 `json:"daily_rate"`
	Days        uint    `json:"days"`
}

type SettingLimit struct {
	WithdrawMin float64 `json:"withdraw_min"`
	WithdrawMax float64 `json:"withdraw_max"`
}

var (
	DefaultAppConfig *AppConfig
	CurrentAppConfig *AppConfig
)

func Init() *App {
	loadEnv()
	redisClient := setupRedis()
	db := setupDb()
	asynqClient := setupAsynqClient()
	asynqInspector := setupAsynqInspector()

	app := &App{
		Rdb: redisClient,
		Db:  db,
		Aqc: asynqClient,
		Aqi: asynqInspector,
	}
	loadAppConfig(app.Rdb)
	return app
}

// AppPayout is the handle of the payout worker process. It carries its own
// asynq server instead of a client.
type AppPayout struct {
	Rdb *redis.Client
	Db  *gorm.DB
	Aqs *asynq.Server
}

func InitPayout() *AppPayout {
	loadEnv()
	redisClient := setupRedis()
	db := setupDb()
	asynqServer := setupAsynqServer()

	app := &AppPayout{
		Rdb: redisClient,
		Db:  db,
		Aqs: asynqServer,
	}
	loadAppConfig(app.Rdb)
	return app
}

func loadAppConfig(rdb *redis.Client) {
	DefaultAppConfig = &AppConfig{
		Settings: AppSettings{
			Ref: RefSettings{
				LvlOne: 0.05,
				LvlTwo: 0.025,
			},
			Mining: MiningSettings{
				TickSeconds: 3,
				DailyRate:   0.02,
				Days:        90,
			},
			Limits: SettingLimit{
				WithdrawMin: 100,
				WithdrawMax: 100000,
			},
		},
	}
	CurrentAppConfig = DefaultAppConfig
	isSet := false
	appConfigRaw, _ := rdb.Get(context.Background(), "app_config").Result()
	if len(appConfigRaw) > 0 {
		err := json.Unmarshal([]byte(appConfigRaw), &CurrentAppConfig)
		if err == nil {
			isSet = true
		}
	}
	if !isSet {
		currentConfig, _ := json.Marshal(DefaultAppConfig)
		rdb.Set(context.Background(), "app_config", currentConfig, 0)
	}
}

func setupRedis() *redis.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	return redisClient
}

func setupDb() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect to the db")
	}
	err = db.AutoMigrate(
		&User{},
		&Rig{},
		&Referral{},
		&Deposit{},
		&Withdrawal{},
		&Bank{},
	)
	if err != nil {
		panic("failed to run migrations")
	}

	return db
}

func setupAsynqClient() *asynq.Client {
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return asynqClient
}

func setupAsynqInspector() *asynq.Inspector {
	asynqInspector := asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return asynqInspector
}

func setupAsynqServer() *asynq.Server {
	concurency, err := strconv.Atoi(os.Getenv("PAYOUT_WORKER_SCALE"))
	if err != nil {
		concurency = 10
	}
	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		asynq.Config{
			Concurrency: concurency,
			Queues: map[string]int{
				"payouts": 1,
			},
		},
	)
	return asynqServer
}

func loadEnv() {
	env := os.Getenv("APP_ENV")
	if "" == env {
		env = "development"
	}

	godotenv.Load(".env." + env + ".local")

	if "test" != env {
		godotenv.Load(".env.local")
	}
	godotenv.Load(".env." + env)
	godotenv.Load()
}
