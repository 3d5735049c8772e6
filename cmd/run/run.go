package run

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/owetally/tally/api"
	"github.com/owetally/tally/push"
	"github.com/owetally/tally/push/amqpfeed"
	"github.com/owetally/tally/push/relay"
	"github.com/owetally/tally/service"
	db2 "github.com/owetally/tally/storage/db"
)

type Config struct {
	API          api.Config
	Handler      service.Config
	Push         push.Config
	Relay        relay.Config
	AMQP         amqpfeed.Config
	DBLocation   string `env:"DB_LOCATION" envDefault:"/var/sqlite/store.db"`
	PushEnabled  bool   `env:"PUSH_ENABLED" envDefault:"true"`
	PushProvider string `env:"PUSH_PROVIDER" envDefault:"relay"`
}

func (c Config) String() string {
	res, _ := json.Marshal(&c)
	return string(res)
}

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	log.Printf("Starting with options: %s\n", cfg.String())

	db, err := sqlx.Connect("sqlite3", cfg.DBLocation)
	if err != nil {
		return fmt.Errorf("connect DB: %w", err)
	}
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("new sqlite3 migration driver: %w", err)
	}
	dbStorage, err := db2.New(db, driver, "")
	if err != nil {
		return fmt.Errorf("new dbStorage: %w", err)
	}

	serviceHandler, err := service.New(cfg.Handler, dbStorage, dbStorage, dbStorage)
	if err != nil {
		return fmt.Errorf("new service: %w", err)
	}

	// Push is best effort: any failure here is logged and the persisted
	// notification workflow keeps going without it.
	if cfg.PushEnabled {
		if provider, err := newPushProvider(cfg); err != nil {
			log.Println("Error creating push provider:", err)
		} else {
			channel := push.NewChannel(cfg.Push, provider, push.NewStaticPermissions(cfg.Push), func(alert push.Alert) {
				log.Printf("[alert] %s: %s\n", alert.Title, alert.Body)
			})
			if err := channel.Start(context.Background()); err != nil {
				log.Println("Error starting push channel:", err)
			}
		}
	}

	server := api.NewServer(cfg.API, serviceHandler)
	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("ListenAndServe: %w", err)
	}

	return nil
}

func newPushProvider(cfg Config) (push.Provider, error) {
	switch cfg.PushProvider {
	case "relay":
		return relay.New(cfg.Relay)
	case "amqp":
		return amqpfeed.New(cfg.AMQP)
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.PushProvider)
	}
}
