// Command server is the process entry point: it loads configuration,
// wires every ambient and domain dependency, and serves the control and
// push surfaces on one gin engine. Grounded on the teacher's main.go
// wiring order (config -> db -> redis -> services -> hub -> handlers ->
// routes -> router.Run), generalized to this domain's actor-per-room
// model and the zerolog/viper/prometheus stack adopted across the rest of
// the module.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openword/roundserver/internal/clock"
	"github.com/openword/roundserver/internal/config"
	"github.com/openword/roundserver/internal/httpapi"
	"github.com/openword/roundserver/internal/idempotency"
	"github.com/openword/roundserver/internal/idgen"
	"github.com/openword/roundserver/internal/metrics"
	"github.com/openword/roundserver/internal/persistence"
	"github.com/openword/roundserver/internal/registry"
	"github.com/openword/roundserver/internal/wsapi"
)

func main() {
	configPath := flag.String("config", "", "optional config file merged ahead of OPENWORD_* env vars")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	roomLogger := persistence.RoomLogger(persistence.NoopLogger{})
	if cfg.DatabaseDSN != "" {
		if err := persistence.Migrate(cfg.DatabaseDSN); err != nil {
			log.Fatal().Err(err).Msg("failed to apply database migrations")
		}
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		roomLogger = persistence.NewPostgresLogger(db)
		log.Info().Msg("room log persistence enabled")
	} else {
		log.Info().Msg("no database DSN configured, room log persistence disabled")
	}

	idemp := idempotency.Cache(idempotency.NoopCache{})
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		idemp = idempotency.NewRedisCache(redisClient)
		log.Info().Str("addr", cfg.RedisAddr).Msg("idempotency cache backed by redis")
	} else {
		log.Info().Msg("no redis address configured, idempotency cache disabled")
	}

	registerer := prometheus.NewRegistry()
	recorder := metrics.New(registerer)

	clk := clock.Real{}
	ids := idgen.New([]byte(cfg.JWTSigningKey))
	reg := registry.New(clk, ids, roomLogger, recorder, recorder)

	httpServer := httpapi.NewServer(reg, idemp, log)
	router := httpServer.NewRouter()

	wsServer := wsapi.NewServer(reg, log)
	wsServer.Register(router)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registerer, promhttp.HandlerOpts{})))

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server starting")
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
