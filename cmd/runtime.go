package cmd

import (
	"context"
	"fmt"
	"log"

	"bizdocs-backend/config"
	"bizdocs-backend/database"
	"bizdocs-backend/numbering"
	"bizdocs-backend/services"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// runtime is everything a command needs, built from the loaded config.
type runtime struct {
	cfg    *config.Config
	db     *gorm.DB // nil with STORE_DRIVER=memory
	redis  *redis.Client
	stores *database.Stores
	docs   *services.DocumentService
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg}

	switch cfg.StoreDriver {
	case "memory":
		log.Printf("[store] using in-memory collections")
		if rt.stores, err = database.MemoryStores(); err != nil {
			return nil, err
		}
	default:
		if rt.db, err = database.Connect(cfg); err != nil {
			return nil, err
		}
		rt.stores = database.GormStores(rt.db)
	}

	rt.redis, err = numbering.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	seed := services.NumberSeeder(rt.stores.Documents)
	var seq numbering.Sequencer
	if rt.redis != nil {
		log.Printf("[numbering] using redis counters at %s", cfg.RedisAddr)
		seq = numbering.NewRedisSequencer(rt.redis, seed)
	} else {
		seq = numbering.NewLocalSequencer(seed)
	}
	rt.docs = services.NewDocumentService(rt.stores.Documents, rt.stores.DocumentItems, numbering.NewAllocator(seq), services.Defaults{
		TaxPercent: cfg.TaxPercent(),
		DueDays:    cfg.DefaultDueDays,
	})
	return rt, nil
}

// ping checks the database, or nothing for in-memory stores.
func (rt *runtime) ping(ctx context.Context) error {
	if rt.db == nil {
		return nil
	}
	sqlDB, err := rt.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (rt *runtime) Close() {
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			log.Printf("[numbering] close redis: %v", err)
		}
	}
	if rt.db != nil {
		database.Close(rt.db)
	}
}
