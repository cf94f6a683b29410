package database

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	config "github.com/soundrise/phonics_coach/configs"
)

var Redis *redis.Client

func ConnectRedis() {
	db, _ := strconv.Atoi(config.Config("REDIS_DB"))

	Redis = redis.NewClient(&redis.Options{
		Addr:     config.Config("REDIS_ADDR"),
		Password: config.Config("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatalf("🔥 Failed to connect to Redis: %v", err)
	}

	log.Println("✅ Redis connected successfully")
}
