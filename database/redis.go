package database

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/prathambahekar/expense-mananger/config"
)

var Redis *redis.Client

func ConnectRedis() {
	opts, err := redis.ParseURL(config.AppConfig.RedisURL)
	if err != nil {
		log.Println("⚠️  Invalid Redis URL, running without cache:", err)
		return
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		log.Println("⚠️  Redis not available, running without cache:", err)
		return
	}

	Redis = client
	log.Println("✅ Redis connected successfully")
}
