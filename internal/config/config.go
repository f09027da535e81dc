package config

import (
	"os"
)

type Config struct {
	AppPort string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	AMQPURL string

	JWTSecret string

	TelegramBotToken string
}

func Load() Config {
	cfg := Config{
		AppPort: os.Getenv("APP_PORT"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AMQPURL: os.Getenv("AMQP_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}

	return cfg
}
