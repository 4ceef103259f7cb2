package config

import (
	"log"
	"os"
	"time"

	"github.com/Hasin-ai/E-commerce-sub001/pkg/utils"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP     `yaml:"http"`
	Postgres PG       `yaml:"postgres"`
	Kafka    Kafka    `yaml:"kafka"`
	Gateway  Gateway  `yaml:"gateway"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
}

// Gateway configures the outbound payment gateway client.
type Gateway struct {
	Timeout       time.Duration `yaml:"timeout" env:"GATEWAY_TIMEOUT" env-default:"10s"`
	MaxRetries    int           `yaml:"max_retries" env:"GATEWAY_MAX_RETRIES" env-default:"3"`
	WebhookSecret string        `yaml:"webhook_secret" env:"GATEWAY_WEBHOOK_SECRET"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exists: %v\n", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
