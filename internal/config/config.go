package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	OHLCVPath      string
	BlockchainPath string
	SentimentPath  string
	MacroPath      string
	FeaturesPath   string

	RetentionTarget float64

	DatabaseURL string
	RedisURL    string
}

func Load() *Config {
	cfg := &Config{
		OHLCVPath:      os.Getenv("OHLCV_PATH"),
		BlockchainPath: os.Getenv("BLOCKCHAIN_PATH"),
		SentimentPath:  os.Getenv("SENTIMENT_PATH"),
		MacroPath:      os.Getenv("MACRO_PATH"),
		FeaturesPath:   os.Getenv("FEATURES_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
	}

	if cfg.OHLCVPath == "" {
		cfg.OHLCVPath = "data/raw/binance_btcusdt_1h.csv"
	}
	if cfg.BlockchainPath == "" {
		cfg.BlockchainPath = "data/raw/blockchain_metrics_daily.csv"
	}
	if cfg.SentimentPath == "" {
		cfg.SentimentPath = "data/raw/sentiment_metrics.csv"
	}
	if cfg.MacroPath == "" {
		cfg.MacroPath = "data/raw/macro_indicators.csv"
	}
	if cfg.FeaturesPath == "" {
		cfg.FeaturesPath = "data/features/btc_features_complete.csv"
	}

	cfg.RetentionTarget = 0.90
	if v := strings.TrimSpace(os.Getenv("RETENTION_TARGET")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n <= 1 {
			cfg.RetentionTarget = n
		} else {
			log.Printf("Warning: invalid RETENTION_TARGET=%q, using 0.90", v)
		}
	}

	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, run history persistence disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, run report snapshot disabled")
	}

	return cfg
}
