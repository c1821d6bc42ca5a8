package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	AppPort        string
	DBDSN          string
	MongoURI       string
	MongoDB        string
	JWTSecret      string
	SigningKey     string
	RequestTimeout time.Duration
}

var Env EnvConfig

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	Env.AppPort = os.Getenv("APP_PORT")
	Env.DBDSN = os.Getenv("DB_DSN")
	Env.MongoURI = os.Getenv("MONGO_URI")
	Env.MongoDB = os.Getenv("MONGO_DB_NAME")
	Env.JWTSecret = os.Getenv("JWT_SECRET")
	Env.SigningKey = os.Getenv("SIGNING_KEY")

	Env.RequestTimeout = 10 * time.Second
	if raw := os.Getenv("REQUEST_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			Env.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
}

func GetJWTSecret() string {
	return Env.JWTSecret
}
