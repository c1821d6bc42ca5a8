package db

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB    *gorm.DB
	SQL   *sql.DB
	Mongo *mongo.Database
)

func ConnectDB() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	connectPostgres()
	connectMongo()

	if err := Migrate(SQL); err != nil {
		log.Fatal("Failed to run schema migration:", err)
	}
}

func connectPostgres() {
	dsn := os.Getenv("DB_DSN")

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}

	SQL, err = DB.DB()
	if err != nil {
		log.Fatal("Failed to unwrap sql.DB:", err)
	}

	log.Println("Connected to PostgreSQL successfully")
}

func connectMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoURI := os.Getenv("MONGO_URI")
	clientOptions := options.Client().ApplyURI(mongoURI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}

	dbName := os.Getenv("MONGO_DB_NAME")
	Mongo = client.Database(dbName)

	log.Println("Connected to MongoDB successfully")
}

func GetDB() *gorm.DB {
	return DB
}

func GetSQL() *sql.DB {
	return SQL
}

func GetMongo() *mongo.Database {
	return Mongo
}
