package main

import (
	"log"

	"github.com/mohdfarhan01/ACADVault/app/signer"
	"github.com/mohdfarhan01/ACADVault/config"
	"github.com/mohdfarhan01/ACADVault/db"
	"github.com/mohdfarhan01/ACADVault/route"
)

func main() {
	config.LoadEnv()
	config.Logger()

	// The signing key is process-wide immutable state. Refusing to start
	// without it beats failing every verification at request time.
	sgn, err := signer.NewFromEnv(config.Env.SigningKey)
	if err != nil {
		log.Fatal("Failed to load signing key:", err)
	}

	db.ConnectDB()

	app := config.NewApp()

	route.SetupRoutes(app, db.GetDB(), db.GetSQL(), db.GetMongo(), sgn)

	port := config.Env.AppPort
	if port == "" {
		port = "3000"
	}
	log.Fatal(app.Listen(":" + port))
}
