package main

import (
	"flag"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/liondadev/sprite-toolkit/config"
	"github.com/liondadev/sprite-toolkit/server"

	_ "github.com/glebarez/go-sqlite"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the json or yaml config file")
	flag.Parse()

	// Open & Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Panicf("load config: %s", err.Error())
		return
	}

	if err := os.MkdirAll(cfg.FSPath, 0o755); err != nil {
		log.Panicf("create storage directory: %s", err.Error())
		return
	}

	// Sqlite connection
	path := cfg.DatabasePath
	if path == "" {
		log.Fatalln("Config didn't provide a 'sqlite' option as a path to an sqlite file.")
		return
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		log.Fatalf("Failed to open sqlite driver: %s", err.Error())
		return
	}
	defer db.Close()

	svr := server.New(cfg, db)
	err = svr.SetupHTTP()
	if err != nil {
		log.Panicf("setup http: %s", err.Error())
		return
	}

	err = svr.ApplyMigrations()
	if err != nil {
		log.Panicf("Failed to apply database migrations: %s", err.Error())
		return
	}

	if cfg.Open() {
		log.Println("No users configured, everyone is signed in as 'anonymous'.")
	}
	log.Printf("Listening on %s", cfg.Listen)
	log.Panicln(svr.Run(cfg.Listen))
}
