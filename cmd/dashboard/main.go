package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/config"
	"referral_platform/dashboard/schema"
	"referral_platform/dashboard/services"
	"referral_platform/dashboard/store"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func initLogging(logFile *os.File) {
	log.SetFlags(log.Lshortfile | log.Ltime | log.Ldate)
	log.SetOutput(io.MultiWriter(logFile, os.Stderr))
	slog.Info("logging initialized", "log_file", logFile.Name())
}

func initDb(dbUri string) *gorm.DB {
	dsn, err := config.PostgresDsn(dbUri)
	if err != nil {
		log.Panicf("invalid database uri: %v", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Panicf("error opening database connection: %v", err)
	}

	if err := db.AutoMigrate(schema.AllModels()...); err != nil {
		log.Panicf("error migrating db schema: %v", err)
	}

	return db
}

func initLocalStore(path string) *store.LocalStore {
	seed, err := store.SeedTables()
	if err != nil {
		log.Panicf("error loading seed data: %v", err)
	}

	local, err := store.OpenLocalStore(path, seed)
	if err != nil {
		log.Panicf("error opening local store at %v: %v", path, err)
	}
	return local
}

func main() {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		log.Panicf("error creating log dir: %v", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.LogDir, "dashboard.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Panicf("error opening log file: %v", err)
	}
	defer logFile.Close()

	initLogging(logFile)

	local := initLocalStore(cfg.LocalStorePath)

	var recordStore store.Store
	var userAuth auth.IdentityProvider

	// Demo mode runs entirely off the local json store with the sample
	// accounts; otherwise postgres is the primary and the local store serves
	// as a read fallback.
	if cfg.DemoMode {
		recordStore = local
		userAuth = auth.NewStaticIdentityProvider(auth.DemoAccounts)
		slog.Info("running in demo mode", "store", cfg.LocalStorePath)
	} else {
		db := initDb(cfg.DbUri)
		recordStore = store.NewFailover(store.NewSqlStore(db), local)
		userAuth = auth.NewBasicIdentityProvider(db)
	}

	dashboard := services.NewDashboard(recordStore, userAuth)
	dashboard.InitDefaults(cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)

	r := chi.NewRouter()
	r.Mount("/api/v1", dashboard.Routes())

	slog.Info("starting server", "port", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%v", cfg.Port), r); err != nil {
		log.Fatal(err.Error())
	}
}
