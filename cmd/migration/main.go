package main

import (
	"flag"
	"log"

	"referral_platform/dashboard/config"
	"referral_platform/dashboard/schema"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dbUri := flag.String("db_uri", "", "Database URI")
	flag.Parse()

	if *dbUri == "" {
		log.Fatalf("Missing --db_uri arg")
	}

	dsn, err := config.PostgresDsn(*dbUri)
	if err != nil {
		log.Fatalf("invalid db uri: %v", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	migration := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			// Placeholder for the schema state before migrations were tracked.
			ID:      "0",
			Migrate: func(*gorm.DB) error { return nil },
		},
	})

	migration.InitSchema(func(txn *gorm.DB) error {
		log.Println("clean database detected, running full schema initialization")
		return txn.AutoMigrate(schema.AllModels()...)
	})

	if err := migration.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("migration completed successfully")
}
