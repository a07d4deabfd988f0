package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"
	"time"

	// Local Packages
	config "epulsaku/config"
	mongodb "epulsaku/repositories/mongodb"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"golang.org/x/crypto/bcrypt"
)

// reset-pin sets a fresh transaction PIN for a user, clearing any
// lockout state, or just re-enables a locked account with --enable-only.
func main() {
	_ = godotenv.Load()

	configPath := kingpin.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()
	username := kingpin.Flag("username", "Account to update").Short('u').Required().String()
	pin := kingpin.Flag("pin", "New transaction PIN").Short('p').String()
	enableOnly := kingpin.Flag("enable-only", "Re-enable the account without changing the PIN").Bool()
	kingpin.Parse()

	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if *configPath != "" {
		_ = k.Load(file.Provider(*configPath), yaml.Parser())
	}

	appKonf := config.Config{}
	if err := k.Unmarshal("", &appKonf); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		appKonf.Mongo.URI = v
	}

	if !*enableOnly && *pin == "" {
		log.Fatal("either --pin or --enable-only is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mongoClient, err := mongodb.Connect(ctx, appKonf.Mongo.URI)
	if err != nil {
		log.Fatalf("cannot create mongo client: %v", err)
	}
	userRepo := mongodb.NewUserRepository(mongoClient, appKonf.Mongo.Database)

	if *enableOnly {
		if err := userRepo.Enable(ctx, *username); err != nil {
			log.Fatalf("cannot re-enable account: %v", err)
		}
		log.Printf("account %s re-enabled", *username)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*pin), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("cannot hash pin: %v", err)
	}
	if err := userRepo.SetPin(ctx, *username, string(hashed)); err != nil {
		log.Fatalf("cannot set pin: %v", err)
	}
	log.Printf("pin updated for %s, lockout cleared", *username)
}
