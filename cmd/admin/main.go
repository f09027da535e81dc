package main

import (
	"fmt"
	"log"
	"os"

	"chatboard/backend/internal/cache"
	"chatboard/backend/internal/config"
	"chatboard/backend/internal/presence"
	"chatboard/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db)

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: list | find <user_id> | count | delete <user_id> | promote <user_id> | online")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "list":
		users, err := storageSvc.GetAllUsers()
		if err != nil {
			log.Fatalf("Error listing users: %v", err)
		}
		for _, u := range users {
			fmt.Printf("%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Classification, u.Email)
		}
	case "find":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin find <user_id>")
			os.Exit(1)
		}
		user, err := storageSvc.GetUserByID(os.Args[2])
		if err != nil {
			log.Fatalf("Error finding user: %v", err)
		}
		fmt.Printf("%s\t%s\t%s\t%s\tage=%d\n", user.ID, user.Username, user.Classification, user.Email, user.Age)
	case "count":
		n, err := storageSvc.CountUsers()
		if err != nil {
			log.Fatalf("Error counting users: %v", err)
		}
		fmt.Println(n)
	case "delete":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin delete <user_id>")
			os.Exit(1)
		}
		userID := os.Args[2]
		user, err := storageSvc.DeleteUser(userID)
		if err != nil {
			log.Fatalf("Error deleting user: %v", err)
		}
		// Clean the ephemeral leftovers so the user does not linger in
		// the online list until the presence TTL runs out.
		pm := newPresence(cfg)
		pm.ClearMessageCount(user.Username)
		pm.MarkOffline(user.Username)
		fmt.Printf("User %s (%s) has been deleted.\n", user.Username, userID)
	case "promote":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin promote <user_id>")
			os.Exit(1)
		}
		user, err := storageSvc.GetUserByID(os.Args[2])
		if err != nil {
			log.Fatalf("Error finding user: %v", err)
		}
		user.Classification = "A"
		if err := storageSvc.UpdateUser(user); err != nil {
			log.Fatalf("Error promoting user: %v", err)
		}
		fmt.Printf("User %s is now an administrator.\n", user.Username)
	case "online":
		pm := newPresence(cfg)
		if !pm.Available() {
			log.Fatal("Ephemeral store is unavailable")
		}
		for _, username := range pm.ListOnline() {
			fmt.Println(username)
		}
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func newPresence(cfg config.Config) presence.Presence {
	if cfg.RedisAddr == "" {
		return presence.NewManager(cache.NewDisabled())
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	return presence.NewManager(cache.NewService(rdb))
}
