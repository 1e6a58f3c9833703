package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/franciscosanchezn/gin-cafe-api/internal/database"
	"github.com/franciscosanchezn/gin-cafe-api/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command line flags
	menuPath := flag.String("menu", "", "Path to a JSON menu file (defaults to the built-in menu)")
	flag.Parse()

	// Database settings come from the same environment as the server
	_ = godotenv.Load()
	dbConfig, err := database.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load database configuration:", err)
	}

	db, err := database.InitDatabase(dbConfig)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	entries := services.DefaultMenu()
	if *menuPath != "" {
		file, err := os.Open(*menuPath)
		if err != nil {
			log.Fatal("Failed to open menu file:", err)
		}
		defer file.Close()

		entries, err = services.ReadMenu(file)
		if err != nil {
			log.Fatal("Failed to read menu file:", err)
		}
	}

	created, err := services.SeedMenu(context.Background(), services.NewDishService(db), entries)
	if err != nil {
		log.Fatal("Failed to seed menu:", err)
	}
	if created == 0 {
		fmt.Println("Menu already seeded, nothing to do")
		return
	}
	fmt.Printf("Seeded %d dishes\n", created)
}
