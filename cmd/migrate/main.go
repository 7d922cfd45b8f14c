package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"sweetshop/config"
	"sweetshop/internal/pkg/database"
)

// Executa comandos goose sobre as migrações embutidas:
//
//	go run ./cmd/migrate [up|down|status|version|redo|reset] [args...]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Aviso: arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema: %v", err)
	}
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if cfg.StorageDriver != config.DriverPostgres {
		log.Fatalf("goose: migrações exigem STORAGE_DRIVER=postgres (atual: %s)", cfg.StorageDriver)
	}

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("goose: falha ao conectar ao banco: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("goose: falha ao fechar conexão: %v", err)
		}
	}()

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command := arguments[0]

	if err := database.RunMigrations(context.Background(), db, command, arguments[1:]...); err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("goose %s: sucesso\n", command)
}
