package clients

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

var (
	postgresInstance *sql.DB
	postgresOnce     sync.Once
)

// GetPostgresClient opens a pooled connection from the DB_* env vars.
// The pool is created once and shared across the process.
func GetPostgresClient() *sql.DB {
	postgresOnce.Do(func() {
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		dbUser := os.Getenv("DB_USER")
		dbPassword := os.Getenv("DB_PASSWORD")
		dbName := os.Getenv("DB_NAME")

		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			dbUser, dbPassword, dbHost, dbPort, dbName)

		db, err := sql.Open("postgres", dsn)
		if err != nil {
			slog.Error("[PostgresClient] Failed to open connection",
				slog.String("error", err.Error()))
			panic(err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			slog.Error("[PostgresClient] Failed to ping PostgreSQL",
				slog.String("error", err.Error()))
			panic(err)
		}

		slog.Info("[PostgresClient] Connected to PostgreSQL successfully")
		postgresInstance = db
	})

	return postgresInstance
}

func ClosePostgres() {
	if postgresInstance != nil {
		postgresInstance.Close()
	}
}
