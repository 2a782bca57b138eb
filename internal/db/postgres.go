package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/takio1981/my-todo-fullstack/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

const maxRetries = 5

// TasksSchema is created at startup. The users table is provisioned separately.
const TasksSchema = `
	CREATE TABLE IF NOT EXISTS tasks (
		id SERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE
	)
`

// UsersSchema is the DDL operators apply before the first registration.
const UsersSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL
	)
`

func Init(DBCfg *config.DBConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("pgx", DBCfg.DSN())
		if err != nil {
			logrus.WithError(err).Warnf("Failed to open database connection (attempt %d/%d)", i+1, maxRetries)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if err = db.Ping(); err != nil {
			logrus.WithError(err).Warnf("Failed to ping database (attempt %d/%d)", i+1, maxRetries)
			if cerr := db.Close(); cerr != nil {
				logrus.WithError(cerr).Warn("Failed to close database connection")
			}
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		break
	}

	if err != nil {
		return nil, fmt.Errorf("connect to database after %d attempts: %w", maxRetries, err)
	}

	// database/sql queues callers without limit once every connection is busy.
	db.SetMaxOpenConns(DBCfg.MaxOpenConns)
	db.SetMaxIdleConns(DBCfg.MaxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logrus.WithFields(logrus.Fields{
		"host":           DBCfg.Host,
		"database":       DBCfg.Name,
		"max_open_conns": DBCfg.MaxOpenConns,
	}).Info("Database connection established successfully")
	return db, nil
}

// EnsureSchema creates the tasks table if it is missing. Safe to run on every boot.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, TasksSchema); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}
