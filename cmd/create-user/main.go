// create-user provisions an account directly in postgres. There is no
// public signup endpoint; operators run this instead.
//
//	create-user -username alice [-password s3cret]
//
// When -password is omitted the password is read from stdin so it stays out
// of the shell history.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobboard/auth-service/internal/config"
	"github.com/jobboard/auth-service/internal/database"
	"github.com/jobboard/auth-service/internal/users"
	"github.com/jobboard/auth-service/pkg/logger"
)

func main() {
	username := flag.String("username", "", "username of the account to create")
	password := flag.String("password", "", "password (read from stdin when omitted)")
	flag.Parse()

	if *username == "" {
		flag.Usage()
		os.Exit(2)
	}

	pw := *password
	if pw == "" {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			logger.Fatalf("read password: %v", err)
		}
		pw = strings.TrimSpace(line)
	}
	if pw == "" {
		logger.Fatalf("empty password")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN(), 10*time.Second)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatalf("hash password: %v", err)
	}

	repo := users.NewPostgresRepository(db)
	u, err := repo.Create(ctx, *username, string(hash))
	if err != nil {
		logger.Fatalf("create user: %v", err)
	}

	fmt.Printf("created user %s (id %s)\n", u.Username, u.ID)
}
