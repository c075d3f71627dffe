package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/holohaven-api/internal/config"
	"github.com/flicky/holohaven-api/internal/model"
	"github.com/flicky/holohaven-api/internal/repository"
	"github.com/flicky/holohaven-api/internal/worker"
)

const usage = "expected 'create-admin', 'seed-products', 'sweep-tokens' or 'cart' subcommand"

func main() {
	createAdminCmd := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := createAdminCmd.String("email", "", "Email for the admin account")
	username := createAdminCmd.String("username", "", "Username for the admin account")
	password := createAdminCmd.String("password", "", "Password for the admin account")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	// The cart talks to the API, not the database.
	if os.Args[1] == "cart" {
		if err := runCart(context.Background(), os.Stdout, os.Args[2:], slog.Default()); err != nil {
			log.Fatalf("cart: %v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx := context.Background()

	pool, err := repository.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer pool.Close()

	// Ensure tables exist if running the cli before the server
	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}

	switch os.Args[1] {
	case "create-admin":
		createAdminCmd.Parse(os.Args[2:])
		if *email == "" || *username == "" || *password == "" {
			fmt.Println("email, username and password are required")
			createAdminCmd.PrintDefaults()
			os.Exit(1)
		}
		createAdmin(ctx, repository.NewUserRepository(pool), *email, *username, *password)
	case "seed-products":
		seedProducts(ctx, repository.NewProductRepository(pool))
	case "sweep-tokens":
		sweeper := worker.NewTokenSweeper(repository.NewUserRepository(pool), cfg.Tokens.SweepInterval, cfg.Tokens.StaleAfter, slog.Default())
		n, err := sweeper.Sweep(ctx)
		if err != nil {
			log.Fatalf("Failed to sweep tokens: %v", err)
		}
		fmt.Printf("Removed %d stale push tokens.\n", n)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

// createAdmin promotes an existing account with the same email, or creates
// a new one.
func createAdmin(ctx context.Context, users repository.UserRepository, email, username, password string) {
	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if existing != nil {
		if err := users.SetAdmin(ctx, existing.ID, true); err != nil {
			log.Fatalf("Failed to promote user: %v", err)
		}
		fmt.Printf("User '%s' promoted to admin.\n", existing.Username)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &model.User{Email: email, Username: username, PasswordHash: string(hashedPassword), IsAdmin: true}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Fatalf("Username '%s' is already taken", username)
		}
		log.Fatalf("Failed to create user: %v", err)
	}
	fmt.Printf("Admin '%s' created successfully.\n", username)
}

type seedProduct struct {
	name, price, category, image string
}

var catalog = []seedProduct{
	{"Tokino Sora Plush", "19.99", "Plush", "https://i.imgur.com/8JZlC3C.png"},
	{"Roboco Keychain", "7.50", "Keychain", "https://i.imgur.com/TZKMm1G.png"},
	{"Sakura Miko Poster", "12.00", "Poster", "https://i.imgur.com/3b9K2Bk.png"},
	{"Hoshimachi Suisei T-shirt", "22.50", "Apparel", "https://i.imgur.com/wt0fN4q.png"},
	{"Shirakami Fubuki Sticker Pack", "5.00", "Sticker", "https://i.imgur.com/ZK0ZlqF.png"},
	{"Natsuiro Matsuri Plush", "18.00", "Plush", "https://i.imgur.com/Ui2rklF.png"},
	{"Usada Pekora Mug", "10.00", "Merch", "https://i.imgur.com/Up4yB5Q.png"},
	{"Shiranui Flare Hoodie", "35.00", "Apparel", "https://i.imgur.com/PZkABqf.png"},
}

// seedProducts inserts the starter catalog, skipping names already listed.
// Seeded products have no uploader, so any signed-in user may edit them.
func seedProducts(ctx context.Context, products repository.ProductRepository) {
	existing, err := products.List(ctx, model.ProductFilter{})
	if err != nil {
		log.Fatalf("Failed to list products: %v", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Name] = true
	}

	created := 0
	for _, s := range catalog {
		if seen[s.name] {
			continue
		}
		p := &model.Product{
			Name:     s.name,
			Price:    decimal.RequireFromString(s.price),
			Category: s.category,
			Image:    s.image,
			Images:   []string{},
			IsActive: true,
		}
		if err := products.Create(ctx, p); err != nil {
			log.Fatalf("Failed to seed %q: %v", s.name, err)
		}
		created++
	}
	fmt.Printf("Seeded %d products (%d already present).\n", created, len(catalog)-created)
}
