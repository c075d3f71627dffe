package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/flicky/holohaven-api/internal/client"
)

const cartUsage = "usage: cart [-api URL] [-token JWT] [-db PATH] [show | add ID [QTY] | set ID QTY | remove ID | clear]"

// runCart drives the offline-capable cart from the terminal. The mirror file
// keeps the last known cart so the command still answers when the API is down.
func runCart(ctx context.Context, out io.Writer, args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("cart", flag.ContinueOnError)
	fs.SetOutput(out)
	apiURL := fs.String("api", "http://localhost:8080", "Base URL of the storefront API")
	token := fs.String("token", os.Getenv("HOLOHAVEN_TOKEN"), "Bearer token of the signed-in user")
	dbPath := fs.String("db", "cart.db", "Path of the local cart mirror")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mirror, err := client.OpenMirror(*dbPath)
	if err != nil {
		return fmt.Errorf("open mirror: %w", err)
	}
	defer mirror.Close()

	oc := client.NewOfflineCart(client.NewRemoteCart(*apiURL, *token, nil), mirror, log)
	cart, err := applyCartAction(ctx, oc, fs.Args())
	if err != nil {
		return err
	}
	printCart(out, cart)
	return nil
}

func applyCartAction(ctx context.Context, oc *client.OfflineCart, args []string) (*client.Cart, error) {
	if len(args) == 0 {
		return oc.Get(ctx)
	}
	action, rest := args[0], args[1:]
	switch action {
	case "show":
		return oc.Get(ctx)
	case "clear":
		return oc.Clear(ctx)
	case "add":
		if len(rest) < 1 {
			return nil, errors.New(cartUsage)
		}
		id, err := uuid.Parse(rest[0])
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", rest[0])
		}
		qty := 1
		if len(rest) > 1 {
			if qty, err = strconv.Atoi(rest[1]); err != nil || qty < 1 {
				return nil, fmt.Errorf("invalid quantity %q", rest[1])
			}
		}
		return oc.Add(ctx, client.Item{ProductID: id, Quantity: qty})
	case "set":
		if len(rest) < 2 {
			return nil, errors.New(cartUsage)
		}
		id, err := uuid.Parse(rest[0])
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", rest[0])
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil || qty < 1 {
			return nil, fmt.Errorf("invalid quantity %q", rest[1])
		}
		return oc.SetQuantity(ctx, id, qty)
	case "remove":
		if len(rest) < 1 {
			return nil, errors.New(cartUsage)
		}
		id, err := uuid.Parse(rest[0])
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", rest[0])
		}
		return oc.Remove(ctx, id)
	default:
		return nil, errors.New(cartUsage)
	}
}

func printCart(out io.Writer, cart *client.Cart) {
	if len(cart.Items) == 0 {
		fmt.Fprintln(out, "Cart is empty.")
	}
	for _, it := range cart.Items {
		fmt.Fprintf(out, "%s  %-32s %3d x %s\n", it.ProductID, it.Name, it.Quantity, it.Price.StringFixed(2))
	}
	fmt.Fprintf(out, "Total: %s\n", cart.TotalPrice.StringFixed(2))
	fmt.Fprintf(out, "Offline: %t\n", cart.Offline)
}
