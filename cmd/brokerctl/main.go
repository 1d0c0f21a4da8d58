// Command brokerctl exercises the broker client from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/coachpo/brokerlink/config"
	"github.com/coachpo/brokerlink/errs"
	"github.com/coachpo/brokerlink/internal/auth"
	"github.com/coachpo/brokerlink/internal/client"
	"github.com/coachpo/brokerlink/internal/observability"
	"github.com/coachpo/brokerlink/internal/reconcile"
	"github.com/coachpo/brokerlink/internal/schema"
	"github.com/coachpo/brokerlink/internal/stream"
	"github.com/coachpo/brokerlink/internal/telemetry"
	libtelemetry "github.com/coachpo/brokerlink/lib/telemetry"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	testnet := flag.Bool("testnet", false, "target the testnet deployment")
	flag.Parse()

	logger := log.New(os.Stderr, "brokerctl ", log.LstdFlags)

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	settings, err := loadSettings(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	settings.Network = config.NetworkFromFlag(*testnet || settings.Network == config.NetworkTestnet)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	observability.SetLogger(observability.NewJSONLogger(os.Stderr))

	_, shutdownTelemetry, err := libtelemetry.Init(ctx, settings.Telemetry)
	if err != nil {
		logger.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer shutdownCancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Printf("telemetry shutdown: %v", err)
		}
	}()

	store := auth.NewMemoryStore()
	if token, secret := os.Getenv("BROKERLINK_API_TOKEN"), os.Getenv("BROKERLINK_API_SECRET"); token != "" {
		store.Store(auth.Credentials{Token: token, Secret: secret})
	}

	// One nonce source per process: REST calls and the stream hello sign
	// with the same key, so their draws must share a single counter.
	nonces := auth.NewNonceSource()

	metrics := telemetry.NewRequestMetrics()
	api := client.New(settings, store,
		client.WithMetrics(metrics),
		client.WithNonceSource(nonces),
		client.WithRateLimit(rate.NewLimiter(rate.Limit(10), 20)))

	if err := run(ctx, api, settings, store, nonces, metrics, flag.Args()); err != nil {
		logger.Fatalf("%s: %s", flag.Arg(0), errs.UserMessage(err))
	}
}

func loadSettings(path string) (config.Settings, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.FromEnv(), nil
}

func run(ctx context.Context, api *client.Client, settings config.Settings, store auth.CredentialStore, nonces *auth.NonceSource, metrics *telemetry.RequestMetrics, args []string) error {
	switch args[0] {
	case "assets":
		assets, err := api.Assets(ctx)
		if err != nil {
			return err
		}
		return printJSON(assets)
	case "markets":
		markets, err := api.Markets(ctx)
		if err != nil {
			return err
		}
		return printJSON(markets)
	case "orderbook":
		if len(args) < 2 {
			return fmt.Errorf("usage: brokerctl orderbook <market>")
		}
		book, err := api.Orderbook(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(book)
	case "user":
		info, err := api.UserInfo(ctx, "")
		if err != nil {
			return err
		}
		return printJSON(info)
	case "order":
		return runOrder(ctx, api, args[1:])
	case "orders":
		offset, limit := 0, 50
		if len(args) > 1 {
			offset, _ = strconv.Atoi(args[1])
		}
		if len(args) > 2 {
			limit, _ = strconv.Atoi(args[2])
		}
		orders, err := api.Orders(ctx, offset, limit)
		if err != nil {
			return err
		}
		return printJSON(orders)
	case "watch":
		return runWatch(ctx, api, settings, store, nonces, metrics)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runOrder(ctx context.Context, api *client.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: brokerctl order <create|accept|status> ...")
	}
	switch args[0] {
	case "create":
		if len(args) < 5 {
			return fmt.Errorf("usage: brokerctl order create <market> <bid|ask> <amount> <address>")
		}
		side, err := schema.ParseOrderSide(args[2])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(args[3])
		if err != nil {
			return fmt.Errorf("parse amount: %w", err)
		}
		order, err := api.CreateOrder(ctx, client.CreateOrderParams{
			Market:  args[1],
			Side:    side,
			Amount:  amount,
			Address: args[4],
		})
		if err != nil {
			return err
		}
		return printJSON(order)
	case "accept":
		if len(args) < 2 {
			return fmt.Errorf("usage: brokerctl order accept <token>")
		}
		order, err := api.AcceptOrder(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(order)
	case "status":
		if len(args) < 2 {
			return fmt.Errorf("usage: brokerctl order status <token>")
		}
		order, err := api.OrderStatus(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(order)
	default:
		return fmt.Errorf("unknown order command %q", args[0])
	}
}

// runWatch seeds the reconciler from a REST page, then follows the account
// stream until interrupted, printing each change.
func runWatch(ctx context.Context, api *client.Client, settings config.Settings, store auth.CredentialStore, nonces *auth.NonceSource, metrics *telemetry.RequestMetrics) error {
	orders, err := api.Orders(ctx, 0, 50)
	if err != nil {
		return err
	}

	rec := reconcile.New()
	rec.SetOrders(orders)

	_, cancelSub := rec.Subscribe(reconcile.Handlers{
		OrderCreated: func(order schema.BrokerOrder) {
			fmt.Printf("created %s status=%s\n", order.Token, order.Status)
		},
		OrderUpdated: func(order schema.BrokerOrder) {
			fmt.Printf("updated %s status=%s\n", order.Token, order.Status)
		},
	})
	defer cancelSub()

	s, err := stream.New(settings, store,
		stream.WithMetrics(metrics),
		stream.WithNonceSource(nonces))
	if err != nil {
		return err
	}
	s.Start()
	defer s.Close()

	go func() {
		for err := range s.Errors() {
			fmt.Fprintf(os.Stderr, "stream: %s\n", errs.UserMessage(err))
		}
	}()

	rec.Run(ctx, s.Events())
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: brokerctl [-config file] [-testnet] <command>

commands:
  assets                                     list supported assets
  markets                                    list tradeable markets
  orderbook <market>                         fetch a depth snapshot
  user                                       show account info
  order create <market> <side> <amt> <addr>  place an order
  order accept <token>                       accept an order
  order status <token>                       fetch an order
  orders [offset] [limit]                    list orders
  watch                                      follow the account stream`)
}
