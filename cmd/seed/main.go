package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/config"
	pg "resume-ai-backend/internal/infra/db/postgres"
	"resume-ai-backend/internal/infra/logging"
	"resume-ai-backend/internal/usecase"
)

const usage = `usage: seed -config <path> <command> [args]

commands:
  schema                              apply the database schema
  list                                list all promo codes
  create <code> <reward> [flags]      create a promo code
      -max-uses N        cap total redemptions
      -expires 2026-12-31  expiry date (UTC midnight)
  activate <code>                     re-enable a code
  deactivate <code>                   disable a code without deleting history
  delete <code>                       remove a code entirely
`

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	accountRepo := pg.NewPostgresAccountRepo(pool)
	promoRepo := pg.NewPostgresPromoCodeRepo(pool)
	txManager := pg.NewTxManager(pool)
	ledger := usecase.NewCreditLedger(accountRepo, logger)
	promoUC := usecase.NewPromoUseCase(accountRepo, promoRepo, ledger, txManager, logger)

	switch cmd := args[0]; cmd {
	case "schema":
		if err := pg.ApplySchema(ctx, pool); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
		fmt.Println("schema applied")

	case "list":
		codes, err := promoUC.List(ctx)
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		if len(codes) == 0 {
			fmt.Println("no promo codes")
			return
		}
		for _, p := range codes {
			state := "inactive"
			if p.Active {
				state = "active"
			}
			uses := "unlimited"
			if p.MaxUses != nil {
				uses = fmt.Sprintf("%d/%d", p.UsedCount, *p.MaxUses)
			}
			expiry := "never"
			if p.ExpiresAt != nil {
				expiry = p.ExpiresAt.UTC().Format("2006-01-02")
			}
			fmt.Printf("  %-20s reward=%s %s uses=%s expires=%s\n", p.Code, p.RewardAmount, state, uses, expiry)
		}

	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		maxUses := fs.Int("max-uses", 0, "cap total redemptions (0 = unlimited)")
		expires := fs.String("expires", "", "expiry date, YYYY-MM-DD")
		if len(args) < 3 {
			log.Fatal("create needs <code> and <reward>")
		}
		_ = fs.Parse(args[3:])

		reward, err := decimal.NewFromString(args[2])
		if err != nil {
			log.Fatalf("bad reward %q: %v", args[2], err)
		}
		var capPtr *int
		if *maxUses > 0 {
			capPtr = maxUses
		}
		var expiryPtr *time.Time
		if *expires != "" {
			t, err := time.ParseInLocation("2006-01-02", *expires, time.UTC)
			if err != nil {
				log.Fatalf("bad expiry %q: %v", *expires, err)
			}
			expiryPtr = &t
		}
		promo, err := promoUC.Create(ctx, args[1], reward, capPtr, expiryPtr)
		if err != nil {
			log.Fatalf("create: %v", err)
		}
		fmt.Printf("created %s (reward=%s)\n", promo.Code, promo.RewardAmount)

	case "activate", "deactivate":
		if len(args) < 2 {
			log.Fatalf("%s needs <code>", cmd)
		}
		if err := promoUC.SetActive(ctx, args[1], cmd == "activate"); err != nil {
			log.Fatalf("%s: %v", cmd, err)
		}
		fmt.Printf("%sd %s\n", cmd, args[1])

	case "delete":
		if len(args) < 2 {
			log.Fatal("delete needs <code>")
		}
		if err := promoUC.Delete(ctx, args[1]); err != nil {
			log.Fatalf("delete: %v", err)
		}
		fmt.Printf("deleted %s\n", args[1])

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
