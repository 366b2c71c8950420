package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/samerhaddad/clubledger-backend/api/routes"
	"github.com/samerhaddad/clubledger-backend/internal/customers"
	"github.com/samerhaddad/clubledger-backend/internal/employees"
	"github.com/samerhaddad/clubledger-backend/internal/expenses"
	"github.com/samerhaddad/clubledger-backend/internal/identity"
	"github.com/samerhaddad/clubledger-backend/internal/inventory"
	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/internal/members"
	"github.com/samerhaddad/clubledger-backend/internal/payroll"
	"github.com/samerhaddad/clubledger-backend/internal/pos"
	"github.com/samerhaddad/clubledger-backend/internal/purchasing"
	"github.com/samerhaddad/clubledger-backend/internal/settlement"
	"github.com/samerhaddad/clubledger-backend/internal/suppliers"
	"github.com/samerhaddad/clubledger-backend/pkg/config"
	"github.com/samerhaddad/clubledger-backend/pkg/db"
	"github.com/samerhaddad/clubledger-backend/pkg/logger"
	"github.com/samerhaddad/clubledger-backend/pkg/metrics"
	"github.com/samerhaddad/clubledger-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	memberRepo := members.NewRepository(gdb)
	customerRepo := customers.NewRepository(gdb)
	supplierRepo := suppliers.NewRepository(gdb)
	employeeRepo := employees.NewRepository(gdb)
	productRepo := inventory.NewRepository(gdb)
	ledgerRepo := ledger.NewRepository(gdb)
	resolver := identity.NewResolver(gdb)

	projector, err := ledger.NewProjector(ledgerRepo, resolver, memberRepo, customerRepo, supplierRepo, employeeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger projector", err)
		os.Exit(1)
	}

	memberService, err := members.NewService(memberRepo, customerRepo, ledgerRepo, resolver, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create member service", err)
		os.Exit(1)
	}
	posService, err := pos.NewService(productRepo, memberRepo, customerRepo, employeeRepo, ledgerRepo, resolver, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create pos service", err)
		os.Exit(1)
	}
	purchasingService, err := purchasing.NewService(productRepo, supplierRepo, ledgerRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchasing service", err)
		os.Exit(1)
	}
	settlementService, err := settlement.NewService(memberRepo, customerRepo, supplierRepo, ledgerRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}
	payrollService, err := payroll.NewService(employeeRepo, ledgerRepo, resolver, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payroll service", err)
		os.Exit(1)
	}
	expenseService, err := expenses.NewService(ledgerRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create expense service", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	customerService, err := customers.NewService(customerRepo, resolver)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}
	supplierService, err := suppliers.NewService(supplierRepo, resolver)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier service", err)
		os.Exit(1)
	}
	employeeService, err := employees.NewService(employeeRepo, resolver, projector)
	if err != nil {
		logg.Error(context.Background(), "failed to create employee service", err)
		os.Exit(1)
	}

	opMetrics := metrics.NewOperationMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, routes.Services{
			Members:    memberService,
			POS:        posService,
			Purchasing: purchasingService,
			Settlement: settlementService,
			Payroll:    payrollService,
			Expenses:   expenseService,
			Inventory:  inventoryService,
			Customers:  customerService,
			Suppliers:  supplierService,
			Employees:  employeeService,
			Projector:  projector,
		}, opMetrics),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
