package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samerhaddad/clubledger-backend/api/controllers"
	"github.com/samerhaddad/clubledger-backend/api/middleware"
	"github.com/samerhaddad/clubledger-backend/internal/customers"
	"github.com/samerhaddad/clubledger-backend/internal/employees"
	"github.com/samerhaddad/clubledger-backend/internal/expenses"
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
)

// Services bundles everything the router mounts.
type Services struct {
	Members    members.Service
	POS        pos.Service
	Purchasing purchasing.Service
	Settlement settlement.Service
	Payroll    payroll.Service
	Expenses   expenses.Service
	Inventory  inventory.Service
	Customers  customers.Service
	Suppliers  suppliers.Service
	Employees  employees.Service
	Projector  ledger.Projector
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	svcs Services,
	opMetrics *metrics.OperationMetrics,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, dbP))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/members", func(r chi.Router) {
			r.With(middleware.Operation(opMetrics, "register_member")).Post("/", controllers.MemberRegister(svcs.Members, logg))
			r.Get("/", controllers.MemberList(svcs.Members, logg))
			r.Get("/{id}", controllers.MemberGet(svcs.Members, logg))
			r.Patch("/{id}", controllers.MemberUpdate(svcs.Members, logg))
			r.Post("/{id}/status", controllers.MemberSetStatus(svcs.Members, logg))
			r.Delete("/{id}", controllers.MemberDelete(svcs.Members, logg))
		})

		r.With(middleware.Operation(opMetrics, "record_sale")).Post("/sales", controllers.SaleRecord(svcs.POS, logg))
		r.With(middleware.Operation(opMetrics, "record_purchase")).Post("/purchases", controllers.PurchaseRecord(svcs.Purchasing, logg))
		r.With(middleware.Operation(opMetrics, "settle_debt")).Post("/settlements", controllers.SettlementCreate(svcs.Settlement, logg))
		r.With(middleware.Operation(opMetrics, "payroll_payment")).Post("/payroll/payments", controllers.PayrollPay(svcs.Payroll, logg))

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", controllers.ExpenseRecord(svcs.Expenses, logg))
			r.Patch("/{id}", controllers.ExpenseUpdate(svcs.Expenses, logg))
			r.Delete("/{id}", controllers.ExpenseDelete(svcs.Expenses, logg))
		})
		r.Post("/withdrawals", controllers.WithdrawalRecord(svcs.Expenses, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(svcs.Inventory, logg))
			r.Get("/", controllers.ProductList(svcs.Inventory, logg))
			r.Get("/{id}", controllers.ProductGet(svcs.Inventory, logg))
			r.Patch("/{id}", controllers.ProductUpdate(svcs.Inventory, logg))
			r.Delete("/{id}", controllers.ProductDelete(svcs.Inventory, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CustomerCreate(svcs.Customers, logg))
			r.Get("/", controllers.CustomerList(svcs.Customers, logg))
			r.Get("/{id}", controllers.CustomerGet(svcs.Customers, logg))
			r.Patch("/{id}", controllers.CustomerUpdate(svcs.Customers, logg))
			r.Delete("/{id}", controllers.CustomerDelete(svcs.Customers, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.SupplierCreate(svcs.Suppliers, logg))
			r.Get("/", controllers.SupplierList(svcs.Suppliers, logg))
			r.Get("/{id}", controllers.SupplierGet(svcs.Suppliers, logg))
			r.Patch("/{id}", controllers.SupplierUpdate(svcs.Suppliers, logg))
			r.Delete("/{id}", controllers.SupplierDelete(svcs.Suppliers, logg))
		})

		r.Route("/employees", func(r chi.Router) {
			r.Post("/", controllers.EmployeeCreate(svcs.Employees, logg))
			r.Get("/", controllers.EmployeeList(svcs.Employees, logg))
			r.Get("/{id}", controllers.EmployeeGet(svcs.Employees, logg))
			r.Get("/{id}/balance", controllers.EmployeeBalance(svcs.Projector, logg))
			r.Patch("/{id}", controllers.EmployeeUpdate(svcs.Employees, logg))
			r.Delete("/{id}", controllers.EmployeeDelete(svcs.Employees, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", controllers.ReportSummary(svcs.Projector, logg))
			r.Get("/cash-balance", controllers.ReportCashBalance(svcs.Projector, logg))
			r.Get("/debtors", controllers.ReportDebtors(svcs.Projector, logg))
			r.Get("/monthly-debt", controllers.ReportMonthlyDebt(svcs.Projector, logg))
		})

		r.Get("/counterparties/{role}/{id}/statement", controllers.CounterpartyStatement(svcs.Projector, logg))
	})

	return r
}
