package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/centralmei/backend/internal/config"
	"github.com/centralmei/backend/internal/db"
	"github.com/centralmei/backend/internal/event"
	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
)

// Valid CPF numbers for test fixtures.
const (
	testCPF        = "52998224725"
	testCPFAlt     = "11144477735"
	testCNAE       = "6201-5/01"
	testServiceFee = "97.00"
)

type testEnv struct {
	db          *gorm.DB
	bus         *event.Bus
	users       *repository.UserRepository
	payments    *repository.PaymentRepository
	requestRepo *repository.RequestRepository
	requests    *RequestService
	ledger      *LedgerService
	accounts    *AccountsService
	reports     *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	log := zerolog.Nop()
	bus := event.NewBus(log)

	userRepo := repository.NewUserRepository(database)
	requestRepo := repository.NewRequestRepository(database)
	accountsRepo := repository.NewAccountsRepository(database)
	ledgerRepo := repository.NewLedgerRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)

	ledgerCfg := config.LedgerConfig{
		CategoryName:    "MEI Services",
		SubcategoryName: "MEI Registration",
		ProductName:     "MEI Registration",
	}

	ledgerService := NewLedgerService(ledgerRepo, accountsRepo, userRepo, requestRepo, bus, ledgerCfg, log)
	ledgerService.RegisterHandlers(bus)

	return &testEnv{
		db:          database,
		bus:         bus,
		users:       userRepo,
		payments:    paymentRepo,
		requestRepo: requestRepo,
		requests:    NewRequestService(requestRepo, bus, log),
		ledger:      ledgerService,
		accounts:    NewAccountsService(accountsRepo),
		reports:     NewReportService(ledgerRepo),
	}
}

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return value
}

func (env *testEnv) createUser(t *testing.T, email string, staff, superuser bool) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "x",
		IsStaff:      staff,
		IsSuperuser:  superuser,
	}
	require.NoError(t, env.users.Create(context.Background(), user))
	return user
}

func (env *testEnv) createRequest(t *testing.T, cpf string) *model.ServiceRequest {
	t.Helper()
	req, err := env.requests.Create(context.Background(), CreateRequestInput{
		FullName:     "Maria da Silva",
		CPF:          cpf,
		Email:        "maria@example.com",
		Phone:        "11999990000",
		PrimaryCNAE:  testCNAE,
		ServiceValue: mustDecimal(t, testServiceFee),
	})
	require.NoError(t, err)
	return req
}
