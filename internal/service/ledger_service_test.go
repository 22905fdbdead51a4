package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
)

func TestCompletedRequestCreatesSaleMovementAndBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "admin@centralmei.com.br", true, true)

	req := env.createRequest(t, testCPF)

	_, err := env.requests.SetStatus(ctx, req.ID, model.RequestStatusProcessing)
	require.NoError(t, err)
	updated, err := env.requests.SetStatus(ctx, req.ID, model.RequestStatusCompleted)
	require.NoError(t, err)
	assert.True(t, updated.SaleCreated)

	sales, total, err := env.ledger.ListSales(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	sale := sales[0]
	assert.Equal(t, model.SaleStatusPaid, sale.Status)
	assert.Equal(t, model.PaymentMethodPix, sale.PaymentMethod)
	assert.Equal(t, "Maria da Silva", sale.CustomerName)
	require.NotNil(t, sale.ServiceRequestID)
	assert.Equal(t, req.ID, *sale.ServiceRequestID)
	assert.True(t, sale.FinalValue.Equal(mustDecimal(t, "97.00")), "final value %s", sale.FinalValue)

	movements, movementTotal, err := env.ledger.ListMovements(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, movementTotal)
	assert.Equal(t, model.FlowTypeIn, movements[0].Type)
	assert.True(t, movements[0].Amount.Equal(mustDecimal(t, "97.00")))
	require.NotNil(t, movements[0].SaleID)
	assert.Equal(t, sale.ID, *movements[0].SaleID)
	assert.NotNil(t, movements[0].CategoryID)
	assert.NotNil(t, movements[0].SubcategoryID)

	balance, err := env.ledger.GetBalance(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, balance.OpeningBalance.IsZero())
	assert.True(t, balance.TotalIn.Equal(mustDecimal(t, "97.00")))
	assert.True(t, balance.ClosingBalance.Equal(mustDecimal(t, "97.00")))
}

func TestCompletedRequestAutomationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "admin@centralmei.com.br", true, true)

	req := env.createRequest(t, testCPF)

	_, err := env.requests.SetStatus(ctx, req.ID, model.RequestStatusCompleted)
	require.NoError(t, err)

	// Reopen and complete again; the sale_created flag must block a second
	// sale even though the completed event fires again.
	_, err = env.requests.SetStatus(ctx, req.ID, model.RequestStatusProcessing)
	require.NoError(t, err)
	_, err = env.requests.SetStatus(ctx, req.ID, model.RequestStatusCompleted)
	require.NoError(t, err)

	// Saving an already completed request must not fire the event at all.
	_, err = env.requests.SetStatus(ctx, req.ID, model.RequestStatusCompleted)
	require.NoError(t, err)

	_, saleTotal, err := env.ledger.ListSales(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, saleTotal)

	_, movementTotal, err := env.ledger.ListMovements(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, movementTotal)
}

func TestCompletedRequestWithoutEligibleSellerSkipsSale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.createRequest(t, testCPF)
	updated, err := env.requests.SetStatus(ctx, req.ID, model.RequestStatusCompleted)
	require.NoError(t, err)

	// No user, no superuser, no staff: the request stays completed and no
	// sale is written.
	assert.Equal(t, model.RequestStatusCompleted, updated.Status)
	assert.False(t, updated.SaleCreated)

	_, saleTotal, err := env.ledger.ListSales(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, saleTotal)
}

func (env *testEnv) createProduct(t *testing.T, price string) *model.Product {
	t.Helper()
	ctx := context.Background()
	category, err := env.accounts.CreateCategory(ctx, "Vendas", model.FlowTypeIn)
	require.NoError(t, err)
	subcategory, err := env.accounts.CreateSubcategory(ctx, category.ID, "Serviços", "")
	require.NoError(t, err)
	product, err := env.accounts.CreateProduct(ctx, subcategory.ID, "Consultoria", "", mustDecimal(t, price))
	require.NoError(t, err)
	return product
}

func TestCreateSaleComputesTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.createUser(t, "staff@centralmei.com.br", true, false)
	product := env.createProduct(t, "50.00")

	sale, err := env.ledger.CreateSale(ctx, CreateSaleInput{
		CustomerName: "João Pereira",
		ProductID:    product.ID,
		Quantity:     2,
		UnitPrice:    mustDecimal(t, "50.00"),
		Discount:     mustDecimal(t, "10.00"),
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	assert.True(t, sale.TotalValue.Equal(mustDecimal(t, "100.00")), "total %s", sale.TotalValue)
	assert.True(t, sale.FinalValue.Equal(mustDecimal(t, "90.00")), "final %s", sale.FinalValue)
	assert.Equal(t, model.SaleStatusPending, sale.Status)

	// Pending sales produce no movement.
	_, movementTotal, err := env.ledger.ListMovements(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, movementTotal)
}

func TestMarkSalePaidCreatesMovementOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.createUser(t, "staff@centralmei.com.br", true, false)
	product := env.createProduct(t, "150.00")

	sale, err := env.ledger.CreateSale(ctx, CreateSaleInput{
		CustomerName: "João Pereira",
		ProductID:    product.ID,
		Quantity:     1,
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	paid, err := env.ledger.MarkSalePaid(ctx, sale.ID, model.PaymentMethodCash)
	require.NoError(t, err)
	assert.Equal(t, model.SaleStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentDate)

	// Settling again must not duplicate the movement.
	_, err = env.ledger.MarkSalePaid(ctx, sale.ID, model.PaymentMethodCash)
	require.NoError(t, err)

	movements, movementTotal, err := env.ledger.ListMovements(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, movementTotal)
	assert.True(t, movements[0].Amount.Equal(mustDecimal(t, "150.00")))
}

func TestManualMovementsRecomputeSameDayBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.createUser(t, "staff@centralmei.com.br", true, false)

	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	_, err := env.ledger.CreateMovement(ctx, MovementInput{
		Type:         model.FlowTypeIn,
		Description:  "Recebimento avulso",
		Amount:       mustDecimal(t, "100.00"),
		MovementDate: day,
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	_, err = env.ledger.CreateMovement(ctx, MovementInput{
		Type:         model.FlowTypeOut,
		Description:  "Taxa bancária",
		Amount:       mustDecimal(t, "30.00"),
		MovementDate: day,
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	balance, err := env.ledger.GetBalance(ctx, day)
	require.NoError(t, err)
	assert.True(t, balance.TotalIn.Equal(mustDecimal(t, "100.00")))
	assert.True(t, balance.TotalOut.Equal(mustDecimal(t, "30.00")))
	assert.True(t, balance.ClosingBalance.Equal(mustDecimal(t, "70.00")), "closing %s", balance.ClosingBalance)
}

func TestBalanceOpeningChainsFromPreviousDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.createUser(t, "staff@centralmei.com.br", true, false)

	day1 := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	_, err := env.ledger.CreateMovement(ctx, MovementInput{
		Type:         model.FlowTypeIn,
		Description:  "Venda",
		Amount:       mustDecimal(t, "100.00"),
		MovementDate: day1,
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	_, err = env.ledger.CreateMovement(ctx, MovementInput{
		Type:         model.FlowTypeOut,
		Description:  "Compra de material",
		Amount:       mustDecimal(t, "40.00"),
		MovementDate: day2,
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	second, err := env.ledger.GetBalance(ctx, day2)
	require.NoError(t, err)
	assert.True(t, second.OpeningBalance.Equal(mustDecimal(t, "100.00")), "opening %s", second.OpeningBalance)
	assert.True(t, second.ClosingBalance.Equal(mustDecimal(t, "60.00")), "closing %s", second.ClosingBalance)
}

func TestUpdateMovementRecomputesBothDays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.createUser(t, "staff@centralmei.com.br", true, false)

	day1 := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 3)

	movement, err := env.ledger.CreateMovement(ctx, MovementInput{
		Type:         model.FlowTypeIn,
		Description:  "Venda",
		Amount:       mustDecimal(t, "80.00"),
		MovementDate: day1,
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	_, err = env.ledger.UpdateMovement(ctx, movement.ID, MovementInput{
		Type:         model.FlowTypeIn,
		Description:  "Venda",
		Amount:       mustDecimal(t, "80.00"),
		MovementDate: day2,
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	origin, err := env.ledger.GetBalance(ctx, day1)
	require.NoError(t, err)
	assert.True(t, origin.ClosingBalance.IsZero(), "origin closing %s", origin.ClosingBalance)

	destination, err := env.ledger.GetBalance(ctx, day2)
	require.NoError(t, err)
	assert.True(t, destination.ClosingBalance.Equal(mustDecimal(t, "80.00")))
}

func TestDeleteMovementRecomputesBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.createUser(t, "staff@centralmei.com.br", true, false)

	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	movement, err := env.ledger.CreateMovement(ctx, MovementInput{
		Type:         model.FlowTypeIn,
		Description:  "Venda",
		Amount:       mustDecimal(t, "55.00"),
		MovementDate: day,
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	require.NoError(t, env.ledger.DeleteMovement(ctx, movement.ID))

	balance, err := env.ledger.GetBalance(ctx, day)
	require.NoError(t, err)
	assert.True(t, balance.TotalIn.IsZero())
	assert.True(t, balance.ClosingBalance.IsZero())
}

func TestMovementValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.createUser(t, "staff@centralmei.com.br", true, false)

	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	_, err := env.ledger.CreateMovement(ctx, MovementInput{
		Type:         "sideways",
		Description:  "x",
		Amount:       mustDecimal(t, "10.00"),
		MovementDate: day,
		CreatedByID:  staff.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.ledger.CreateMovement(ctx, MovementInput{
		Type:         model.FlowTypeIn,
		Description:  "x",
		Amount:       mustDecimal(t, "0"),
		MovementDate: day,
		CreatedByID:  staff.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// A movement may not be classified under a category of the opposite flow.
	outCategory, err := env.accounts.CreateCategory(ctx, "Despesas", model.FlowTypeOut)
	require.NoError(t, err)
	_, err = env.ledger.CreateMovement(ctx, MovementInput{
		Type:         model.FlowTypeIn,
		CategoryID:   &outCategory.ID,
		Description:  "x",
		Amount:       mustDecimal(t, "10.00"),
		MovementDate: day,
		CreatedByID:  staff.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteCategoryInUseIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.createUser(t, "staff@centralmei.com.br", true, false)

	category, err := env.accounts.CreateCategory(ctx, "Vendas", model.FlowTypeIn)
	require.NoError(t, err)

	_, err = env.ledger.CreateMovement(ctx, MovementInput{
		Type:         model.FlowTypeIn,
		CategoryID:   &category.ID,
		Description:  "Venda",
		Amount:       mustDecimal(t, "10.00"),
		MovementDate: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		CreatedByID:  staff.ID,
	})
	require.NoError(t, err)

	err = env.accounts.DeleteCategory(ctx, category.ID)
	assert.ErrorIs(t, err, ErrConflict)
}
