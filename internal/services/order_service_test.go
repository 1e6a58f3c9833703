package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-cafe-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type orderFixture struct {
	db     *gorm.DB
	orders OrderService
	dishes DishService
	dish   *models.Dish
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := setupTestDB(t)
	f := &orderFixture{db: db, orders: NewOrderService(db), dishes: NewDishService(db)}
	f.dish = createDish(t, f.dishes, "Test dish", "100.00")
	return f
}

// newOrder creates the reference order: table 1, two units of the 100.00 dish
func (f *orderFixture) newOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), 1, []ItemInput{{DishID: f.dish.ID, Quantity: 2}})
	require.NoError(t, err)
	return order
}

func (f *orderFixture) payOrder(t *testing.T, id uint) {
	t.Helper()
	_, err := f.orders.SetStatus(context.Background(), id, string(models.StatusPaid))
	require.NoError(t, err)
}

func TestCreateOrderScenario(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)

	assert.Equal(t, "200.00", order.TotalPrice.StringFixed(2))
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 1, order.TotalItems)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Test dish", order.Items[0].DishName)
	require.NotNil(t, order.Items[0].Dish)
	assert.Equal(t, f.dish.ID, order.Items[0].Dish.ID)
	assertTotalMatchesItems(t, f.db, order.ID)

	_, err := f.orders.AddItem(ctx, order.ID, ItemInput{DishID: f.dish.ID, Quantity: 1})
	require.NoError(t, err)

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", reloaded.TotalPrice.StringFixed(2))
	assert.Equal(t, 2, reloaded.TotalItems)
	assertTotalMatchesItems(t, f.db, order.ID)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name        string
		tableNumber int
		items       []ItemInput
		expected    error
	}{
		{name: "table above range", tableNumber: 101, items: []ItemInput{{DishID: f.dish.ID, Quantity: 1}}, expected: ErrValidation},
		{name: "table zero", tableNumber: 0, items: []ItemInput{{DishID: f.dish.ID, Quantity: 1}}, expected: ErrValidation},
		{name: "negative table", tableNumber: -3, items: []ItemInput{{DishID: f.dish.ID, Quantity: 1}}, expected: ErrValidation},
		{name: "no items", tableNumber: 1, items: nil, expected: ErrEmptyOrder},
		{name: "zero quantity", tableNumber: 1, items: []ItemInput{{DishID: f.dish.ID, Quantity: 0}}, expected: ErrValidation},
		{name: "unknown dish", tableNumber: 1, items: []ItemInput{{DishID: f.dish.ID, Quantity: 1}, {DishID: 999, Quantity: 1}}, expected: ErrDishNotFound},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, tt.tableNumber, tt.items)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	assert.Zero(t, countRows(t, f.db, &models.Order{}), "failed creates must not persist orders")
	assert.Zero(t, countRows(t, f.db, &models.OrderItem{}), "failed creates must not persist items")
}

func TestOrderAmountsStayWithinColumnRange(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	expensive := createDish(t, f.dishes, "Banquet", "123456789.01")

	_, err := f.orders.CreateOrder(ctx, 1, []ItemInput{{DishID: expensive.ID, Quantity: 1000001}})
	assert.ErrorIs(t, err, ErrValidation, "line price above the column range")

	_, err = f.orders.CreateOrder(ctx, 1, []ItemInput{
		{DishID: expensive.ID, Quantity: 5},
		{DishID: expensive.ID, Quantity: 5},
	})
	assert.ErrorIs(t, err, ErrValidation, "order total above the column range")
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
	assert.Zero(t, countRows(t, f.db, &models.OrderItem{}))

	order, err := f.orders.CreateOrder(ctx, 1, []ItemInput{{DishID: expensive.ID, Quantity: 7}})
	require.NoError(t, err)
	assert.Equal(t, "864197523.07", order.TotalPrice.StringFixed(2))

	_, err = f.orders.UpdateItem(ctx, order.ID, order.Items[0].ID, 9)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.AddItem(ctx, order.ID, ItemInput{DishID: expensive.ID, Quantity: 2})
	assert.ErrorIs(t, err, ErrValidation)

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, 7, reloaded.Items[0].Quantity)
	assert.Equal(t, "864197523.07", reloaded.TotalPrice.StringFixed(2))
	assertTotalMatchesItems(t, f.db, order.ID)
}

func TestCreateOrderBoundaryTables(t *testing.T) {
	f := newOrderFixture(t)

	for _, table := range []int{1, 100} {
		order, err := f.orders.CreateOrder(context.Background(), table, []ItemInput{{DishID: f.dish.ID, Quantity: 1}})
		require.NoError(t, err)
		assert.Equal(t, table, order.TableNumber)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.GetOrder(context.Background(), 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestStatusTransitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	t.Run("pending to ready to paid", func(t *testing.T) {
		order := f.newOrder(t)

		updated, err := f.orders.SetStatus(ctx, order.ID, "ready")
		require.NoError(t, err)
		assert.Equal(t, models.StatusReady, updated.Status)

		updated, err = f.orders.SetStatus(ctx, order.ID, "paid")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaid, updated.Status)

		_, err = f.orders.SetStatus(ctx, order.ID, "ready")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("pending straight to paid", func(t *testing.T) {
		order := f.newOrder(t)

		_, err := f.orders.SetStatus(ctx, order.ID, "paid")
		assert.NoError(t, err)
	})

	t.Run("rejected transitions", func(t *testing.T) {
		ready := f.newOrder(t)
		_, err := f.orders.SetStatus(ctx, ready.ID, "ready")
		require.NoError(t, err)
		_, err = f.orders.SetStatus(ctx, ready.ID, "pending")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)

		paid := f.newOrder(t)
		f.payOrder(t, paid.ID)
		for _, next := range []string{"pending", "ready", "paid"} {
			_, err = f.orders.SetStatus(ctx, paid.ID, next)
			assert.ErrorIs(t, err, ErrInvalidStatusTransition, "paid -> %s", next)
		}

		pending := f.newOrder(t)
		_, err = f.orders.SetStatus(ctx, pending.ID, "pending")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		_, err = f.orders.SetStatus(ctx, pending.ID, "cancelled")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)

		reloaded, err := f.orders.GetOrder(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, reloaded.Status)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := f.orders.SetStatus(ctx, 999, "ready")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestPaidOrderIsImmutable(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)
	itemID := order.Items[0].ID
	f.payOrder(t, order.ID)

	_, err := f.orders.AddItem(ctx, order.ID, ItemInput{DishID: f.dish.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrOrderImmutable)

	_, err = f.orders.UpdateItem(ctx, order.ID, itemID, 5)
	assert.ErrorIs(t, err, ErrOrderImmutable)

	err = f.orders.RemoveItem(ctx, order.ID, itemID)
	assert.ErrorIs(t, err, ErrOrderImmutable)

	table := 7
	_, err = f.orders.UpdateOrder(ctx, order.ID, UpdateOrderInput{TableNumber: &table})
	assert.ErrorIs(t, err, ErrOrderImmutable)

	err = f.orders.DeleteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderImmutable)

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.TotalItems)
	assert.Equal(t, 1, reloaded.TableNumber)
	assert.Equal(t, "200.00", reloaded.TotalPrice.StringFixed(2))
}

func TestAddItemsIsAllOrNothing(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)
	salad := createDish(t, f.dishes, "Salad", "25.50")

	_, err := f.orders.AddItems(ctx, order.ID, []ItemInput{{DishID: salad.ID, Quantity: 1}, {DishID: 999, Quantity: 1}})
	assert.ErrorIs(t, err, ErrDishNotFound)

	_, err = f.orders.AddItems(ctx, order.ID, []ItemInput{{DishID: salad.ID, Quantity: 1}, {DishID: salad.ID, Quantity: -1}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.AddItems(ctx, order.ID, nil)
	assert.ErrorIs(t, err, ErrValidation)

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.TotalItems)
	assert.Equal(t, "200.00", reloaded.TotalPrice.StringFixed(2))

	added, err := f.orders.AddItems(ctx, order.ID, []ItemInput{{DishID: salad.ID, Quantity: 2}, {DishID: f.dish.ID, Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "51.00", added[0].Price.StringFixed(2))

	reloaded, err = f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.TotalItems)
	assert.Equal(t, "351.00", reloaded.TotalPrice.StringFixed(2))
	assertTotalMatchesItems(t, f.db, order.ID)

	_, err = f.orders.AddItems(ctx, 999, []ItemInput{{DishID: salad.ID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateItemRepricesFromCurrentDishPrice(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)
	itemID := order.Items[0].ID

	newPrice := price(t, "120.00")
	_, err := f.dishes.UpdateDish(ctx, f.dish.ID, DishUpdate{Price: &newPrice})
	require.NoError(t, err)

	item, err := f.orders.UpdateItem(ctx, order.ID, itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, "360.00", item.Price.StringFixed(2))

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "360.00", reloaded.TotalPrice.StringFixed(2))
	assertTotalMatchesItems(t, f.db, order.ID)

	_, err = f.orders.UpdateItem(ctx, order.ID, itemID, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.UpdateItem(ctx, order.ID, 999, 1)
	assert.ErrorIs(t, err, ErrOrderItemNotFound)

	other := f.newOrder(t)
	_, err = f.orders.UpdateItem(ctx, other.ID, itemID, 1)
	assert.ErrorIs(t, err, ErrOrderItemNotFound)
}

func TestRemoveLastItemZeroesTotal(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)

	require.NoError(t, f.orders.RemoveItem(ctx, order.ID, order.Items[0].ID))

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.TotalItems)
	assert.True(t, reloaded.TotalPrice.IsZero())
	assertTotalMatchesItems(t, f.db, order.ID)

	err = f.orders.RemoveItem(ctx, order.ID, order.Items[0].ID)
	assert.ErrorIs(t, err, ErrOrderItemNotFound)
}

func TestRecalculateTotalIsIdempotent(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)

	first, err := f.orders.RecalculateTotal(ctx, order.ID)
	require.NoError(t, err)
	second, err := f.orders.RecalculateTotal(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, "200.00", first.TotalPrice.StringFixed(2))
	assert.True(t, first.TotalPrice.Equal(second.TotalPrice))

	_, err = f.orders.RecalculateTotal(ctx, 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRecalculateTotalRepairsDriftedCache(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)

	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("total_price", "1").Error)

	repaired, err := f.orders.RecalculateTotal(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "200.00", repaired.TotalPrice.StringFixed(2))
	assertTotalMatchesItems(t, f.db, order.ID)
}

func TestUpdateOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)
	tea := createDish(t, f.dishes, "Tea", "12.50")

	table := 12
	updated, err := f.orders.UpdateOrder(ctx, order.ID, UpdateOrderInput{TableNumber: &table})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.TableNumber)
	assert.Equal(t, "200.00", updated.TotalPrice.StringFixed(2))

	updated, err = f.orders.UpdateOrder(ctx, order.ID, UpdateOrderInput{Items: []ItemInput{{DishID: tea.ID, Quantity: 4}}})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, tea.ID, updated.Items[0].DishID)
	assert.Equal(t, "50.00", updated.TotalPrice.StringFixed(2))
	assertTotalMatchesItems(t, f.db, order.ID)

	_, err = f.orders.UpdateOrder(ctx, order.ID, UpdateOrderInput{Items: []ItemInput{}})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	bad := 101
	_, err = f.orders.UpdateOrder(ctx, order.ID, UpdateOrderInput{TableNumber: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.UpdateOrder(ctx, order.ID, UpdateOrderInput{Items: []ItemInput{{DishID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrDishNotFound)

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, reloaded.TableNumber)
	assert.Equal(t, 1, reloaded.TotalItems)
	assert.Equal(t, "50.00", reloaded.TotalPrice.StringFixed(2))
}

func TestDeleteOrderCascadesItems(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)
	kept := f.newOrder(t)

	require.NoError(t, f.orders.DeleteOrder(ctx, order.ID))

	_, err := f.orders.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.EqualValues(t, 1, countRows(t, f.db, &models.OrderItem{}))
	_, err = f.orders.GetOrder(ctx, kept.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.orders.DeleteOrder(ctx, order.ID), ErrOrderNotFound)
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	first := f.newOrder(t)
	second, err := f.orders.CreateOrder(ctx, 5, []ItemInput{{DishID: f.dish.ID, Quantity: 1}})
	require.NoError(t, err)
	third := f.newOrder(t)
	_, err = f.orders.SetStatus(ctx, second.ID, "ready")
	require.NoError(t, err)
	f.payOrder(t, third.ID)

	all, err := f.orders.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// alphabetical: paid, pending, ready
	assert.Equal(t, []uint{third.ID, first.ID, second.ID}, orderIDs(all))
	assert.Equal(t, 1, all[0].TotalItems)
	require.NotNil(t, all[0].Items[0].Dish, "list entries carry the nested dish")
	assert.Equal(t, f.dish.Name, all[0].Items[0].Dish.Name)

	desc, err := f.orders.ListOrders(ctx, OrderFilter{SortDesc: true})
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID, third.ID}, orderIDs(desc))

	table := 1
	byTable, err := f.orders.ListOrders(ctx, OrderFilter{TableNumber: &table})
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID, first.ID}, orderIDs(byTable))

	byStatus, err := f.orders.ListOrders(ctx, OrderFilter{TableNumber: &table, Status: models.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID}, orderIDs(byStatus))
}

func TestStatisticsAndRevenue(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	empty, err := f.orders.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)
	assert.True(t, empty.TotalRevenue.IsZero())
	assert.Len(t, empty.OrdersByStatus, 3)

	f.newOrder(t)
	paidA := f.newOrder(t)
	paidB, err := f.orders.CreateOrder(ctx, 2, []ItemInput{{DishID: f.dish.ID, Quantity: 1}})
	require.NoError(t, err)
	f.payOrder(t, paidA.ID)
	f.payOrder(t, paidB.ID)

	stats, err := f.orders.Statistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalOrders)
	assert.Equal(t, "300.00", stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, []models.StatusCount{
		{Status: models.StatusPending, Count: 1},
		{Status: models.StatusReady, Count: 0},
		{Status: models.StatusPaid, Count: 2},
	}, stats.OrdersByStatus)

	revenue, err := f.orders.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "300.00", revenue.StringFixed(2))
}

func TestConcurrentItemMutationsKeepTotalConsistent(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)

	const workers = 12
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := f.orders.AddItem(gctx, order.ID, ItemInput{DishID: f.dish.ID, Quantity: 1})
			return err
		})
	}
	require.NoError(t, g.Wait())

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, workers+1, reloaded.TotalItems)
	assert.Equal(t, "1400.00", reloaded.TotalPrice.StringFixed(2))
	assertTotalMatchesItems(t, f.db, order.ID)
}

func orderIDs(orders []models.Order) []uint {
	ids := make([]uint, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}
