package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/inventory-dashboard/internal/domain"
	cachemocks "github.com/example/inventory-dashboard/internal/infrastructure/cache/mocks"
	storemocks "github.com/example/inventory-dashboard/internal/infrastructure/store/mocks"
	"github.com/example/inventory-dashboard/internal/inventory"
	"github.com/example/inventory-dashboard/internal/sse"
)

type mockPublisher struct {
	mu     sync.Mutex
	Events []Event
}

func (p *mockPublisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event.(Event))
	return nil
}

func (p *mockPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	store        *storemocks.MockStore
	cache        *cachemocks.MockCache
	orderHub     *sse.Hub
	inventoryHub *sse.Hub
	publisher    *mockPublisher
	orders       *Service
}

func newTestEnv() *testEnv {
	st := storemocks.NewMockStore()
	c := cachemocks.NewMockCache()
	orderHub := sse.NewHub()
	inventoryHub := sse.NewHub()
	publisher := &mockPublisher{}
	inventorySvc := inventory.NewService(st, c, inventoryHub)
	orderSvc := NewService(st, c, orderHub, inventorySvc, publisher)
	return &testEnv{
		store:        st,
		cache:        c,
		orderHub:     orderHub,
		inventoryHub: inventoryHub,
		publisher:    publisher,
		orders:       orderSvc,
	}
}

func (e *testEnv) seedLaptop(quantity int) string {
	e.store.SeedItem(domain.InventoryItem{ID: "item-laptop", Name: "Laptop", Category: "Electronics", Quantity: quantity})
	return "item-laptop"
}

var buyer = CustomerInput{Name: "Ada", Email: "ada@example.com"}

// ============================================
// Create Order Tests
// ============================================

func TestService_Create_Success(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	itemID := env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 2}})

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, "Ada", created.Customer.Name)
	assert.Equal(t, []Line{{Product: "Laptop", Quantity: 2}}, created.Items)

	// Creation validates stock but never decrements it.
	assert.Equal(t, 50, env.store.Item(itemID).Quantity)

	assert.Contains(t, env.cache.DeletePrefixCalls, "orders:")
	assert.Equal(t, []string{EventOrderCreated}, env.publisher.Types())
}

func TestService_Create_ReusesCustomerByEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedLaptop(50)

	first, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 1}})
	require.NoError(t, err)

	second, err := env.orders.Create(ctx, CustomerInput{Name: "Someone Else", Email: "ada@example.com"}, []ItemInput{{Product: "Laptop", Quantity: 1}})
	require.NoError(t, err)

	// Resolution is by email; the existing customer record wins.
	assert.Equal(t, first.Customer.Email, second.Customer.Email)
	assert.Equal(t, "Ada", second.Customer.Name)
}

func TestService_Create_UnknownProduct(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Theremin", Quantity: 1}})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, created)

	recent, _ := env.store.RecentOrders(ctx, 10)
	assert.Empty(t, recent)
}

func TestService_Create_InsufficientStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.store.SeedItem(domain.InventoryItem{Name: "Guitar", Category: "Instruments", Quantity: 12})

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Guitar", Quantity: 100}})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.ErrorContains(t, err, "max available: 12")
	assert.Nil(t, created)

	recent, _ := env.store.RecentOrders(ctx, 10)
	assert.Empty(t, recent)
	assert.Empty(t, env.publisher.Types())
}

func TestService_Create_InvalidQuantity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedLaptop(50)

	_, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 0}})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestService_Create_NoItems(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.orders.Create(ctx, buyer, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestService_Create_MissingEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedLaptop(50)

	_, err := env.orders.Create(ctx, CustomerInput{Name: "Ada"}, []ItemInput{{Product: "Laptop", Quantity: 1}})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

// ============================================
// Confirm Payment Tests
// ============================================

func TestService_ConfirmPayment_Success(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	itemID := env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 2}})
	require.NoError(t, err)

	inventoryCh := env.inventoryHub.Register()
	orderCh := env.orderHub.Register()

	paid, err := env.orders.ConfirmPayment(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)

	// Stock is decremented exactly once, at pending -> paid.
	item := env.store.Item(itemID)
	assert.Equal(t, 48, item.Quantity)
	assert.True(t, item.Available)

	require.Len(t, env.store.TransitionCalls, 1)
	assert.Equal(t, -1, env.store.TransitionCalls[0].StockDelta)

	assert.Contains(t, env.cache.DeletePrefixCalls, "inventory:")
	assert.Contains(t, env.cache.DeletePrefixCalls, "orders:")

	// Both resource streams receive a fresh snapshot.
	assert.NotEmpty(t, <-inventoryCh)
	assert.NotEmpty(t, <-orderCh)

	assert.Equal(t, []string{EventOrderCreated, EventOrderPaid}, env.publisher.Types())
}

func TestService_ConfirmPayment_NotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.orders.ConfirmPayment(ctx, "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_ConfirmPayment_NotPending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	itemID := env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 2}})
	require.NoError(t, err)
	_, err = env.orders.ConfirmPayment(ctx, created.ID)
	require.NoError(t, err)

	_, err = env.orders.ConfirmPayment(ctx, created.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
	// The second attempt must not decrement again.
	assert.Equal(t, 48, env.store.Item(itemID).Quantity)
}

func TestService_ConfirmPayment_DuplicateProductLines(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	itemID := env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{
		{Product: "Laptop", Quantity: 2},
		{Product: "Laptop", Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, created.Items, 2)

	_, err = env.orders.ConfirmPayment(ctx, created.ID)
	require.NoError(t, err)

	// Every line contributes: 2 + 3, not one of them.
	assert.Equal(t, 45, env.store.Item(itemID).Quantity)

	_, err = env.orders.Refund(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, env.store.Item(itemID).Quantity)
}

// ============================================
// Cancel Order Tests
// ============================================

func TestService_Cancel_PendingLeavesStockUntouched(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	itemID := env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 3}})
	require.NoError(t, err)

	cancelled, err := env.orders.Cancel(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	// A pending order never decremented stock, so nothing is restored.
	assert.Equal(t, 50, env.store.Item(itemID).Quantity)

	require.Len(t, env.store.TransitionCalls, 1)
	assert.Equal(t, 0, env.store.TransitionCalls[0].StockDelta)
}

func TestService_Cancel_PaidRestocks(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	itemID := env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 3}})
	require.NoError(t, err)
	_, err = env.orders.ConfirmPayment(ctx, created.ID)
	require.NoError(t, err)

	cancelled, err := env.orders.Cancel(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	// Cancelling a paid order reverses the payment decrement exactly once.
	item := env.store.Item(itemID)
	assert.Equal(t, 50, item.Quantity)
	assert.True(t, item.Available)
	assert.Contains(t, env.cache.DeletePrefixCalls, "inventory:")
}

func TestService_Cancel_AlreadyCancelled(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 1}})
	require.NoError(t, err)
	_, err = env.orders.Cancel(ctx, created.ID)
	require.NoError(t, err)

	_, err = env.orders.Cancel(ctx, created.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestService_Cancel_Refunded(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 1}})
	require.NoError(t, err)
	_, err = env.orders.ConfirmPayment(ctx, created.ID)
	require.NoError(t, err)
	_, err = env.orders.Refund(ctx, created.ID)
	require.NoError(t, err)

	_, err = env.orders.Cancel(ctx, created.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestService_Cancel_NotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.orders.Cancel(ctx, "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ============================================
// Refund Order Tests
// ============================================

func TestService_Refund_Success(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	itemID := env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 4}})
	require.NoError(t, err)
	_, err = env.orders.ConfirmPayment(ctx, created.ID)
	require.NoError(t, err)

	refunded, err := env.orders.Refund(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, refunded.Status)
	// Net effect of payment + refund on stock is zero.
	assert.Equal(t, 50, env.store.Item(itemID).Quantity)
	assert.Equal(t, []string{EventOrderCreated, EventOrderPaid, EventOrderRefunded}, env.publisher.Types())
}

func TestService_Refund_NotPaid(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 1}})
	require.NoError(t, err)

	_, err = env.orders.Refund(ctx, created.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestService_Refund_NotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.orders.Refund(ctx, "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_PaymentRefundScenario(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	itemID := env.seedLaptop(50)

	created, err := env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, 50, env.store.Item(itemID).Quantity)

	paid, err := env.orders.ConfirmPayment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	assert.Equal(t, 48, env.store.Item(itemID).Quantity)

	refunded, err := env.orders.Refund(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, refunded.Status)
	assert.Equal(t, 50, env.store.Item(itemID).Quantity)

	_, err = env.orders.Refund(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// ============================================
// Listing Tests
// ============================================

func TestService_List_CachesResult(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.store.SeedOrder(domain.Order{
		Customer:  domain.Customer{Name: "Ada", Email: "ada@example.com"},
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	})

	first, err := env.orders.List(ctx, Filter{}, 1, 5)
	require.NoError(t, err)

	second, err := env.orders.List(ctx, Filter{}, 1, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.store.ListOrdersCalls)
}

func TestService_List_Pagination(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 7; i++ {
		env.store.SeedOrder(domain.Order{
			Customer:  domain.Customer{Name: "Ada", Email: "ada@example.com"},
			Status:    domain.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	page1, err := env.orders.List(ctx, Filter{}, 1, 5)
	require.NoError(t, err)
	assert.Len(t, page1.Orders, 5)
	assert.Equal(t, 1, page1.CurrentPage)
	assert.Equal(t, 2, page1.TotalPages)
	assert.Equal(t, 7, page1.TotalCount)

	page2, err := env.orders.List(ctx, Filter{}, 2, 5)
	require.NoError(t, err)
	assert.Len(t, page2.Orders, 2)
	assert.Equal(t, 2, page2.CurrentPage)
}

func TestService_List_SearchByCustomerName(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.store.SeedOrder(domain.Order{
		Customer:  domain.Customer{Name: "Ada Lovelace", Email: "ada@example.com"},
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	})
	env.store.SeedOrder(domain.Order{
		Customer:  domain.Customer{Name: "Grace Hopper", Email: "grace@example.com"},
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	})

	result, err := env.orders.List(ctx, Filter{SearchTerm: "lovelace"}, 1, 5)

	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "Ada Lovelace", result.Orders[0].Customer.Name)
}

func TestService_MutationInvalidatesListingCache(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedLaptop(50)

	_, err := env.orders.List(ctx, Filter{}, 1, 5)
	require.NoError(t, err)

	_, err = env.orders.Create(ctx, buyer, []ItemInput{{Product: "Laptop", Quantity: 1}})
	require.NoError(t, err)

	result, err := env.orders.List(ctx, Filter{}, 1, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, 2, env.store.ListOrdersCalls)
}

func TestService_Snapshot(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 8; i++ {
		env.store.SeedOrder(domain.Order{
			Customer:  domain.Customer{Name: "Ada", Email: "ada@example.com"},
			Status:    domain.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	data, err := env.orders.Snapshot(ctx)

	require.NoError(t, err)
	assert.Contains(t, string(data), `"currentPage":1`)
	assert.Contains(t, string(data), `"totalCount":5`)
}
