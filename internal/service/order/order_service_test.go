package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/snowflake"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

type reservation struct {
	productID uint64
	quantity  int
}

type fakeProductRepo struct {
	products   map[uint64]*model.Product
	reserveErr map[uint64]error
	reserved   []reservation
	released   []reservation
}

func (f *fakeProductRepo) Create(ctx context.Context, p *model.Product) error { return nil }
func (f *fakeProductRepo) Update(ctx context.Context, p *model.Product) error { return nil }

func (f *fakeProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, utils.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProductRepo) ReserveStock(ctx context.Context, id uint64, quantity int) error {
	if err := f.reserveErr[id]; err != nil {
		return err
	}
	f.reserved = append(f.reserved, reservation{id, quantity})
	return nil
}

func (f *fakeProductRepo) ReleaseStock(ctx context.Context, id uint64, quantity int) error {
	f.released = append(f.released, reservation{id, quantity})
	return nil
}

func (f *fakeProductRepo) ListBySupplier(ctx context.Context, supplierID uint64, page, pageSize int) ([]*model.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeProductRepo) ListIDs(ctx context.Context) ([]uint64, error) { return nil, nil }

type fakeOrderRepo struct {
	createErr     error
	created       []*model.Order
	byOrderNo     map[string]*model.Order
	statusUpdates map[uint64]map[string]interface{}
	ratingErr     error
	ratings       []uint64
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *model.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	o.ID = uint64(len(f.created) + 1)
	f.created = append(f.created, o)
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	return nil, utils.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	o, ok := f.byOrderNo[orderNo]
	if !ok {
		return nil, utils.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOrderRepo) UpdateStatusFields(ctx context.Context, id uint64, updates map[string]interface{}) error {
	if f.statusUpdates == nil {
		f.statusUpdates = make(map[uint64]map[string]interface{})
	}
	f.statusUpdates[id] = updates
	return nil
}

func (f *fakeOrderRepo) SetRating(ctx context.Context, id uint64, rating int, review *string) error {
	if f.ratingErr != nil {
		return f.ratingErr
	}
	f.ratings = append(f.ratings, id)
	return nil
}

func (f *fakeOrderRepo) ListByVendor(ctx context.Context, vendorID uint64, page, pageSize int) ([]*model.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeOrderRepo) ListBySupplier(ctx context.Context, supplierID uint64, page, pageSize int) ([]*model.Order, int64, error) {
	return nil, 0, nil
}

type fakeUserRepo struct {
	users map[uint64]*model.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, utils.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetSupplier(ctx context.Context, id uint64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok || !u.IsSupplier() {
		return nil, utils.ErrSupplierNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error { return nil }

type publishedEvent struct {
	room string
	ev   model.NotificationEvent
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) PublishToUser(userID uint64, ev model.NotificationEvent) {
	f.events = append(f.events, publishedEvent{fmt.Sprintf("user:%d", userID), ev})
}

func (f *fakePublisher) PublishToSupplier(supplierID uint64, ev model.NotificationEvent) {
	f.events = append(f.events, publishedEvent{fmt.Sprintf("supplier:%d", supplierID), ev})
}

func (f *fakePublisher) eventsOfType(t model.EventType) []publishedEvent {
	var out []publishedEvent
	for _, e := range f.events {
		if e.ev.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeNotifier struct {
	created []uint64
	status  []model.OrderStatus
}

func (f *fakeNotifier) NotifyOrderCreated(ctx context.Context, o *model.Order, r *model.User) error {
	f.created = append(f.created, r.ID)
	return nil
}

func (f *fakeNotifier) NotifyStatusChanged(ctx context.Context, o *model.Order, r *model.User, s model.OrderStatus) error {
	f.status = append(f.status, s)
	return nil
}

type fixture struct {
	svc       Service
	orders    *fakeOrderRepo
	products  *fakeProductRepo
	users     *fakeUserRepo
	publisher *fakePublisher
	notifier  *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	idgen, err := snowflake.New(1)
	require.NoError(t, err)

	f := &fixture{
		orders: &fakeOrderRepo{byOrderNo: make(map[string]*model.Order)},
		products: &fakeProductRepo{
			products:   make(map[uint64]*model.Product),
			reserveErr: make(map[uint64]error),
		},
		users: &fakeUserRepo{users: map[uint64]*model.User{
			100: {ID: 100, Role: model.RoleVendor, Phone: "111"},
			200: {ID: 200, Role: model.RoleSupplier, Phone: "222"},
			201: {ID: 201, Role: model.RoleSupplier, Phone: "333"},
		}},
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
	}

	f.svc = NewService(
		Config{
			FreeDeliveryThreshold: 50000,
			FlatDeliveryFee:       5000,
			EstimatedDelivery:     48 * time.Hour,
			OrderNoPrefix:         "BB",
		},
		f.orders, f.products, f.users,
		idgen, f.publisher, f.notifier,
	)
	return f
}

func (f *fixture) addProduct(id, supplierID uint64, price int64, qty int) {
	f.products.products[id] = &model.Product{
		ID:          id,
		SupplierID:  supplierID,
		Name:        fmt.Sprintf("Product %d", id),
		Price:       price,
		Quantity:    qty,
		IsAvailable: true,
	}
}

func vendorActor() Actor   { return Actor{ID: 100, Role: model.RoleVendor} }
func supplierActor() Actor { return Actor{ID: 200, Role: model.RoleSupplier} }

func tomorrow() string {
	return time.Now().Add(24 * time.Hour).Format("2006-01-02")
}

func TestCreateOrder_Success(t *testing.T) {
	f := newFixture(t)
	f.addProduct(1, 200, 10000, 50)
	f.addProduct(2, 200, 20000, 50)

	created, err := f.svc.CreateOrder(context.Background(), vendorActor(), &CreateOrderRequest{
		SupplierID:      200,
		Items:           []LineRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    tomorrow(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.OrderNo)
	assert.Equal(t, "BB", created.OrderNo[:2])
	assert.Equal(t, model.OrderStatusPending, created.Status)
	assert.Equal(t, int64(40000), created.Subtotal)
	assert.Equal(t, int64(5000), created.DeliveryFee)
	assert.Equal(t, int64(45000), created.Total)
	assert.Equal(t, model.PaymentStatusUnpaid, created.PaymentStatus)
	require.Len(t, created.Items, 2)
	assert.Equal(t, int64(10000), created.Items[0].UnitPrice)
	assert.Equal(t, int64(20000), created.Items[0].LineTotal)

	// stock reserved for both lines, nothing rolled back
	assert.Equal(t, []reservation{{1, 2}, {2, 1}}, f.products.reserved)
	assert.Empty(t, f.products.released)

	// fan-out reaches both sides
	require.Len(t, f.publisher.eventsOfType(model.EventNewOrderReceived), 1)
	assert.Equal(t, "supplier:200", f.publisher.eventsOfType(model.EventNewOrderReceived)[0].room)
	require.Len(t, f.publisher.eventsOfType(model.EventOrderConfirmed), 1)
	assert.Equal(t, "user:100", f.publisher.eventsOfType(model.EventOrderConfirmed)[0].room)

	assert.ElementsMatch(t, []uint64{100, 200}, f.notifier.created)
}

func TestCreateOrder_FreeDeliveryAboveThreshold(t *testing.T) {
	f := newFixture(t)
	f.addProduct(1, 200, 60000, 10)

	created, err := f.svc.CreateOrder(context.Background(), vendorActor(), &CreateOrderRequest{
		SupplierID:      200,
		Items:           []LineRequest{{ProductID: 1, Quantity: 1}},
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    tomorrow(),
	})
	require.NoError(t, err)
	assert.Zero(t, created.DeliveryFee)
	assert.Equal(t, created.Subtotal, created.Total)
}

func TestCreateOrder_ValidationAccumulates(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), vendorActor(), &CreateOrderRequest{
		SupplierID:   0,
		Items:        []LineRequest{{ProductID: 0, Quantity: -1}},
		DeliveryDate: "not-a-date",
	})
	require.Error(t, err)

	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeValidationFailed, appErr.Code)
	// every violation reported at once
	assert.Len(t, appErr.Details, 5)
	assert.Empty(t, f.products.reserved)
}

func TestValidateDelivery_DateBoundaryIsZoneSafe(t *testing.T) {
	farEast := time.FixedZone("UTC+13", 13*3600)
	farWest := time.FixedZone("UTC-11", -11*3600)

	tests := []struct {
		name     string
		now      time.Time
		date     string
		wantPast bool
	}{
		{
			name: "today accepted just after midnight far east",
			now:  time.Date(2026, 9, 2, 1, 0, 0, 0, farEast),
			date: "2026-09-02",
		},
		{
			name:     "yesterday rejected just after midnight far east",
			now:      time.Date(2026, 9, 2, 1, 0, 0, 0, farEast),
			date:     "2026-09-01",
			wantPast: true,
		},
		{
			name: "today accepted late evening far west",
			now:  time.Date(2026, 9, 1, 23, 0, 0, 0, farWest),
			date: "2026-09-01",
		},
		{
			name: "tomorrow accepted late evening far west",
			now:  time.Date(2026, 9, 1, 23, 0, 0, 0, farWest),
			date: "2026-09-02",
		},
		{
			name:     "clearly past rejected",
			now:      time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
			date:     "2026-08-30",
			wantPast: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v utils.ValidationCollector
			validateDelivery(&v, "12 Market Road", tt.date, tt.now)
			if tt.wantPast {
				require.True(t, v.HasErrors(), "expected %s to be rejected at %v", tt.date, tt.now)
			} else {
				assert.False(t, v.HasErrors(), "expected %s to be accepted at %v: %v", tt.date, tt.now, v.Err())
			}
		})
	}
}

func TestCreateOrder_NonVendorForbidden(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), supplierActor(), &CreateOrderRequest{
		SupplierID:      200,
		Items:           []LineRequest{{ProductID: 1, Quantity: 1}},
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    tomorrow(),
	})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestCreateOrder_SupplierMismatch(t *testing.T) {
	f := newFixture(t)
	f.addProduct(1, 201, 10000, 50) // belongs to the other supplier

	_, err := f.svc.CreateOrder(context.Background(), vendorActor(), &CreateOrderRequest{
		SupplierID:      200,
		Items:           []LineRequest{{ProductID: 1, Quantity: 1}},
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    tomorrow(),
	})
	require.Error(t, err)
	assert.Equal(t, utils.CodeValidationFailed, utils.GetErrorCode(err))
	assert.Empty(t, f.products.reserved)
}

func TestCreateOrder_StockConflictRollsBack(t *testing.T) {
	f := newFixture(t)
	f.addProduct(1, 200, 10000, 50)
	f.addProduct(2, 200, 20000, 50)
	f.products.reserveErr[2] = utils.ErrStockConflict

	_, err := f.svc.CreateOrder(context.Background(), vendorActor(), &CreateOrderRequest{
		SupplierID:      200,
		Items:           []LineRequest{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 1}},
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    tomorrow(),
	})
	require.Error(t, err)
	assert.True(t, utils.IsRetryable(err))

	// the first line's reservation was compensated
	assert.Equal(t, []reservation{{1, 3}}, f.products.reserved)
	assert.Equal(t, []reservation{{1, 3}}, f.products.released)
	assert.Empty(t, f.orders.created)
	assert.Empty(t, f.publisher.events)
}

func TestCreateOrder_PersistFailureRollsBackAllLines(t *testing.T) {
	f := newFixture(t)
	f.addProduct(1, 200, 10000, 50)
	f.addProduct(2, 200, 20000, 50)
	f.orders.createErr = utils.ErrDuplicateOrderNo

	_, err := f.svc.CreateOrder(context.Background(), vendorActor(), &CreateOrderRequest{
		SupplierID:      200,
		Items:           []LineRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    tomorrow(),
	})
	require.ErrorIs(t, err, utils.ErrDuplicateOrderNo)
	assert.True(t, utils.IsRetryable(err))
	assert.Equal(t, f.products.reserved, f.products.released)
}

func TestCheckout_SplitsBySupplier(t *testing.T) {
	f := newFixture(t)
	f.addProduct(1, 200, 10000, 50)
	f.addProduct(2, 201, 60000, 50)

	result, err := f.svc.Checkout(context.Background(), vendorActor(), &CheckoutRequest{
		Items:           []LineRequest{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}},
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    tomorrow(),
	})
	require.NoError(t, err)

	require.Len(t, result.Committed, 2)
	assert.Empty(t, result.Failed)

	assert.Equal(t, uint64(200), result.Committed[0].SupplierID)
	assert.Equal(t, int64(5000), result.Committed[0].DeliveryFee)
	assert.Equal(t, uint64(201), result.Committed[1].SupplierID)
	assert.Zero(t, result.Committed[1].DeliveryFee)

	// distinct order numbers per group
	assert.NotEqual(t, result.Committed[0].OrderNo, result.Committed[1].OrderNo)
}

func TestCheckout_GroupFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.addProduct(1, 200, 10000, 50)
	f.addProduct(2, 201, 60000, 50)
	f.products.reserveErr[2] = utils.ErrStockConflict

	result, err := f.svc.Checkout(context.Background(), vendorActor(), &CheckoutRequest{
		Items:           []LineRequest{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}},
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    tomorrow(),
	})
	require.NoError(t, err)

	require.Len(t, result.Committed, 1)
	assert.Equal(t, uint64(200), result.Committed[0].SupplierID)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, uint64(201), result.Failed[0].SupplierID)
	assert.NotEmpty(t, result.Failed[0].Reasons)

	// the committed group's stock stays reserved
	assert.Equal(t, []reservation{{1, 1}}, f.products.reserved)
	assert.Empty(t, f.products.released)
}

func TestCheckout_UnknownSupplierGroupFails(t *testing.T) {
	f := newFixture(t)
	f.addProduct(1, 200, 10000, 50)
	f.addProduct(2, 999, 60000, 50) // no user with ID 999 exists

	result, err := f.svc.Checkout(context.Background(), vendorActor(), &CheckoutRequest{
		Items:           []LineRequest{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}},
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    tomorrow(),
	})
	require.NoError(t, err)

	require.Len(t, result.Committed, 1)
	assert.Equal(t, uint64(200), result.Committed[0].SupplierID)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, uint64(999), result.Failed[0].SupplierID)
	assert.NotEmpty(t, result.Failed[0].Reasons)

	// nothing is ever reserved for a group whose supplier check fails
	assert.Equal(t, []reservation{{1, 1}}, f.products.reserved)
	assert.Empty(t, f.products.released)
}

func TestTransition_SupplierAccepts(t *testing.T) {
	f := newFixture(t)
	f.orders.byOrderNo["BB1"] = &model.Order{
		ID: 7, OrderNo: "BB1", VendorID: 100, SupplierID: 200,
		Status: model.OrderStatusPending,
	}

	updated, err := f.svc.Transition(context.Background(), supplierActor(), "BB1", model.OrderStatusAccepted, "")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusAccepted, updated.Status)
	require.NotNil(t, updated.EstimatedDeliveryAt)

	updates := f.orders.statusUpdates[7]
	require.NotNil(t, updates)
	assert.Equal(t, model.OrderStatusAccepted, updates["status"])
	assert.Contains(t, updates, "estimated_delivery_at")

	// both parties hear about it, the vendor additionally gets a confirmation
	assert.Len(t, f.publisher.eventsOfType(model.EventOrderUpdated), 2)
	assert.Len(t, f.publisher.eventsOfType(model.EventOrderConfirmed), 1)
	assert.Equal(t, []model.OrderStatus{model.OrderStatusAccepted, model.OrderStatusAccepted}, f.notifier.status)
}

func TestTransition_RejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	f.orders.byOrderNo["BB1"] = &model.Order{
		ID: 7, OrderNo: "BB1", VendorID: 100, SupplierID: 200,
		Status: model.OrderStatusPending,
	}

	_, err := f.svc.Transition(context.Background(), supplierActor(), "BB1", model.OrderStatusRejected, "")
	require.Error(t, err)
	assert.Equal(t, utils.CodeValidationFailed, utils.GetErrorCode(err))
	assert.Empty(t, f.orders.statusUpdates)

	updated, err := f.svc.Transition(context.Background(), supplierActor(), "BB1", model.OrderStatusRejected, "no capacity this week")
	require.NoError(t, err)
	require.NotNil(t, updated.CancellationReason)
	assert.Equal(t, "no capacity this week", *updated.CancellationReason)
}

func TestTransition_IllegalJump(t *testing.T) {
	f := newFixture(t)
	f.orders.byOrderNo["BB1"] = &model.Order{
		ID: 7, OrderNo: "BB1", VendorID: 100, SupplierID: 200,
		Status: model.OrderStatusPending,
	}

	_, err := f.svc.Transition(context.Background(), supplierActor(), "BB1", model.OrderStatusDelivered, "")
	require.Error(t, err)
	assert.Equal(t, utils.CodeIllegalTransition, utils.GetErrorCode(err))
	assert.Empty(t, f.orders.statusUpdates)
	assert.Empty(t, f.publisher.events)
}

func TestTransition_VendorCancelWindow(t *testing.T) {
	f := newFixture(t)

	for status, allowed := range map[model.OrderStatus]bool{
		model.OrderStatusPending:   true,
		model.OrderStatusAccepted:  true,
		model.OrderStatusPreparing: false,
		model.OrderStatusInTransit: false,
	} {
		f.orders.byOrderNo["BB1"] = &model.Order{
			ID: 7, OrderNo: "BB1", VendorID: 100, SupplierID: 200,
			Status: status,
		}

		_, err := f.svc.Transition(context.Background(), vendorActor(), "BB1", model.OrderStatusCancelled, "changed my mind")
		if allowed {
			assert.NoError(t, err, "status %s", status)
		} else {
			assert.Error(t, err, "status %s", status)
		}
	}
}

func TestAddRating(t *testing.T) {
	f := newFixture(t)
	review := "fresh produce"

	rating := 4
	f.orders.byOrderNo["BB1"] = &model.Order{
		ID: 7, OrderNo: "BB1", VendorID: 100, SupplierID: 200,
		Status: model.OrderStatusDelivered,
	}

	require.NoError(t, f.svc.AddRating(context.Background(), vendorActor(), "BB1", rating, &review))
	assert.Equal(t, []uint64{7}, f.orders.ratings)
}

func TestAddRating_Rules(t *testing.T) {
	f := newFixture(t)
	existing := 5
	f.orders.byOrderNo["delivered"] = &model.Order{
		ID: 1, OrderNo: "delivered", VendorID: 100, SupplierID: 200,
		Status: model.OrderStatusDelivered,
	}
	f.orders.byOrderNo["pending"] = &model.Order{
		ID: 2, OrderNo: "pending", VendorID: 100, SupplierID: 200,
		Status: model.OrderStatusPending,
	}
	f.orders.byOrderNo["rated"] = &model.Order{
		ID: 3, OrderNo: "rated", VendorID: 100, SupplierID: 200,
		Status: model.OrderStatusDelivered, Rating: &existing,
	}

	tests := []struct {
		name    string
		actor   Actor
		orderNo string
		rating  int
		wantErr error
	}{
		{"rating out of range", vendorActor(), "delivered", 6, nil},
		{"supplier cannot rate", supplierActor(), "delivered", 4, utils.ErrForbidden},
		{"other vendor cannot rate", Actor{ID: 999, Role: model.RoleVendor}, "delivered", 4, utils.ErrForbidden},
		{"undelivered order", vendorActor(), "pending", 4, utils.ErrNotRatable},
		{"already rated", vendorActor(), "rated", 4, utils.ErrRatingExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.AddRating(context.Background(), tt.actor, tt.orderNo, tt.rating, nil)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
	assert.Empty(t, f.orders.ratings)
}

func TestGetByOrderNo_NonPartySeesNotFound(t *testing.T) {
	f := newFixture(t)
	f.orders.byOrderNo["BB1"] = &model.Order{
		ID: 7, OrderNo: "BB1", VendorID: 100, SupplierID: 200,
		Status: model.OrderStatusPending,
	}

	_, err := f.svc.GetByOrderNo(context.Background(), Actor{ID: 999, Role: model.RoleVendor}, "BB1")
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)

	got, err := f.svc.GetByOrderNo(context.Background(), vendorActor(), "BB1")
	require.NoError(t, err)
	assert.Equal(t, "BB1", got.OrderNo)
}
