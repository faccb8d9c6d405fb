package orders

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/internal/coupons"
	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
)

type stubOrderRepo struct {
	orders     map[uuid.UUID]*models.Order
	history    []models.OrderStatusHistory
	refunds    []models.Refund
	createErrs []error // popped per Create call
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) WithTx(_ *gorm.DB) OrderRepository { return s }

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now().UTC()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	for i := range order.StatusHistory {
		order.StatusHistory[i].ID = uuid.New()
		order.StatusHistory[i].OrderID = order.ID
		s.history = append(s.history, order.StatusHistory[i])
	}
	if order.Payment != nil {
		order.Payment.ID = uuid.New()
		order.Payment.OrderID = order.ID
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) Update(_ context.Context, order *models.Order) (*models.Order, error) {
	stored, ok := s.orders[order.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	stored.Status = order.Status
	stored.PaymentStatus = order.PaymentStatus
	return stored, nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *stubOrderRepo) List(_ context.Context, filter ListFilter) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if filter.UserID != nil && order.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		out = append(out, *order)
	}
	return out, nil
}

func (s *stubOrderRepo) AddHistory(_ context.Context, entry *models.OrderStatusHistory) error {
	entry.ID = uuid.New()
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubOrderRepo) UpdatePayment(_ context.Context, payment *models.Payment) error {
	for _, order := range s.orders {
		if order.Payment != nil && order.Payment.ID == payment.ID {
			order.Payment = payment
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) CreateRefund(_ context.Context, refund *models.Refund) error {
	refund.ID = uuid.New()
	s.refunds = append(s.refunds, *refund)
	return nil
}

type stubOrderTx struct{}

func (stubOrderTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubCatalog) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

type stubAddressBook struct {
	addresses map[uuid.UUID]*models.ShippingAddress
}

func (s *stubAddressBook) Get(_ context.Context, userID, id uuid.UUID) (*models.ShippingAddress, error) {
	address, ok := s.addresses[id]
	if !ok || address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}

type stubFees struct {
	cod     int
	prepaid int
}

func (s *stubFees) FeeForPaymentType(_ context.Context, paymentType enums.PaymentType) (int, error) {
	if paymentType == enums.PaymentTypeCOD {
		return s.cod, nil
	}
	return s.prepaid, nil
}

type stubCouponEngine struct {
	discount   int
	applied    []string
	applyOrder []*uuid.UUID
}

func (s *stubCouponEngine) Validate(_ context.Context, _ uuid.UUID, code string, _ []coupons.Line) (*coupons.Preview, error) {
	return &coupons.Preview{DiscountCents: s.discount}, nil
}

func (s *stubCouponEngine) ApplyTx(_ context.Context, _ *gorm.DB, _ uuid.UUID, code string, orderID *uuid.UUID) (*models.Coupon, error) {
	s.applied = append(s.applied, code)
	s.applyOrder = append(s.applyOrder, orderID)
	return &models.Coupon{Code: code}, nil
}

type orderFixture struct {
	svc     Service
	repo    *stubOrderRepo
	coupons *stubCouponEngine
	userID  uuid.UUID
	address *models.ShippingAddress
	product *models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	userID := uuid.New()
	address := &models.ShippingAddress{ID: uuid.New(), UserID: userID}
	categoryID := uuid.New()
	productID := uuid.New()
	product := &models.Product{
		ID:         productID,
		CategoryID: &categoryID,
		Name:       "Green Tea",
		Slug:       "green-tea",
		Status:     enums.ProductStatusActive,
		Variations: []models.ProductVariation{
			{ID: uuid.New(), ProductID: productID, SKU: "TEA-100G", PriceCents: 1299, IsDefault: true},
			{ID: uuid.New(), ProductID: productID, SKU: "TEA-250G", PriceCents: 2499},
		},
	}

	repo := newStubOrderRepo()
	couponEngine := &stubCouponEngine{}
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Tx:        stubOrderTx{},
		Catalog:   &stubCatalog{products: map[uuid.UUID]*models.Product{product.ID: product}},
		Addresses: &stubAddressBook{addresses: map[uuid.UUID]*models.ShippingAddress{address.ID: address}},
		Fees:      &stubFees{cod: 599, prepaid: 0},
		Coupons:   couponEngine,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	return &orderFixture{
		svc:     svc,
		repo:    repo,
		coupons: couponEngine,
		userID:  userID,
		address: address,
		product: product,
	}
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-\d{4}$`)

func TestCreateCODOrderTotals(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(context.Background(), f.userID, CreateOrderRequest{
		ShippingAddressID: f.address.ID,
		PaymentType:       "cod",
		Items: []ItemInput{
			{ProductID: f.product.ID, VariationID: &f.product.Variations[1].ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !orderNumberPattern.MatchString(order.OrderNumber) {
		t.Fatalf("order number %q does not match ORD-YYYYMMDD-RRRR", order.OrderNumber)
	}
	if order.TotalCents != 2*2499 {
		t.Fatalf("total = %d, want %d", order.TotalCents, 2*2499)
	}
	if order.ShippingFeeCents != 599 {
		t.Fatalf("shipping fee = %d, want cod 599", order.ShippingFeeCents)
	}
	if order.FinalCents != order.TotalCents+order.ShippingFeeCents {
		t.Fatalf("final %d != total %d + shipping %d", order.FinalCents, order.TotalCents, order.ShippingFeeCents)
	}
	if order.Payment != nil {
		t.Fatalf("cod order must not get a payment row at creation")
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("status = %q, want pending", order.Status)
	}
	if len(f.repo.history) != 1 || f.repo.history[0].Status != enums.OrderStatusPending {
		t.Fatalf("missing initial history row: %+v", f.repo.history)
	}
	if order.Items[0].SKU != "TEA-250G" || order.Items[0].ProductName != "Green Tea" {
		t.Fatalf("item snapshot wrong: %+v", order.Items[0])
	}
}

func TestCreatePrepaidOrderAddsPendingPayment(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(context.Background(), f.userID, CreateOrderRequest{
		ShippingAddressID: f.address.ID,
		PaymentType:       "razorpay",
		Items:             []ItemInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if order.ShippingFeeCents != 0 {
		t.Fatalf("prepaid shipping fee = %d, want 0", order.ShippingFeeCents)
	}
	if order.Payment == nil || order.Payment.Status != enums.PaymentStatusPending {
		t.Fatalf("prepaid order needs a pending payment, got %+v", order.Payment)
	}
	if order.Payment.AmountCents != order.FinalCents {
		t.Fatalf("payment amount %d != final %d", order.Payment.AmountCents, order.FinalCents)
	}
	// no variation named: the flagged default is used
	if order.Items[0].UnitPriceCents != 1299 {
		t.Fatalf("unit price = %d, want default variation 1299", order.Items[0].UnitPriceCents)
	}
}

func TestCreateWithCouponSubtractsDiscountAndAppliesUsage(t *testing.T) {
	f := newOrderFixture(t)
	f.coupons.discount = 500
	code := "save10"

	order, err := f.svc.Create(context.Background(), f.userID, CreateOrderRequest{
		ShippingAddressID: f.address.ID,
		PaymentType:       "cod",
		Items:             []ItemInput{{ProductID: f.product.ID, Quantity: 1}},
		CouponCode:        &code,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if order.DiscountCents != 500 {
		t.Fatalf("discount = %d, want 500", order.DiscountCents)
	}
	if order.TotalCents != 1299-500 {
		t.Fatalf("total = %d, want %d", order.TotalCents, 1299-500)
	}
	if order.CouponCode == nil || *order.CouponCode != "SAVE10" {
		t.Fatalf("coupon code = %v, want SAVE10", order.CouponCode)
	}
	if len(f.coupons.applied) != 1 || f.coupons.applied[0] != "SAVE10" {
		t.Fatalf("coupon usage not applied: %v", f.coupons.applied)
	}
	if len(f.coupons.applyOrder) != 1 || f.coupons.applyOrder[0] == nil || *f.coupons.applyOrder[0] != order.ID {
		t.Fatalf("coupon usage not linked to order")
	}
}

func TestCreateRetriesOrderNumberCollision(t *testing.T) {
	f := newOrderFixture(t)
	f.repo.createErrs = []error{
		&pgconn.PgError{Code: "23505", ConstraintName: "uq_orders_order_number"},
	}

	order, err := f.svc.Create(context.Background(), f.userID, CreateOrderRequest{
		ShippingAddressID: f.address.ID,
		PaymentType:       "cod",
		Items:             []ItemInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create after collision: %v", err)
	}
	if !orderNumberPattern.MatchString(order.OrderNumber) {
		t.Fatalf("order number %q invalid after retry", order.OrderNumber)
	}
}

func TestCreateRejectsForeignAddress(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Create(context.Background(), uuid.New(), CreateOrderRequest{
		ShippingAddressID: f.address.ID,
		PaymentType:       "cod",
		Items:             []ItemInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("foreign address should look absent, got %v", err)
	}
}

func seedOrder(f *orderFixture, status enums.OrderStatus, payment *models.Payment) *models.Order {
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      f.userID,
		OrderNumber: OrderNumber(time.Now(), 1234),
		TotalCents:  1299,
		FinalCents:  1898,
		PaymentType: enums.PaymentTypeCOD,
		Status:      status,
		Payment:     payment,
	}
	if payment != nil {
		payment.ID = uuid.New()
		payment.OrderID = order.ID
		order.PaymentType = payment.PaymentType
	}
	f.repo.orders[order.ID] = order
	return order
}

func TestUpdateStatusFollowsMachine(t *testing.T) {
	f := newOrderFixture(t)
	order := seedOrder(f, enums.OrderStatusPending, nil)
	adminID := uuid.New()

	updated, err := f.svc.UpdateStatus(context.Background(), adminID, order.ID, UpdateStatusRequest{Status: "processing"})
	if err != nil {
		t.Fatalf("pending->processing: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("status = %q, want processing", updated.Status)
	}

	_, err = f.svc.UpdateStatus(context.Background(), adminID, order.ID, UpdateStatusRequest{Status: "delivered"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("processing->delivered must be rejected, got %v", err)
	}
}

func TestTerminalOrderRejectsAllTransitions(t *testing.T) {
	f := newOrderFixture(t)
	order := seedOrder(f, enums.OrderStatusDelivered, nil)

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), order.ID, UpdateStatusRequest{Status: "cancelled"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("terminal order must reject transitions, got %v", err)
	}
}

func TestAdminCancelPaidOrderBooksRefund(t *testing.T) {
	f := newOrderFixture(t)
	order := seedOrder(f, enums.OrderStatusProcessing, &models.Payment{
		PaymentType: enums.PaymentTypeRazorpay,
		AmountCents: 1898,
		Status:      enums.PaymentStatusSuccessful,
	})
	adminID := uuid.New()

	updated, err := f.svc.UpdateStatus(context.Background(), adminID, order.ID, UpdateStatusRequest{Status: "cancelled"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if updated.PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatalf("order payment status = %q, want refunded", updated.PaymentStatus)
	}
	if updated.Payment.Status != enums.PaymentStatusRefunded {
		t.Fatalf("payment status = %q, want refunded", updated.Payment.Status)
	}
	if len(f.repo.refunds) != 1 {
		t.Fatalf("expected one refund row, got %d", len(f.repo.refunds))
	}
	refund := f.repo.refunds[0]
	if refund.AmountCents != 1898 {
		t.Fatalf("refund amount = %d, want 1898", refund.AmountCents)
	}
	if refund.InitiatedBy == nil || *refund.InitiatedBy != adminID {
		t.Fatalf("refund initiator not recorded")
	}
}

func TestAdminCancelShippedOrderBooksRefund(t *testing.T) {
	f := newOrderFixture(t)
	order := seedOrder(f, enums.OrderStatusShipped, &models.Payment{
		PaymentType: enums.PaymentTypeRazorpay,
		AmountCents: 2499,
		Status:      enums.PaymentStatusSuccessful,
	})

	updated, err := f.svc.UpdateStatus(context.Background(), uuid.New(), order.ID, UpdateStatusRequest{Status: "cancelled"})
	if err != nil {
		t.Fatalf("admin cancel of shipped order: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %q, want cancelled", updated.Status)
	}
	if updated.PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatalf("order payment status = %q, want refunded", updated.PaymentStatus)
	}
	if len(f.repo.refunds) != 1 {
		t.Fatalf("expected one refund row, got %d", len(f.repo.refunds))
	}
}

func TestUserCancelStoresReason(t *testing.T) {
	f := newOrderFixture(t)
	order := seedOrder(f, enums.OrderStatusPending, nil)

	updated, err := f.svc.Cancel(context.Background(), f.userID, order.ID, CancelRequest{Reason: "ordered by mistake"})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %q, want cancelled", updated.Status)
	}

	last := f.repo.history[len(f.repo.history)-1]
	if last.Notes == nil || *last.Notes != "ordered by mistake" {
		t.Fatalf("cancellation reason not stored: %+v", last)
	}
	if last.UpdatedBy == nil || *last.UpdatedBy != f.userID {
		t.Fatalf("history actor not recorded")
	}
}

func TestUserCannotCancelShippedOrder(t *testing.T) {
	f := newOrderFixture(t)
	order := seedOrder(f, enums.OrderStatusShipped, nil)

	_, err := f.svc.Cancel(context.Background(), f.userID, order.ID, CancelRequest{Reason: "changed my mind"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("shipped order must not be user-cancellable, got %v", err)
	}
}

func TestGetHidesForeignOrders(t *testing.T) {
	f := newOrderFixture(t)
	order := seedOrder(f, enums.OrderStatusPending, nil)

	if _, err := f.svc.Get(context.Background(), uuid.New(), false, order.ID); pkgerrors.As(err) == nil {
		t.Fatalf("foreign order should look absent, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), uuid.New(), true, order.ID); err != nil {
		t.Fatalf("admin should see any order: %v", err)
	}
}
