package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/internal/coupons"
	"github.com/velora-labs/velora-backend/internal/products"
	"github.com/velora-labs/velora-backend/pkg/db"
	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
	"github.com/velora-labs/velora-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type addressBook interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.ShippingAddress, error)
}

type feeResolver interface {
	FeeForPaymentType(ctx context.Context, paymentType enums.PaymentType) (int, error)
}

type couponEngine interface {
	Validate(ctx context.Context, userID uuid.UUID, code string, lines []coupons.Line) (*coupons.Preview, error)
	ApplyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, orderID *uuid.UUID) (*models.Coupon, error)
}

// Service exposes order operations for controllers.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*models.Order, error)
	Get(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, req ListOrdersRequest) (*Page, error)
	AdminList(ctx context.Context, req ListOrdersRequest) (*Page, error)
	UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, req UpdateStatusRequest) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID, req CancelRequest) (*models.Order, error)
}

// ServiceParams carries the order service dependencies.
type ServiceParams struct {
	Repo      OrderRepository
	Tx        txRunner
	Catalog   productLoader
	Addresses addressBook
	Fees      feeResolver
	Coupons   couponEngine
}

type service struct {
	repo      OrderRepository
	tx        txRunner
	catalog   productLoader
	addresses addressBook
	fees      feeResolver
	coupons   couponEngine
	now       func() time.Time
	suffix    func() int
}

// NewService builds an order service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address book required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("fee resolver required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon engine required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		catalog:   params.Catalog,
		addresses: params.Addresses,
		fees:      params.Fees,
		coupons:   params.Coupons,
		now:       time.Now,
		suffix:    randomSuffix,
	}, nil
}

// Create runs the checkout pipeline: ownership and item validation, price
// resolution, coupon preview, then one transaction writing the order, its
// items, the initial history row, the pending payment (prepaid only) and the
// coupon usage. Order number collisions retry with a fresh suffix.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	address, err := s.addresses.Get(ctx, userID, req.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	paymentType, err := enums.ParsePaymentType(req.PaymentType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}

	items, couponLines, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, item := range items {
		total += item.SubtotalCents
	}

	discount := 0
	var couponCode *string
	if req.CouponCode != nil && strings.TrimSpace(*req.CouponCode) != "" {
		code := strings.ToUpper(strings.TrimSpace(*req.CouponCode))
		preview, err := s.coupons.Validate(ctx, userID, code, couponLines)
		if err != nil {
			return nil, err
		}
		discount = preview.DiscountCents
		couponCode = &code
	}

	shippingFee, err := s.fees.FeeForPaymentType(ctx, paymentType)
	if err != nil {
		return nil, err
	}

	totalAfterDiscount := total - discount
	if totalAfterDiscount < 0 {
		totalAfterDiscount = 0
	}

	var created *models.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order := &models.Order{
			UserID:            userID,
			OrderNumber:       OrderNumber(s.now(), s.suffix()),
			TotalCents:        totalAfterDiscount,
			DiscountCents:     discount,
			ShippingFeeCents:  shippingFee,
			FinalCents:        totalAfterDiscount + shippingFee,
			PaymentType:       paymentType,
			PaymentStatus:     enums.PaymentStatusPending,
			Status:            enums.OrderStatusPending,
			ShippingAddressID: address.ID,
			CouponCode:        couponCode,
			Items:             cloneItems(items),
			StatusHistory:     []models.OrderStatusHistory{{Status: enums.OrderStatusPending, UpdatedBy: &userID}},
		}
		if paymentType.IsPrepaid() {
			order.Payment = &models.Payment{
				PaymentType: paymentType,
				AmountCents: order.FinalCents,
				Status:      enums.PaymentStatusPending,
			}
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			if _, err := txRepo.Create(ctx, order); err != nil {
				return err
			}
			if couponCode != nil {
				if _, err := s.coupons.ApplyTx(ctx, tx, userID, *couponCode, &order.ID); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			created = order
			break
		}
		if db.IsUniqueViolation(err, "uq_orders_order_number") {
			continue
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	if created == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order number collisions exhausted retries")
	}

	full, err := s.repo.FindByID(ctx, created.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return full, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, req ListOrdersRequest) (*Page, error) {
	return s.list(ctx, &userID, req)
}

func (s *service) AdminList(ctx context.Context, req ListOrdersRequest) (*Page, error) {
	return s.list(ctx, nil, req)
}

func (s *service) list(ctx context.Context, userID *uuid.UUID, req ListOrdersRequest) (*Page, error) {
	filter := ListFilter{UserID: userID}

	if req.Status != "" {
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		filter.Status = &status
	}

	cursor, err := pagination.ParseCursor(req.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Cursor = cursor

	limit := pagination.NormalizeLimit(req.Limit)
	filter.Limit = limit + 1

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := &Page{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// UpdateStatus applies an admin transition, appending a history row.
// Cancelling a paid order also books the refund.
func (s *service) UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, req UpdateStatusRequest) (*models.Order, error) {
	target, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	if err := s.transition(ctx, orderID, target, &adminID, req.Notes, nil); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, orderID)
}

// Cancel is the user-side cancellation: ownership plus the
// pending/processing guard, with the reason stored on the history row.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID, req CancelRequest) (*models.Order, error) {
	order, err := s.Get(ctx, userID, false, orderID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if err := s.transition(ctx, order.ID, enums.OrderStatusCancelled, &userID, &reason, &userID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, order.ID)
}

// transition locks the order, checks the state machine and writes the new
// status plus its history row in one transaction. ownerID, when set, must
// match the order's owner.
func (s *service) transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actor *uuid.UUID, notes *string, ownerID *uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.LockByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if ownerID != nil && order.UserID != *ownerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is already %s", order.Status))
		}
		if !CanTransition(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}
		// Buyers may only back out before fulfillment; staff can still
		// cancel a shipped order.
		if ownerID != nil && target == enums.OrderStatusCancelled &&
			order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot cancel an order that is %s", order.Status))
		}

		order.Status = target
		if target == enums.OrderStatusCancelled {
			if err := s.refundPaidPayment(ctx, txRepo, order, actor); err != nil {
				return err
			}
		}
		if _, err := txRepo.Update(ctx, order); err != nil {
			return err
		}

		return txRepo.AddHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    target,
			UpdatedBy: actor,
			Notes:     notes,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return nil
}

// refundPaidPayment books a refund for a successfully captured payment and
// flips both payment and order payment status to refunded.
func (s *service) refundPaidPayment(ctx context.Context, repo OrderRepository, order *models.Order, actor *uuid.UUID) error {
	payment := order.Payment
	if payment == nil || payment.Status != enums.PaymentStatusSuccessful {
		return nil
	}

	reason := "order cancelled"
	if err := repo.CreateRefund(ctx, &models.Refund{
		PaymentID:     payment.ID,
		OrderID:       order.ID,
		AmountCents:   payment.AmountCents,
		Reason:        &reason,
		TransactionID: "rfnd_" + uuid.NewString(),
		Status:        enums.RefundStatusCompleted,
		InitiatedBy:   actor,
	}); err != nil {
		return err
	}

	payment.Status = enums.PaymentStatusRefunded
	if err := repo.UpdatePayment(ctx, payment); err != nil {
		return err
	}
	order.PaymentStatus = enums.PaymentStatusRefunded
	return nil
}

// buildItems resolves each requested line against the catalog, snapshotting
// name, sku and unit price.
func (s *service) buildItems(ctx context.Context, inputs []ItemInput) ([]models.OrderItem, []coupons.Line, error) {
	if len(inputs) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	items := make([]models.OrderItem, 0, len(inputs))
	lines := make([]coupons.Line, 0, len(inputs))

	for _, input := range inputs {
		if input.Quantity <= 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}

		product, err := s.catalog.GetByID(ctx, input.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if product.Status != enums.ProductStatusActive {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is not available", product.Slug))
		}

		variation, err := resolveVariation(product, input.VariationID)
		if err != nil {
			return nil, nil, err
		}

		subtotal := variation.PriceCents * input.Quantity
		variationID := variation.ID
		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			VariationID:    &variationID,
			ProductName:    product.Name,
			SKU:            variation.SKU,
			Quantity:       input.Quantity,
			UnitPriceCents: variation.PriceCents,
			SubtotalCents:  subtotal,
		})
		lines = append(lines, coupons.Line{
			ProductID:   product.ID,
			CategoryID:  product.CategoryID,
			AmountCents: subtotal,
		})
	}
	return items, lines, nil
}

func resolveVariation(product *models.Product, variationID *uuid.UUID) (*models.ProductVariation, error) {
	if variationID != nil {
		for i := range product.Variations {
			if product.Variations[i].ID == *variationID {
				return &product.Variations[i], nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variation does not belong to product")
	}
	variation := products.DefaultVariation(product.Variations)
	if variation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product has no purchasable variation")
	}
	return variation, nil
}

func cloneItems(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	return out
}
