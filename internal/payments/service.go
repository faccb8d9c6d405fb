package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-labs/velora-backend/internal/orders"
	"github.com/velora-labs/velora-backend/pkg/config"
	"github.com/velora-labs/velora-backend/pkg/db/models"
	"github.com/velora-labs/velora-backend/pkg/enums"
	pkgerrors "github.com/velora-labs/velora-backend/pkg/errors"
	"github.com/velora-labs/velora-backend/pkg/razorpay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gateway interface {
	CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (*razorpay.GatewayOrder, error)
	VerifyCallback(orderID, paymentID, signature string) bool
	KeyID() string
}

// Service exposes payment operations for controllers.
type Service interface {
	Process(ctx context.Context, userID, orderID uuid.UUID) (*models.Payment, error)
	CreateGatewayOrder(ctx context.Context, userID, orderID uuid.UUID) (*GatewayOrderResponse, error)
	Callback(ctx context.Context, params CallbackParams) (*CallbackResult, error)
	Refund(ctx context.Context, adminID uuid.UUID, req RefundRequest) (*models.Refund, error)
}

// ServiceParams carries the payment service dependencies.
type ServiceParams struct {
	Repo    PaymentRepository
	Orders  orders.OrderRepository
	Tx      txRunner
	Gateway gateway
	Config  config.RazorpayConfig
}

type service struct {
	repo    PaymentRepository
	orders  orders.OrderRepository
	tx      txRunner
	gateway gateway
	cfg     config.RazorpayConfig
}

// NewService builds a payment service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		repo:    params.Repo,
		orders:  params.Orders,
		tx:      params.Tx,
		gateway: params.Gateway,
		cfg:     params.Config,
	}, nil
}

// Process settles an order without the hosted gateway flow. COD orders keep
// (or gain) a pending payment that is collected on delivery; prepaid orders
// are marked successful with a generated transaction id.
func (s *service) Process(ctx context.Context, userID, orderID uuid.UUID) (*models.Payment, error) {
	order, err := s.loadOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment is already %s", order.PaymentStatus))
	}

	var payment *models.Payment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txOrders := s.orders.WithTx(tx)

		payment, err = s.ensurePayment(ctx, txRepo, order)
		if err != nil {
			return err
		}

		if order.PaymentType == enums.PaymentTypeCOD {
			return nil // collected on delivery
		}

		transactionID := "pay_" + uuid.NewString()
		payment.TransactionID = &transactionID
		payment.Status = enums.PaymentStatusSuccessful
		if _, err := txRepo.Update(ctx, payment); err != nil {
			return err
		}
		return s.markOrderPaid(ctx, txOrders, order)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "process payment")
	}
	return payment, nil
}

// CreateGatewayOrder registers the order with the gateway and stores the
// returned gateway order id on the payment row.
func (s *service) CreateGatewayOrder(ctx context.Context, userID, orderID uuid.UUID) (*GatewayOrderResponse, error) {
	order, err := s.loadOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.PaymentType.IsPrepaid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery orders have no gateway flow")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment is already %s", order.PaymentStatus))
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, int64(order.FinalCents), "INR", order.OrderNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}

	payment, err := s.ensurePayment(ctx, s.repo, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	payment.GatewayOrderID = &gatewayOrder.ID
	if _, err := s.repo.Update(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store gateway order id")
	}

	return &GatewayOrderResponse{GatewayOrder: gatewayOrder, KeyID: s.gateway.KeyID()}, nil
}

// Callback verifies the gateway signature and settles or fails the payment
// accordingly. It always returns a redirect target; the signature check
// result decides which one.
func (s *service) Callback(ctx context.Context, params CallbackParams) (*CallbackResult, error) {
	payment, err := s.repo.FindByGatewayOrderID(ctx, params.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	verified := s.gateway.VerifyCallback(params.GatewayOrderID, params.GatewayPaymentID, params.Signature)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txOrders := s.orders.WithTx(tx)

		if !verified {
			payment.Status = enums.PaymentStatusFailed
			if _, err := txRepo.Update(ctx, payment); err != nil {
				return err
			}
			order.PaymentStatus = enums.PaymentStatusFailed
			_, err := txOrders.Update(ctx, order)
			return err
		}

		payment.TransactionID = &params.GatewayPaymentID
		payment.Status = enums.PaymentStatusSuccessful
		if _, err := txRepo.Update(ctx, payment); err != nil {
			return err
		}
		return s.markOrderPaid(ctx, txOrders, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment")
	}

	if !verified {
		return &CallbackResult{Success: false, RedirectURL: s.cfg.FailureURL}, nil
	}
	return &CallbackResult{Success: true, RedirectURL: s.cfg.SuccessURL}, nil
}

// Refund reverses a captured payment: it books a Refund row and flips the
// payment and the order to refunded in one transaction.
func (s *service) Refund(ctx context.Context, adminID uuid.UUID, req RefundRequest) (*models.Refund, error) {
	payment, err := s.repo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status != enums.PaymentStatusSuccessful {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only successful payments can be refunded")
	}

	amount := payment.AmountCents
	if req.AmountCents != nil {
		if *req.AmountCents > payment.AmountCents {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds captured amount")
		}
		amount = *req.AmountCents
	}

	refund := &models.Refund{
		PaymentID:     payment.ID,
		OrderID:       payment.OrderID,
		AmountCents:   amount,
		Reason:        req.Reason,
		TransactionID: "rfnd_" + uuid.NewString(),
		Status:        enums.RefundStatusCompleted,
		InitiatedBy:   &adminID,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txOrders := s.orders.WithTx(tx)

		if err := txRepo.CreateRefund(ctx, refund); err != nil {
			return err
		}
		payment.Status = enums.PaymentStatusRefunded
		if _, err := txRepo.Update(ctx, payment); err != nil {
			return err
		}

		order, err := txOrders.FindByID(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		order.PaymentStatus = enums.PaymentStatusRefunded
		_, err = txOrders.Update(ctx, order)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund payment")
	}
	return refund, nil
}

func (s *service) loadOwnedOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// ensurePayment returns the order's payment row, creating the pending row
// for COD orders that never went through checkout with one.
func (s *service) ensurePayment(ctx context.Context, repo PaymentRepository, order *models.Order) (*models.Payment, error) {
	payment, err := repo.FindByOrderID(ctx, order.ID)
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return repo.Create(ctx, &models.Payment{
		OrderID:     order.ID,
		PaymentType: order.PaymentType,
		AmountCents: order.FinalCents,
		Status:      enums.PaymentStatusPending,
	})
}

// markOrderPaid flips the order's payment status and advances pending
// orders into processing with a history row.
func (s *service) markOrderPaid(ctx context.Context, repo orders.OrderRepository, order *models.Order) error {
	order.PaymentStatus = enums.PaymentStatusSuccessful
	if order.Status == enums.OrderStatusPending {
		order.Status = enums.OrderStatusProcessing
		if err := repo.AddHistory(ctx, &models.OrderStatusHistory{
			OrderID: order.ID,
			Status:  enums.OrderStatusProcessing,
			Notes:   note("payment captured"),
		}); err != nil {
			return err
		}
	}
	_, err := repo.Update(ctx, order)
	return err
}

func note(text string) *string {
	return &text
}
