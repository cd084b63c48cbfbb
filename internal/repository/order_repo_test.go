package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

func TestOrderRepository_Create(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewOrderRepository(db)

	order := &model.Order{
		OrderNo:         "BB1001",
		VendorID:        100,
		SupplierID:      200,
		Subtotal:        40000,
		DeliveryFee:     5000,
		Total:           45000,
		Status:          model.OrderStatusPending,
		DeliveryAddress: "12 Market Road",
		DeliveryDate:    time.Now().Add(24 * time.Hour),
		PaymentStatus:   model.PaymentStatusUnpaid,
		Items: []model.OrderItem{
			{ProductID: 1, ProductName: "Rice", UnitPrice: 20000, Quantity: 2, LineTotal: 40000},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `orders`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO `order_items`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), order)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if order.Items[0].OrderNo != "BB1001" {
		t.Errorf("Expected item order_no backfill, got %q", order.Items[0].OrderNo)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestOrderRepository_GetByOrderNo_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `orders`").
		WithArgs("NOPE", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByOrderNo(context.Background(), "NOPE")
	if err != utils.ErrOrderNotFound {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestOrderRepository_UpdateStatusFields(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatusFields(context.Background(), 7, map[string]interface{}{
		"status": model.OrderStatusAccepted,
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestOrderRepository_SetRating(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewOrderRepository(db)

	review := "good quality"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetRating(context.Background(), 7, 5, &review)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestOrderRepository_SetRating_AlreadyRated(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewOrderRepository(db)

	// the conditional update matches nothing when a rating exists or the
	// order is not delivered
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.SetRating(context.Background(), 7, 5, nil)
	if err != utils.ErrRatingExists {
		t.Errorf("Expected ErrRatingExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}
