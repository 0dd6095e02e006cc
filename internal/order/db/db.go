package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-foodcourt/internal/models"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type DBLayer struct {
	DB *bun.DB
}

func NewDBLayer(db *bun.DB) *DBLayer {
	return &DBLayer{DB: db}
}

// CreateOrderWithItems inserts the order and its items and decrements
// product stock in a single transaction, so a stock race rolls the whole
// order back.
func (d *DBLayer) CreateOrderWithItems(order *models.Order, items []models.OrderItem) error {
	ctx := context.Background()
	return d.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}

		for _, item := range items {
			res, err := tx.NewUpdate().
				Model((*models.Product)(nil)).
				Set("stock = stock - ?", item.Quantity).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to decrement stock for product %d: %w", item.ProductID, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, item.ProductID)
			}
		}

		return nil
	})
}

func (d *DBLayer) GetOrderByID(id int64) (*models.Order, error) {
	ctx := context.Background()
	order := new(models.Order)
	err := d.DB.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (d *DBLayer) GetOrderWithItems(id int64) (*models.OrderWithItems, error) {
	order, err := d.GetOrderByID(id)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var items []models.OrderItem
	if err := d.DB.NewSelect().Model(&items).Where("order_id = ?", id).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}

	return &models.OrderWithItems{Order: *order, Items: items}, nil
}

func (d *DBLayer) GetOrdersByUser(userID int64) ([]models.Order, error) {
	ctx := context.Background()
	var orders []models.Order
	err := d.DB.NewSelect().Model(&orders).Where("user_id = ?", userID).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DBLayer) UpdateOrder(order models.Order) error {
	ctx := context.Background()
	order.UpdatedAt = time.Now()
	res, err := d.DB.NewUpdate().Model(&order).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (d *DBLayer) GetProductsByIDs(ids []int64) ([]models.Product, error) {
	ctx := context.Background()
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := d.DB.NewSelect().Model(&products).Where("id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (d *DBLayer) GetCouponByCode(code string) (*models.Coupon, error) {
	ctx := context.Background()
	coupon := new(models.Coupon)
	err := d.DB.NewSelect().Model(coupon).Where("code = ?", code).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

func (d *DBLayer) IncrementCouponUsage(couponID int64) error {
	ctx := context.Background()
	_, err := d.DB.NewUpdate().
		Model((*models.Coupon)(nil)).
		Set("current_usage = current_usage + 1").
		Where("id = ?", couponID).
		Exec(ctx)
	return err
}
