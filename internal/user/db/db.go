package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-foodcourt/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrAddressNotFound = errors.New("address not found")
)

type DBLayer struct {
	DB *bun.DB
}

func NewDBLayer(db *bun.DB) *DBLayer {
	return &DBLayer{DB: db}
}

func (d *DBLayer) GetUserByID(id int64) (*models.User, error) {
	ctx := context.Background()
	user := new(models.User)
	err := d.DB.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DBLayer) GetUserBySubject(subject string) (*models.User, error) {
	ctx := context.Background()
	user := new(models.User)
	err := d.DB.NewSelect().Model(user).Where("subject = ?", subject).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DBLayer) InsertUser(user *models.User) error {
	ctx := context.Background()
	_, err := d.DB.NewInsert().Model(user).Exec(ctx)
	return err
}

func (d *DBLayer) UpdateUser(user *models.User) error {
	ctx := context.Background()
	user.UpdatedAt = time.Now()
	res, err := d.DB.NewUpdate().Model(user).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (d *DBLayer) ListAddresses(userID int64) ([]models.Address, error) {
	ctx := context.Background()
	var addresses []models.Address
	err := d.DB.NewSelect().Model(&addresses).
		Where("user_id = ?", userID).
		Order("is_default DESC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (d *DBLayer) GetAddress(id, userID int64) (*models.Address, error) {
	ctx := context.Background()
	address := new(models.Address)
	err := d.DB.NewSelect().Model(address).
		Where("id = ? AND user_id = ?", id, userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (d *DBLayer) InsertAddress(address *models.Address) error {
	ctx := context.Background()
	return d.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if address.IsDefault {
			if _, err := tx.NewUpdate().
				Model((*models.Address)(nil)).
				Set("is_default = FALSE").
				Where("user_id = ?", address.UserID).
				Exec(ctx); err != nil {
				return err
			}
		}
		_, err := tx.NewInsert().Model(address).Exec(ctx)
		return err
	})
}

func (d *DBLayer) DeleteAddress(id, userID int64) error {
	ctx := context.Background()
	res, err := d.DB.NewDelete().
		Model((*models.Address)(nil)).
		Where("id = ? AND user_id = ?", id, userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAddressNotFound
	}
	return nil
}
