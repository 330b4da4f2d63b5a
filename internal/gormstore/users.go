package gormstore

import (
	"context"
	"errors"
	"fmt"

	"shareit/internal/domain"
	"shareit/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	row := userRow{Name: user.Name, Email: user.Email}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return userWriteError(err, user.Email)
	}
	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).
		Model(&userRow{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{"name": user.Name, "email": user.Email})
	if res.Error != nil {
		return userWriteError(res.Error, user.Email)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", user.ID, domain.ErrNotFound)
	}
	return nil
}

func userWriteError(err error, email string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("email %s: %w", email, domain.ErrAlreadyExists)
	}
	return fmt.Errorf("failed to save user: %w", err)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return row.toModel(), nil
}

func (s *Store) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*models.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toModel())
	}
	return users, nil
}

// DeleteUser removes the user together with everything hanging off them:
// their items (with bookings and comments), their bookings, comments and
// requests. Items answering a deleted request lose the reference.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&userRow{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
		}

		owned := tx.Model(&itemRow{}).Select("id").Where("owner_id = ?", id)
		requested := tx.Model(&requestRow{}).Select("id").Where("requester_id = ?", id)

		steps := []*gorm.DB{
			tx.Where("item_id IN (?) OR author_id = ?", owned, id).Delete(&commentRow{}),
			tx.Where("item_id IN (?) OR booker_id = ?", owned, id).Delete(&bookingRow{}),
			tx.Where("owner_id = ?", id).Delete(&itemRow{}),
			tx.Model(&itemRow{}).Where("request_id IN (?)", requested).Update("request_id", nil),
			tx.Where("requester_id = ?", id).Delete(&requestRow{}),
		}
		for _, step := range steps {
			if step.Error != nil {
				return fmt.Errorf("failed to delete user %d data: %w", id, step.Error)
			}
		}
		return nil
	})
}

func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}
