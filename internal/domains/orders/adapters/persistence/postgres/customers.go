package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
)

var _ ports.CustomerResolver = (*CustomerDirectory)(nil)

// CustomerDirectory resolves customer references against the customers table
// and exposes the platform account linked to each customer.
type CustomerDirectory struct {
	db *gorm.DB
}

func NewCustomerDirectory(db *gorm.DB) *CustomerDirectory {
	return &CustomerDirectory{db: db}
}

func (d *CustomerDirectory) Resolve(ctx context.Context, tenantID uuid.UUID, ref domain.CustomerRef) (uuid.UUID, error) {
	if err := d.ensureDB(); err != nil {
		return uuid.Nil, err
	}
	if err := ref.Validate(); err != nil {
		return uuid.Nil, err
	}
	if ref.ID != nil && *ref.ID != uuid.Nil {
		var record customerRecord
		err := d.db.WithContext(ctx).Select("id").First(&record, "id = ? AND tenant_id = ?", *ref.ID, tenantID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, domain.ErrInvalidCustomerRef
		}
		if err != nil {
			return uuid.Nil, err
		}
		return record.ID, nil
	}

	contact := contactOf(ref.Virtual)
	var id uuid.UUID
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if contact != nil {
			var existing customerRecord
			err := tx.Select("id").First(&existing, "tenant_id = ? AND contact = ?", tenantID, *contact).Error
			if err == nil {
				id = existing.ID
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		record := customerRecord{
			ID:       uuid.New(),
			TenantID: tenantID,
			Name:     strings.TrimSpace(ref.Virtual.Name),
			Contact:  contact,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		id = record.ID
		return nil
	})
	return id, err
}

// AccountForCustomer returns the user account linked to a customer, if any.
func (d *CustomerDirectory) AccountForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (uuid.UUID, bool, error) {
	if err := d.ensureDB(); err != nil {
		return uuid.Nil, false, err
	}
	var record customerRecord
	err := d.db.WithContext(ctx).Select("account_user_id").First(&record, "id = ? AND tenant_id = ?", customerID, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	if record.AccountUserID == nil {
		return uuid.Nil, false, nil
	}
	return *record.AccountUserID, true, nil
}

// LinkAccount records that customerID signs in as userID.
func (d *CustomerDirectory) LinkAccount(ctx context.Context, tenantID, customerID, userID uuid.UUID) error {
	if err := d.ensureDB(); err != nil {
		return err
	}
	result := d.db.WithContext(ctx).Model(&customerRecord{}).
		Where("id = ? AND tenant_id = ?", customerID, tenantID).
		Update("account_user_id", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (d *CustomerDirectory) ensureDB() error {
	if d == nil || d.db == nil {
		return errors.New("postgres customer directory not configured")
	}
	return nil
}

func contactOf(v *domain.VirtualCustomer) *string {
	contact := strings.ToLower(strings.TrimSpace(v.Email))
	if contact == "" {
		contact = strings.TrimSpace(v.Phone)
	}
	if contact == "" {
		return nil
	}
	return &contact
}
