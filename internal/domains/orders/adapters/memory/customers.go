package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
)

var _ ports.CustomerResolver = (*CustomerDirectory)(nil)

// CustomerDirectory stands in for the customer collaborator. Virtual
// customers are materialized once per tenant and contact key.
type CustomerDirectory struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]customerEntry
	byContact map[string]uuid.UUID
}

type customerEntry struct {
	tenantID uuid.UUID
	name     string
	account  *uuid.UUID
}

func NewCustomerDirectory() *CustomerDirectory {
	return &CustomerDirectory{
		customers: map[uuid.UUID]customerEntry{},
		byContact: map[string]uuid.UUID{},
	}
}

// AddCustomer registers an existing customer and, optionally, the platform
// account the customer signs in with.
func (d *CustomerDirectory) AddCustomer(tenantID, customerID uuid.UUID, name string, account *uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[customerID] = customerEntry{tenantID: tenantID, name: name, account: account}
}

func (d *CustomerDirectory) Resolve(_ context.Context, tenantID uuid.UUID, ref domain.CustomerRef) (uuid.UUID, error) {
	if err := ref.Validate(); err != nil {
		return uuid.Nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if ref.ID != nil && *ref.ID != uuid.Nil {
		entry, ok := d.customers[*ref.ID]
		if !ok || entry.tenantID != tenantID {
			return uuid.Nil, domain.ErrInvalidCustomerRef
		}
		return *ref.ID, nil
	}
	key := contactKey(tenantID, ref.Virtual)
	if key != "" {
		if id, ok := d.byContact[key]; ok {
			return id, nil
		}
	}
	id := uuid.New()
	d.customers[id] = customerEntry{tenantID: tenantID, name: strings.TrimSpace(ref.Virtual.Name)}
	if key != "" {
		d.byContact[key] = id
	}
	return id, nil
}

// AccountForCustomer returns the platform account of a customer, if any.
func (d *CustomerDirectory) AccountForCustomer(_ context.Context, tenantID, customerID uuid.UUID) (uuid.UUID, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.customers[customerID]
	if !ok || entry.tenantID != tenantID || entry.account == nil {
		return uuid.Nil, false, nil
	}
	return *entry.account, true, nil
}

func contactKey(tenantID uuid.UUID, v *domain.VirtualCustomer) string {
	contact := strings.ToLower(strings.TrimSpace(v.Email))
	if contact == "" {
		contact = strings.TrimSpace(v.Phone)
	}
	if contact == "" {
		return ""
	}
	return tenantID.String() + ":" + contact
}
