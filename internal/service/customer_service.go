package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"locadora/internal/db"
	"locadora/internal/entities"
	apperrors "locadora/internal/errors"
	"locadora/internal/repository"
)

type CustomerService struct {
	customers repository.CustomerStore
}

func NewCustomerService(customers repository.CustomerStore) *CustomerService {
	return &CustomerService{customers: customers}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, c *db.Customer) error {
	c.Document = strings.TrimSpace(c.Document)
	if c.Document == "" {
		return fmt.Errorf("document required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name required")
	}

	if _, err := s.customers.GetCustomerByDocument(ctx, c.Document); err == nil {
		return fmt.Errorf("document %s already registered", c.Document)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	return s.customers.CreateCustomer(ctx, c)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int) (*db.Customer, error) {
	return s.customers.GetCustomerByID(ctx, id)
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]db.Customer, error) {
	return s.customers.ListCustomers(ctx)
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id int, upd entities.CustomerUpdate) (*db.Customer, error) {
	return s.customers.UpdateCustomer(ctx, id, upd)
}
