package service

import (
	"context"
	"errors"
	"time"

	"github.com/q360hq/q360/internal/domain"
	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/pkg/idx"
)

type DepartmentService struct {
	Store store.Store
}

func (s *DepartmentService) Create(ctx context.Context, name, description string) (domain.Department, error) {
	if name == "" {
		v := newValidator()
		v.Fail("name", "name is required")
		return domain.Department{}, v.Err()
	}

	now := time.Now().UTC()
	d := domain.Department{
		ID:          idx.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Departments().CreateDepartment(ctx, d); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			v := newValidator()
			v.Fail("name", "a department with this name already exists")
			return domain.Department{}, v.Err()
		}
		return domain.Department{}, err
	}
	return d, nil
}

func (s *DepartmentService) Get(ctx context.Context, id string) (domain.Department, error) {
	return s.Store.Departments().GetDepartment(ctx, id)
}

func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	return s.Store.Departments().ListDepartments(ctx)
}

func (s *DepartmentService) Update(ctx context.Context, id, name, description string) (domain.Department, error) {
	if name == "" {
		v := newValidator()
		v.Fail("name", "name is required")
		return domain.Department{}, v.Err()
	}

	d, err := s.Store.Departments().GetDepartment(ctx, id)
	if err != nil {
		return domain.Department{}, err
	}
	d.Name = name
	d.Description = description
	if err := s.Store.Departments().UpdateDepartment(ctx, d); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			v := newValidator()
			v.Fail("name", "a department with this name already exists")
			return domain.Department{}, v.Err()
		}
		return domain.Department{}, err
	}
	return s.Store.Departments().GetDepartment(ctx, id)
}

func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	return s.Store.Departments().DeleteDepartment(ctx, id)
}
