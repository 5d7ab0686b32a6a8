package mocks

import (
	"context"

	"github.com/rpggio/gitlink/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]*project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]*project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TokenStore is a mock for link.TokenStore.
type TokenStore struct {
	mock.Mock
}

func (m *TokenStore) Save(projectID, token string) error {
	args := m.Called(projectID, token)
	return args.Error(0)
}

func (m *TokenStore) Load(projectID string) (string, error) {
	args := m.Called(projectID)
	return args.String(0), args.Error(1)
}

func (m *TokenStore) Delete(projectID string) error {
	args := m.Called(projectID)
	return args.Error(0)
}
