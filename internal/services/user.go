package services

import (
	"context"
	"database/sql"

	"ktrek/internal/datastore"
	"ktrek/internal/models"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceUser struct {
	container  *do.Injector
	postgresDB *bun.DB
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, postgresDB}, nil
}

func (service *ServiceUser) FindOrCreateUser(ctx context.Context, userAuth *models.UserFromAuth) (*models.User, error) {
	user, err := datastore.GetUserByID(ctx, service.postgresDB, userAuth.ID)
	if err == nil {
		return user, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	user = &models.User{
		ID:       userAuth.ID,
		Username: userAuth.Username,
	}
	if err := datastore.CreateUser(ctx, service.postgresDB, user); err != nil {
		return nil, err
	}
	if err := datastore.EnsureUserStats(ctx, service.postgresDB, user.ID); err != nil {
		return nil, err
	}

	return user, nil
}

func (service *ServiceUser) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	return datastore.GetUserByID(ctx, service.postgresDB, userID)
}
