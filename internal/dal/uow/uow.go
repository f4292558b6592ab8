package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/snackline/backend/internal/dal/interfaces/icatalogrepo"
	"github.com/snackline/backend/internal/dal/interfaces/iorderrepo"
	"github.com/snackline/backend/internal/dal/interfaces/ioutboxrepo"
	"github.com/snackline/backend/internal/dal/postgres"
	catalogrepo "github.com/snackline/backend/internal/dal/repositories/catalog/postgres"
	orderrepo "github.com/snackline/backend/internal/dal/repositories/order/postgres"
	outboxrepo "github.com/snackline/backend/internal/dal/repositories/outbox/postgres"
)

type unitOfWork struct {
	client *postgres.Client
	tx     pgx.Tx

	orderRepo   iorderrepo.IOrderRepository
	catalogRepo icatalogrepo.ICatalogRepository
	outboxRepo  ioutboxrepo.IOutboxRepository
}

// NewUnitOfWork creates a unit of work bound to the pool. Until Begin is
// called the repositories run outside a transaction.
func NewUnitOfWork(client *postgres.Client) *unitOfWork {
	return &unitOfWork{
		client:      client,
		orderRepo:   orderrepo.NewPostgresOrderRepository(client.Pool()),
		catalogRepo: catalogrepo.NewPostgresCatalogRepository(client.Pool()),
		outboxRepo:  outboxrepo.NewOutboxRepository(client.Pool()),
	}
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) CatalogRepository() icatalogrepo.ICatalogRepository {
	return u.catalogRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// Begin opens a transaction and rebinds the repositories to it.
func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewPostgresOrderRepository(tx)
	u.catalogRepo = catalogrepo.NewPostgresCatalogRepository(tx)
	u.outboxRepo = outboxrepo.NewOutboxRepository(tx)

	return nil
}

func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(context.Background())
}

func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback(context.Background())
}
