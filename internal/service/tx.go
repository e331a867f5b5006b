package service

import (
	"context"

	"github.com/yuqie6/GitQuest/internal/repository"
)

// NewRepoSet 由 repository.Repos 构造
func NewRepoSet(r *repository.Repos) RepoSet {
	return RepoSet{
		Snapshots:  r.Snapshots,
		Streaks:    r.Streaks,
		Challenges: r.Challenges,
		XP:         r.XP,
	}
}

// GormTransactor 基于 GORM 事务的 Transactor
type GormTransactor struct {
	uow *repository.UnitOfWork
}

func NewGormTransactor(uow *repository.UnitOfWork) *GormTransactor {
	return &GormTransactor{uow: uow}
}

func (t *GormTransactor) InTx(ctx context.Context, fn func(ctx context.Context, repos RepoSet) error) error {
	return t.uow.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		return fn(ctx, NewRepoSet(r))
	})
}
