package patients

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
)

const existenceCacheSize = 1024

// NewService returns a Service that caches positive existence checks. The
// import pipeline performs one check per batch, and batches for the same
// patient commonly arrive in bursts. Negative results are never cached so a
// newly registered patient becomes importable immediately.
func NewService(repo Repository) (Service, error) {
	cache, err := lru.New(existenceCacheSize)
	if err != nil {
		return nil, err
	}

	return &service{
		repo:  repo,
		known: cache,
	}, nil
}

type service struct {
	repo  Repository
	known *lru.Cache
}

var _ Service = &service{}

func (s *service) Get(ctx context.Context, patientId string) (*Patient, error) {
	return s.repo.Get(ctx, patientId)
}

func (s *service) Exists(ctx context.Context, patientId string) (bool, error) {
	if _, ok := s.known.Get(patientId); ok {
		return true, nil
	}

	exists, err := s.repo.Exists(ctx, patientId)
	if err != nil {
		return false, err
	}
	if exists {
		s.known.Add(patientId, struct{}{})
	}

	return exists, nil
}
