// Package identity maps a verified auth subject to the renter or owner record
// it belongs to.
package identity

import (
	"context"
	"errors"
	"time"

	"petrent/internal/records/repository"
	apperrors "petrent/pkg/errors"
	"petrent/pkg/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	renterPrefix = "renter:"
	ownerPrefix  = "owner:"
)

type Cache = expirable.LRU[string, primitive.ObjectID]

// NewCache returns a bounded subject -> id cache whose entries expire after ttl.
func NewCache(size int, ttl time.Duration) *Cache {
	return expirable.NewLRU[string, primitive.ObjectID](size, nil, ttl)
}

type Resolver struct {
	owners  repository.OwnerRepository
	renters repository.RenterRepository
	cache   *Cache
}

func NewResolver(owners repository.OwnerRepository, renters repository.RenterRepository, cache *Cache) *Resolver {
	return &Resolver{owners: owners, renters: renters, cache: cache}
}

// Renter loads the renter for subject. A cached id that no longer resolves is
// evicted and looked up again by subject.
func (r *Resolver) Renter(ctx context.Context, subject string) (*model.Renter, error) {
	if subject == "" {
		return nil, apperrors.Unauthorized("Missing caller identity")
	}

	key := renterPrefix + subject
	if id, ok := r.cache.Get(key); ok {
		renter, err := r.renters.FindByID(ctx, id)
		if err == nil {
			return renter, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal("Failed to load renter", err)
		}
		r.cache.Remove(key)
	}

	renter, err := r.renters.FindBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Renter")
		}
		return nil, apperrors.Internal("Failed to resolve renter", err)
	}
	r.cache.Add(key, renter.ID)
	return renter, nil
}

func (r *Resolver) RenterID(ctx context.Context, subject string) (primitive.ObjectID, error) {
	if id, ok := r.cache.Get(renterPrefix + subject); ok {
		return id, nil
	}
	renter, err := r.Renter(ctx, subject)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return renter.ID, nil
}

func (r *Resolver) OwnerID(ctx context.Context, subject string) (primitive.ObjectID, error) {
	if subject == "" {
		return primitive.NilObjectID, apperrors.Unauthorized("Missing caller identity")
	}

	key := ownerPrefix + subject
	if id, ok := r.cache.Get(key); ok {
		return id, nil
	}

	owner, err := r.owners.FindBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, apperrors.NotFound("Owner")
		}
		return primitive.NilObjectID, apperrors.Internal("Failed to resolve owner", err)
	}
	r.cache.Add(key, owner.ID)
	return owner.ID, nil
}

// Forget drops any cached ids for subject.
func (r *Resolver) Forget(subject string) {
	r.cache.Remove(renterPrefix + subject)
	r.cache.Remove(ownerPrefix + subject)
}
