package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/annazecevic/catalog-service/domain"
	"github.com/annazecevic/catalog-service/logger"
	"github.com/annazecevic/catalog-service/repository"
)

// MaxResults caps every listing.
const MaxResults = 100

const maxCreateAttempts = 5

var ErrNotFound = errors.New("record not found")

type RecordService[T any] interface {
	// Create stores rec under a fresh Id, or returns the Id of an existing
	// record with identical fields. rec must already be validated.
	Create(ctx context.Context, rec *T) (int, error)
	List(ctx context.Context, filter repository.Filter) ([]*T, error)
	GetByID(ctx context.Context, id int) (*T, error)
	// Update merges changes into the record and returns the modified count.
	Update(ctx context.Context, id int, changes repository.Document) (int64, error)
	Delete(ctx context.Context, id int) (int64, error)
}

type recordPtr[T any] interface {
	*T
	domain.Record
}

type recordService[T any, P recordPtr[T]] struct {
	kind domain.Kind
	col  repository.Collection
}

// NewRecordService binds a typed service to the collection of kind and makes
// sure the store enforces unique Ids there.
func NewRecordService[T any, P recordPtr[T]](ctx context.Context, store repository.Store, kind domain.Kind) (RecordService[T], error) {
	if err := store.EnsureUniqueIndex(ctx, kind.Collection(), domain.IDField); err != nil {
		return nil, err
	}
	return &recordService[T, P]{kind: kind, col: store.Collection(kind.Collection())}, nil
}

func (s *recordService[T, P]) Create(ctx context.Context, rec *T) (int, error) {
	doc, err := repository.ToDocument(rec)
	if err != nil {
		return 0, err
	}
	delete(doc, domain.IDField)

	existing, err := s.col.Find(ctx, repository.Filter{Equals: doc}, repository.FindOptions{SortBy: domain.IDField, Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("find duplicate %s: %w", s.kind, err)
	}
	if len(existing) > 0 {
		id, ok := asInt(existing[0][domain.IDField])
		if !ok {
			return 0, fmt.Errorf("%s duplicate has no numeric %s", s.kind, domain.IDField)
		}
		P(rec).SetRecordID(id)
		logger.Info(logger.EventRecordDuplicate, "duplicate record, returning existing id", logger.Fields("collection", s.kind, "id", id))
		return id, nil
	}

	// Concurrent creates can race for the same Id; the unique index turns
	// the loser's insert into ErrDuplicateKey and it picks the next one.
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id, err := s.nextID(ctx)
		if err != nil {
			return 0, err
		}
		doc[domain.IDField] = id
		err = s.col.InsertOne(ctx, doc)
		if errors.Is(err, repository.ErrDuplicateKey) {
			logger.Warn(logger.EventRecordDuplicate, "id taken by concurrent insert, retrying", logger.Fields("collection", s.kind, "id", id, "attempt", attempt+1))
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", s.kind, err)
		}
		P(rec).SetRecordID(id)
		logger.Info(logger.EventRecordCreated, "record created", logger.Fields("collection", s.kind, "id", id))
		return id, nil
	}
	return 0, fmt.Errorf("insert %s: no free %s after %d attempts: %w", s.kind, domain.IDField, maxCreateAttempts, repository.ErrDuplicateKey)
}

func (s *recordService[T, P]) nextID(ctx context.Context) (int, error) {
	values, err := s.col.Distinct(ctx, domain.IDField)
	if err != nil {
		return 0, fmt.Errorf("list %s ids: %w", s.kind, err)
	}
	highest := 0
	for _, v := range values {
		if id, ok := asInt(v); ok && id > highest {
			highest = id
		}
	}
	return highest + 1, nil
}

func (s *recordService[T, P]) List(ctx context.Context, filter repository.Filter) ([]*T, error) {
	docs, err := s.col.Find(ctx, filter, repository.FindOptions{SortBy: domain.IDField, Limit: MaxResults})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.kind, err)
	}
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		rec := new(T)
		if err := repository.DecodeDocument(doc, rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *recordService[T, P]) GetByID(ctx context.Context, id int) (*T, error) {
	recs, err := s.List(ctx, repository.Eq(domain.IDField, id))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

func (s *recordService[T, P]) Update(ctx context.Context, id int, changes repository.Document) (int64, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return 0, err
	}
	set, err := repository.ToDocument(changes)
	if err != nil {
		return 0, err
	}
	delete(set, domain.IDField)
	delete(set, repository.InternalIDField)

	modified, err := s.col.UpdateMany(ctx, repository.Eq(domain.IDField, id), set)
	if err != nil {
		return 0, fmt.Errorf("update %s %d: %w", s.kind, id, err)
	}
	logger.Info(logger.EventRecordUpdated, "record updated", logger.Fields("collection", s.kind, "id", id, "modified", modified))
	return modified, nil
}

// Delete removes every document carrying id, so duplicated Ids are cleaned
// up together.
func (s *recordService[T, P]) Delete(ctx context.Context, id int) (int64, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return 0, err
	}
	deleted, err := s.col.DeleteMany(ctx, repository.Eq(domain.IDField, id))
	if err != nil {
		return 0, fmt.Errorf("delete %s %d: %w", s.kind, id, err)
	}
	logger.Info(logger.EventRecordDeleted, "record deleted", logger.Fields("collection", s.kind, "id", id, "deleted", deleted))
	return deleted, nil
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
