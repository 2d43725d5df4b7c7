package service

import (
	"context"
	"errors"
	"testing"

	"github.com/annazecevic/catalog-service/domain"
	"github.com/annazecevic/catalog-service/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func duplicateKeyResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: test.artists index: Id_1",
	})
}

func distinctResponse(ids ...int32) bson.D {
	values := bson.A{}
	for _, id := range ids {
		values = append(values, id)
	}
	return mtest.CreateSuccessResponse(bson.E{Key: "values", Value: values})
}

func TestCreateOnMongoRetriesAfterDuplicateKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("next id after conflict", func(mt *mtest.T) {
		store := repository.NewMongoStoreWithClient(mt.Client, "test")
		mt.AddMockResponses(mtest.CreateSuccessResponse()) // createIndexes
		svc, err := NewRecordService[domain.Artist](context.Background(), store, domain.KindArtist)
		if err != nil {
			t.Fatalf("new service: %v", err)
		}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.artists", mtest.FirstBatch), // no duplicate
			distinctResponse(1),
			duplicateKeyResponse(),
			distinctResponse(1, 2),
			mtest.CreateSuccessResponse(),
		)
		a := &domain.Artist{Name: "Rock Stars"}
		id, err := svc.Create(context.Background(), a)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if id != 3 || a.Id != 3 {
			t.Fatalf("expected id 3 after the conflict on 2, got %d", id)
		}
	})

	mt.Run("gives up", func(mt *mtest.T) {
		store := repository.NewMongoStoreWithClient(mt.Client, "test")
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		svc, err := NewRecordService[domain.Artist](context.Background(), store, domain.KindArtist)
		if err != nil {
			t.Fatalf("new service: %v", err)
		}

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.artists", mtest.FirstBatch))
		for i := 0; i < maxCreateAttempts; i++ {
			mt.AddMockResponses(distinctResponse(), duplicateKeyResponse())
		}
		_, err = svc.Create(context.Background(), &domain.Artist{Name: "Rock Stars"})
		if !errors.Is(err, repository.ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
	})
}

func TestCreateOnMongoReturnsExistingDuplicate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate", func(mt *mtest.T) {
		store := repository.NewMongoStoreWithClient(mt.Client, "test")
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		svc, err := NewRecordService[domain.Artist](context.Background(), store, domain.KindArtist)
		if err != nil {
			t.Fatalf("new service: %v", err)
		}

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.artists", mtest.FirstBatch,
			bson.D{{Key: "Id", Value: int32(760)}, {Key: "Name", Value: "Rock Stars"}},
		))
		id, err := svc.Create(context.Background(), &domain.Artist{Name: "Rock Stars"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if id != 760 {
			t.Fatalf("expected existing id 760, got %d", id)
		}
	})
}
