package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type rechargeCodeRepository struct {
	collection *mongo.Collection
}

func NewRechargeCodeRepository(db *mongo.Database) interfaces.RechargeCodeRepository {
	return &rechargeCodeRepository{
		collection: db.Collection("recharge_codes"),
	}
}

func (r *rechargeCodeRepository) Create(ctx context.Context, code *models.RechargeCode) error {
	code.ID = primitive.NewObjectID()
	code.CreatedAt = time.Now()
	code.UpdatedAt = code.CreatedAt

	_, err := r.collection.InsertOne(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to create recharge code: %w", err)
	}

	return nil
}

func (r *rechargeCodeRepository) CreateMany(ctx context.Context, codes []*models.RechargeCode) error {
	now := time.Now()
	docs := make([]interface{}, 0, len(codes))
	for _, code := range codes {
		code.ID = primitive.NewObjectID()
		code.CreatedAt = now
		code.UpdatedAt = now
		docs = append(docs, code)
	}

	_, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create recharge codes: %w", err)
	}

	return nil
}

func (r *rechargeCodeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.RechargeCode, error) {
	var code models.RechargeCode
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&code)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recharge code: %w", err)
	}

	return &code, nil
}

func (r *rechargeCodeRepository) GetByCode(ctx context.Context, codeValue string) (*models.RechargeCode, error) {
	var code models.RechargeCode
	err := r.collection.FindOne(ctx, bson.M{"code": codeValue}).Decode(&code)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recharge code: %w", err)
	}

	return &code, nil
}

func (r *rechargeCodeRepository) List(ctx context.Context, filter *interfaces.RechargeCodeFilter, params *utils.PaginationParams) ([]*models.RechargeCode, int64, error) {
	query := bson.M{}
	if filter != nil {
		if filter.VendorID != nil {
			query["vendor"] = *filter.VendorID
		}
		if filter.IsUsed != nil {
			query["is_used"] = *filter.IsUsed
		}
		if filter.IsDisabled != nil {
			query["is_disabled"] = *filter.IsDisabled
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count recharge codes: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recharge codes: %w", err)
	}
	defer cursor.Close(ctx)

	var codes []*models.RechargeCode
	if err := cursor.All(ctx, &codes); err != nil {
		return nil, 0, fmt.Errorf("failed to decode recharge codes: %w", err)
	}

	return codes, total, nil
}

func (r *rechargeCodeRepository) ListByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]*models.RechargeCode, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"vendor": vendorID})
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor recharge codes: %w", err)
	}
	defer cursor.Close(ctx)

	var codes []*models.RechargeCode
	if err := cursor.All(ctx, &codes); err != nil {
		return nil, fmt.Errorf("failed to decode vendor recharge codes: %w", err)
	}

	return codes, nil
}

func (r *rechargeCodeRepository) MarkUsed(ctx context.Context, id primitive.ObjectID, usedBy primitive.ObjectID, usedAt time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "is_used": false, "is_disabled": false},
		bson.M{"$set": bson.M{
			"is_used":    true,
			"used_by":    usedBy,
			"used_at":    usedAt,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark recharge code used: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

func (r *rechargeCodeRepository) Disable(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "is_used": false, "is_disabled": false},
		bson.M{"$set": bson.M{"is_disabled": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to disable recharge code: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

func (r *rechargeCodeRepository) Revert(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "is_used": true},
		bson.M{
			"$set": bson.M{
				"is_used":     false,
				"is_disabled": true,
				"updated_at":  time.Now(),
			},
			"$unset": bson.M{"used_by": "", "used_at": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to revert recharge code: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("recharge code not in used state")
	}

	return nil
}

func (r *rechargeCodeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "is_used": false})
	if err != nil {
		return fmt.Errorf("failed to delete recharge code: %w", err)
	}

	return nil
}
