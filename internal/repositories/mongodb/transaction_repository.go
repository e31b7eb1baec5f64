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

type transactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) interfaces.TransactionRepository {
	return &transactionRepository{
		collection: db.Collection("transactions"),
	}
}

func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	transaction.ID = primitive.NewObjectID()
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = transaction.CreatedAt

	_, err := r.collection.InsertOne(ctx, transaction)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	return r.findWithFilter(ctx, bson.M{"user": userID}, params)
}

func (r *transactionRepository) List(ctx context.Context, filter *interfaces.TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	query := bson.M{}
	if filter != nil {
		if filter.UserID != nil {
			query["user"] = *filter.UserID
		}
		if filter.TripID != nil {
			query["related_trip"] = *filter.TripID
		}
		if filter.Type != "" {
			query["type"] = filter.Type
		}
		if filter.FromDate != nil || filter.ToDate != nil {
			dateRange := bson.M{}
			if filter.FromDate != nil {
				dateRange["$gte"] = *filter.FromDate
			}
			if filter.ToDate != nil {
				dateRange["$lte"] = *filter.ToDate
			}
			query["created_at"] = dateRange
		}
	}

	return r.findWithFilter(ctx, query, params)
}

func (r *transactionRepository) SumByUser(ctx context.Context, userID primitive.ObjectID) (*interfaces.LedgerSums, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user": userID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": nil,
			"credit": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$type", models.TransactionTypeCredit}}, "$amount", 0,
			}}},
			"debit": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$type", models.TransactionTypeDebit}}, "$amount", 0,
			}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Credit int64 `bson:"credit"`
		Debit  int64 `bson:"debit"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode ledger aggregate: %w", err)
	}

	sums := &interfaces.LedgerSums{}
	if len(results) > 0 {
		sums.Credit = results[0].Credit
		sums.Debit = results[0].Debit
	}

	return sums, nil
}

func (r *transactionRepository) CountByTrip(ctx context.Context, tripID primitive.ObjectID, txType models.TransactionType) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"related_trip": tripID,
		"type":         txType,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count trip transactions: %w", err)
	}

	return count, nil
}

func (r *transactionRepository) findWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var transactions []*models.Transaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return transactions, total, nil
}
