package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type walletRepository struct {
	collection *mongo.Collection
}

func NewWalletRepository(db *mongo.Database) interfaces.WalletRepository {
	return &walletRepository{
		collection: db.Collection("wallets"),
	}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	wallet.ID = primitive.NewObjectID()
	wallet.CreatedAt = time.Now()
	wallet.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, wallet)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

func (r *walletRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	// Highest balance then most recently updated wins if historical
	// duplicates survived the backfill.
	opts := options.FindOne().SetSort(bson.D{
		{Key: "balance", Value: -1},
		{Key: "updated_at", Value: -1},
	})

	var wallet models.Wallet
	err := r.collection.FindOne(ctx, bson.M{"user": userID}, opts).Decode(&wallet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &wallet, nil
}

func (r *walletRepository) SetBalance(ctx context.Context, id primitive.ObjectID, balance int64) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"balance": balance, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set wallet balance: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("wallet not found")
	}

	return nil
}
