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

type commissionSettingsRepository struct {
	collection *mongo.Collection
}

func NewCommissionSettingsRepository(db *mongo.Database) interfaces.CommissionSettingsRepository {
	return &commissionSettingsRepository{
		collection: db.Collection("commission_settings"),
	}
}

func (r *commissionSettingsRepository) GetActive(ctx context.Context) (*models.CommissionSettings, error) {
	var settings models.CommissionSettings
	err := r.collection.FindOne(ctx, bson.M{"is_active": true}).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active commission settings: %w", err)
	}

	return &settings, nil
}

func (r *commissionSettingsRepository) GetLatest(ctx context.Context) (*models.CommissionSettings, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "updated_at", Value: -1},
		{Key: "created_at", Value: -1},
	})

	var settings models.CommissionSettings
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest commission settings: %w", err)
	}

	return &settings, nil
}

func (r *commissionSettingsRepository) Create(ctx context.Context, settings *models.CommissionSettings) error {
	settings.ID = primitive.NewObjectID()
	settings.CreatedAt = time.Now()
	settings.UpdatedAt = settings.CreatedAt

	_, err := r.collection.InsertOne(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to create commission settings: %w", err)
	}

	return nil
}

func (r *commissionSettingsRepository) Update(ctx context.Context, settings *models.CommissionSettings) error {
	settings.UpdatedAt = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": settings.ID},
		bson.M{"$set": bson.M{
			"type":         settings.Type,
			"value":        settings.Value,
			"applies":      settings.Applies,
			"charge_stage": settings.ChargeStage,
			"is_active":    settings.IsActive,
			"note":         settings.Note,
			"updated_at":   settings.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update commission settings: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("commission settings not found")
	}

	return nil
}

func (r *commissionSettingsRepository) DeactivateAll(ctx context.Context) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{"is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate commission settings: %w", err)
	}

	return nil
}

type settingRepository struct {
	collection *mongo.Collection
}

func NewSettingRepository(db *mongo.Database) interfaces.SettingRepository {
	return &settingRepository{
		collection: db.Collection("settings"),
	}
}

func (r *settingRepository) GetByKey(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&setting)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}

	return &setting, nil
}
