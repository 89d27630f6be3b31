package mongodb

import (
	"context"
	"fmt"
	"time"

	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type partnerRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewPartnerRepository(db *mongo.Database, cache services.CacheService) interfaces.PartnerRepository {
	return &partnerRepository{
		collection: db.Collection("partner_accounts"),
		cache:      cache,
	}
}

func (r *partnerRepository) Create(ctx context.Context, partner *models.PartnerAccount) error {
	partner.ID = primitive.NewObjectID()
	partner.CreatedAt = time.Now()
	partner.UpdatedAt = time.Now()
	if partner.ReferralCounts == nil {
		partner.ReferralCounts = make(map[string]int64)
	}

	_, err := r.collection.InsertOne(ctx, partner)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewStateConflictError("partner account already exists for user")
		}
		return fmt.Errorf("failed to create partner account: %w", err)
	}

	return nil
}

func (r *partnerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PartnerAccount, error) {
	if partner := r.getPartnerFromCache(ctx, id.Hex()); partner != nil {
		return partner, nil
	}

	var partner models.PartnerAccount
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("partner account", id.Hex())
		}
		return nil, fmt.Errorf("failed to get partner account: %w", err)
	}

	r.cachePartner(ctx, &partner)

	return &partner, nil
}

func (r *partnerRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.PartnerAccount, error) {
	var partner models.PartnerAccount
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("partner account", userID.Hex())
		}
		return nil, fmt.Errorf("failed to get partner account by user: %w", err)
	}

	return &partner, nil
}

func (r *partnerRepository) GetByReferralCode(ctx context.Context, code string) (*models.PartnerAccount, error) {
	var partner models.PartnerAccount
	err := r.collection.FindOne(ctx, bson.M{"referral_code": code}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("partner account", code)
		}
		return nil, fmt.Errorf("failed to get partner account by code: %w", err)
	}

	return &partner, nil
}

func (r *partnerRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update partner account: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("partner account", id.Hex())
	}

	r.invalidatePartnerCache(ctx, id.Hex())

	return nil
}

func (r *partnerRepository) ApplyCommissionCredit(ctx context.Context, id primitive.ObjectID, amount, volume, lots float64) error {
	update := bson.M{
		"$inc": bson.M{
			"wallet_balance":   amount,
			"total_earned":     amount,
			"today_commission": amount,
			"traded_volume":    volume,
			"traded_lots":      lots,
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to apply commission credit: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("partner account", id.Hex())
	}

	r.invalidatePartnerCache(ctx, id.Hex())

	return nil
}

// ApplyCommissionReversal writes the floored balances computed by the caller.
func (r *partnerRepository) ApplyCommissionReversal(ctx context.Context, id primitive.ObjectID, newBalance, newTotalEarned float64) error {
	update := bson.M{
		"$set": bson.M{
			"wallet_balance": newBalance,
			"total_earned":   newTotalEarned,
			"updated_at":     time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to apply commission reversal: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("partner account", id.Hex())
	}

	r.invalidatePartnerCache(ctx, id.Hex())

	return nil
}

func (r *partnerRepository) ReserveWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error {
	return r.applyWithdrawalDelta(ctx, id, bson.M{
		"wallet_balance":     -amount,
		"pending_withdrawal": amount,
	})
}

func (r *partnerRepository) SettleWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error {
	return r.applyWithdrawalDelta(ctx, id, bson.M{
		"pending_withdrawal": -amount,
		"total_withdrawn":    amount,
	})
}

func (r *partnerRepository) RefundWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error {
	return r.applyWithdrawalDelta(ctx, id, bson.M{
		"pending_withdrawal": -amount,
		"wallet_balance":     amount,
	})
}

func (r *partnerRepository) FinalizeImmediateWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error {
	return r.applyWithdrawalDelta(ctx, id, bson.M{
		"wallet_balance":  -amount,
		"total_withdrawn": amount,
	})
}

func (r *partnerRepository) IncrementReferralCount(ctx context.Context, id primitive.ObjectID, level int) error {
	key := fmt.Sprintf("referral_counts.%d", level)
	update := bson.M{
		"$inc": bson.M{key: 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to increment referral count: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("partner account", id.Hex())
	}

	r.invalidatePartnerCache(ctx, id.Hex())

	return nil
}

func (r *partnerRepository) ResetTodayCommission(ctx context.Context) (int64, error) {
	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{"today_commission": bson.M{"$ne": 0}},
		bson.M{
			"$set": bson.M{
				"today_commission": 0,
				"updated_at":       time.Now(),
			},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset today commission: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *partnerRepository) applyWithdrawalDelta(ctx context.Context, id primitive.ObjectID, inc bson.M) error {
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to apply withdrawal delta: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NewNotFoundError("partner account", id.Hex())
	}

	r.invalidatePartnerCache(ctx, id.Hex())

	return nil
}

// Cache operations. Every balance mutation invalidates, so a cached partner
// is never older than the last write.
func (r *partnerRepository) cachePartner(ctx context.Context, partner *models.PartnerAccount) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("partner:%s", partner.ID.Hex())
		r.cache.Set(ctx, cacheKey, partner, 5*time.Minute)
	}
}

func (r *partnerRepository) getPartnerFromCache(ctx context.Context, partnerID string) *models.PartnerAccount {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("partner:%s", partnerID)
	var partner models.PartnerAccount
	err := r.cache.Get(ctx, cacheKey, &partner)
	if err != nil {
		return nil
	}

	return &partner
}

func (r *partnerRepository) invalidatePartnerCache(ctx context.Context, partnerID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("partner:%s", partnerID)
		r.cache.Delete(ctx, cacheKey)
	}
}
