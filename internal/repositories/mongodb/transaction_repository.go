package mongodb

import (
	"context"
	"fmt"
	"time"

	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/utils"

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

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	txn.ID = primitive.NewObjectID()
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, txn)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&txn)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("transaction", id.Hex())
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &txn, nil
}

// MarkProcessed settles a pending transaction. Filtering on the pending status
// keeps the transition one-way: a concurrent second approval matches nothing
// and surfaces as a StateConflict instead of a double credit.
func (r *transactionRepository) MarkProcessed(ctx context.Context, id primitive.ObjectID, status models.TransactionStatus, actorID primitive.ObjectID, reason string, processedAt time.Time) error {
	set := bson.M{
		"status":       status,
		"actor_id":     actorID,
		"processed_at": processedAt,
		"updated_at":   time.Now(),
	}
	if reason != "" {
		set["reason"] = reason
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.TransactionStatusPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to mark transaction processed: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return models.NewStateConflictError("transaction already processed")
	}

	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if result.DeletedCount == 0 {
		return models.NewNotFoundError("transaction", id.Hex())
	}

	return nil
}

func (r *transactionRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	filter := bson.M{"user_id": userID}
	return r.findTransactionsWithFilter(ctx, filter, params)
}

func (r *transactionRepository) GetByStatus(ctx context.Context, status models.TransactionStatus, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	filter := bson.M{"status": status}
	return r.findTransactionsWithFilter(ctx, filter, params)
}

func (r *transactionRepository) CountApprovedDeposits(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"type":    models.TransactionTypeDeposit,
		"status":  models.TransactionStatusApproved,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count approved deposits: %w", err)
	}

	return count, nil
}

func (r *transactionRepository) findTransactionsWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	if params.Search != "" {
		searchFilter := params.GetSearchFilter([]string{"reference", "description"})
		if len(searchFilter) > 0 {
			filter = bson.M{"$and": []bson.M{filter, searchFilter}}
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*models.Transaction
	for cursor.Next(ctx) {
		var txn models.Transaction
		if err := cursor.Decode(&txn); err != nil {
			return nil, 0, fmt.Errorf("failed to decode transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	return txns, total, nil
}
