package mongostore

import (
	"context"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateUser(ctx context.Context, u *goAccount.User) error {
	now := s.now().UTC()
	doc := *u
	doc.ID = uuid.NewString()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if err := insertOne(ctx, s.col(ColUsers), &doc); err != nil {
		return err
	}
	*u = doc
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*goAccount.User, error) {
	return findOne[goAccount.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*goAccount.User, error) {
	return findOne[goAccount.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByIdentity(ctx context.Context, accountID, provider string) (*goAccount.User, error) {
	return findOne[goAccount.User](ctx, s.col(ColUsers), bson.D{
		{Key: "account_id", Value: accountID},
		{Key: "provider", Value: provider},
	})
}

func (s *Store) UpdateUser(ctx context.Context, id string, update goAccount.UserUpdate) (*goAccount.User, error) {
	set := bson.D{{Key: "updated_at", Value: s.now().UTC()}}
	if update.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *update.Name})
	}
	if update.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *update.Email})
	}
	if update.Role != nil {
		set = append(set, bson.E{Key: "role", Value: *update.Role})
	}
	return updateAndFetch[goAccount.User](ctx, s.col(ColUsers), id, set)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	_, err := updateAndFetch[goAccount.User](ctx, s.col(ColUsers), id, bson.D{
		{Key: "password_hash", Value: hash},
		{Key: "updated_at", Value: s.now().UTC()},
	})
	return err
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColUsers), id)
}

func (s *Store) ListUsers(ctx context.Context) ([]*goAccount.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return findMany[goAccount.User](ctx, s.col(ColUsers), bson.D{}, opts)
}
