package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mytown-issues/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemoryUsers keeps accounts in a map keyed by id.
type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

var _ UserStore = (*MemoryUsers)(nil)

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUsers) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, taken := s.byEmail[email]; taken {
		return ErrEmailTaken
	}
	prepareUser(user)
	s.byID[user.ID] = *user
	s.byEmail[email] = user.ID
	return nil
}

func (s *MemoryUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byEmail[normalizeEmail(email)]; ok {
		return s.byID[id], nil
	}
	return models.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (s *MemoryUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// MongoUsers persists accounts in the "users" collection.
type MongoUsers struct {
	users *mongo.Collection
}

var _ UserStore = (*MongoUsers)(nil)

func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{users: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (s *MongoUsers) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoUsers) Create(ctx context.Context, user *models.User) error {
	prepareUser(user)
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (s *MongoUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoUsers) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func prepareUser(user *models.User) {
	now := time.Now()
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	if user.Role == "" {
		user.Role = models.RoleCitizen
	}
	user.Email = normalizeEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
