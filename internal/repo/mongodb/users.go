package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/naydelinzavala7/back-login-mongo/internal/domain/user"
	"github.com/naydelinzavala7/back-login-mongo/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

type userDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	PaternalSurname string             `bson:"paternalSurname"`
	MaternalSurname string             `bson:"maternalSurname"`
	Email           string             `bson:"email"`
	PasswordHash    string             `bson:"password"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (d userDocument) toUser() user.User {
	return user.User{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		PaternalSurname: d.PaternalSurname,
		MaternalSurname: d.MaternalSurname,
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type UsersRepo struct {
	collection *mongo.Collection
	metrics    *observability.Prom
}

func NewUsersRepo(db *mongo.Database, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{
		collection: db.Collection(usersCollection),
		metrics:    metrics,
	}
}

// EnsureIndexes creates the unique email index. Inserts rely on it to reject duplicates.
func (r *UsersRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return err
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.find_by_email", bson.M{"email": email})
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	return r.findOne(ctx, "users.find_by_id", bson.M{"_id": oid})
}

func (r *UsersRepo) findOne(ctx context.Context, op string, filter bson.M) (user.User, error) {
	var doc userDocument

	err := r.observe(op, func() error {
		return r.collection.FindOne(ctx, filter).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return doc.toUser(), nil
}

func (r *UsersRepo) Insert(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()

	doc := userDocument{
		ID:              primitive.NewObjectID(),
		Name:            u.Name,
		PaternalSurname: u.PaternalSurname,
		MaternalSurname: u.MaternalSurname,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := r.observe("users.insert", func() error {
		_, err := r.collection.InsertOne(ctx, doc)
		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return doc.toUser(), nil
}

func (r *UsersRepo) UpdateByID(ctx context.Context, id string, patch user.Patch) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"name":            patch.Name,
			"paternalSurname": patch.PaternalSurname,
			"maternalSurname": patch.MaternalSurname,
			"password":        patch.PasswordHash,
			"updatedAt":       time.Now().UTC(),
		},
	}

	var doc userDocument

	err = r.observe("users.update", func() error {
		return r.collection.FindOneAndUpdate(
			ctx,
			bson.M{"_id": oid},
			update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("update user: %w", err)
	}

	return doc.toUser(), nil
}

func (r *UsersRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	var res *mongo.DeleteResult

	err = r.observe("users.delete", func() error {
		var err error
		res, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
		return err
	})

	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}

	return res.DeletedCount > 0, nil
}

func (r *UsersRepo) ListAll(ctx context.Context) ([]user.User, error) {
	var docs []userDocument

	err := r.observe("users.list", func() error {
		cur, err := r.collection.Find(ctx, bson.D{})
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})

	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]user.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toUser())
	}

	return out, nil
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.metrics == nil {
		return fn()
	}
	return r.metrics.ObserveDB(op, fn)
}
