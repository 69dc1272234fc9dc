package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/okian/mingle/internal/domain/model"
	"github.com/okian/mingle/pkg/metrics"
)

// Default collection names for the Mongo backend.
const (
	defaultProfilesCollection = "profiles"
	defaultGroupsCollection   = "groups"
)

// MongoStore implements ProfileStore and GroupStore over a MongoDB
// database. Assign relies on a filtered UpdateOne so the read-check-write
// of a group move is a single conditional document update; no multi-
// document transaction is needed for the engine's consistency rules.
type MongoStore struct {
	db           *mongo.Database
	profilesName string
	groupsName   string
}

// NewMongoStore creates a store over db with configuration options.
func NewMongoStore(db *mongo.Database, opts ...Option) *MongoStore {
	s := &MongoStore{
		db:           db,
		profilesName: defaultProfilesCollection,
		groupsName:   defaultGroupsCollection,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MongoStore) profiles() *mongo.Collection {
	return s.db.Collection(s.profilesName)
}

func (s *MongoStore) groupsColl() *mongo.Collection {
	return s.db.Collection(s.groupsName)
}

// QueryUnassigned returns every profile with an empty group reference.
func (s *MongoStore) QueryUnassigned(ctx context.Context) ([]model.Profile, error) {
	cur, err := s.profiles().Find(ctx, bson.M{"group_id": ""})
	if err != nil {
		return nil, fmt.Errorf("query unassigned profiles: %w", err)
	}
	var out []model.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode unassigned profiles: %w", err)
	}
	return out, nil
}

// Get returns the profile for id.
func (s *MongoStore) Get(ctx context.Context, id string) (model.Profile, error) {
	var p model.Profile
	err := s.profiles().FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

// Put upserts a profile record keyed by its id.
func (s *MongoStore) Put(ctx context.Context, p model.Profile) error {
	_, err := s.profiles().ReplaceOne(ctx,
		bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put profile %s: %w", p.ID, err)
	}
	return nil
}

// Assign performs the conditional group move as one filtered update:
// the filter matches only while group_id still holds a.FromGroupID, so a
// concurrent writer that got there first leaves MatchedCount at zero.
func (s *MongoStore) Assign(ctx context.Context, id string, a model.Assignment) error {
	res, err := s.profiles().UpdateOne(ctx,
		bson.M{"_id": id, "group_id": a.FromGroupID},
		bson.M{"$set": bson.M{
			"group_id":   a.ToGroupID,
			"is_mentor":  a.IsMentor,
			"group_size": a.GroupSize,
		}})
	if err != nil {
		return fmt.Errorf("assign profile %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		n, err := s.profiles().CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("assign profile %s: %w", id, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// Count returns the number of profiles tracked; 0 on a failed count.
func (s *MongoStore) Count(ctx context.Context) int {
	n, err := s.profiles().CountDocuments(ctx, bson.M{})
	if err != nil {
		metrics.RecordStoreError("profiles", "count")
		return 0
	}
	return int(n)
}

// QueryActive returns every active group.
func (s *MongoStore) QueryActive(ctx context.Context) ([]model.Group, error) {
	return s.findGroups(ctx, bson.M{"is_active": true})
}

// QueryActiveUnder returns active groups smaller than sizeThreshold.
func (s *MongoStore) QueryActiveUnder(ctx context.Context, sizeThreshold int) ([]model.Group, error) {
	return s.findGroups(ctx, bson.M{
		"is_active":  true,
		"group_size": bson.M{"$lt": sizeThreshold},
	})
}

func (s *MongoStore) findGroups(ctx context.Context, filter bson.M) ([]model.Group, error) {
	cur, err := s.groupsColl().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	var out []model.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	return out, nil
}

// GetGroup returns the group for id.
func (s *MongoStore) GetGroup(ctx context.Context, id string) (model.Group, error) {
	var g model.Group
	err := s.groupsColl().FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Group{}, ErrNotFound
	}
	if err != nil {
		return model.Group{}, fmt.Errorf("get group %s: %w", id, err)
	}
	return g, nil
}

// PutGroup upserts a group record keyed by its id.
func (s *MongoStore) PutGroup(ctx context.Context, g model.Group) error {
	_, err := s.groupsColl().ReplaceOne(ctx,
		bson.M{"_id": g.ID}, g, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put group %s: %w", g.ID, err)
	}
	return nil
}

// Deactivate retires a group; the is_active filter keeps an already
// retired group immutable.
func (s *MongoStore) Deactivate(ctx context.Context, id, reason string) error {
	res, err := s.groupsColl().UpdateOne(ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "reason": reason}})
	if err != nil {
		return fmt.Errorf("deactivate group %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		n, err := s.groupsColl().CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("deactivate group %s: %w", id, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrInactive
	}
	return nil
}

// CountGroups returns the number of groups tracked; 0 on a failed count.
func (s *MongoStore) CountGroups(ctx context.Context) int {
	n, err := s.groupsColl().CountDocuments(ctx, bson.M{})
	if err != nil {
		metrics.RecordStoreError("groups", "count")
		return 0
	}
	return int(n)
}

// Groups adapts the MongoStore to the GroupStore contract, mirroring the
// memory backend's wrapper.
func (s *MongoStore) Groups() GroupStore {
	return mongoGroupStore{s}
}

type mongoGroupStore struct {
	s *MongoStore
}

func (m mongoGroupStore) QueryActive(ctx context.Context) ([]model.Group, error) {
	return m.s.QueryActive(ctx)
}

func (m mongoGroupStore) QueryActiveUnder(ctx context.Context, sizeThreshold int) ([]model.Group, error) {
	return m.s.QueryActiveUnder(ctx, sizeThreshold)
}

func (m mongoGroupStore) Get(ctx context.Context, id string) (model.Group, error) {
	return m.s.GetGroup(ctx, id)
}

func (m mongoGroupStore) Put(ctx context.Context, g model.Group) error {
	return m.s.PutGroup(ctx, g)
}

func (m mongoGroupStore) Deactivate(ctx context.Context, id, reason string) error {
	return m.s.Deactivate(ctx, id, reason)
}

func (m mongoGroupStore) Count(ctx context.Context) int {
	return m.s.CountGroups(ctx)
}
