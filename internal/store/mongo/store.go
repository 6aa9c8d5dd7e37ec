// Package mongo implements job.Store on MongoDB with the official v2 driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tendant/simple-inspector/internal/job"
)

const (
	colJobs     = "jobs"
	colCounters = "counters"
)

var _ job.Store = (*Store)(nil)

// Store keeps jobs in one collection and sequence counters in another.
// Conditional updates use FindOneAndUpdate with the precondition folded into
// the filter.
type Store struct {
	client *mongod.Client
	db     *mongod.Database
	logger *slog.Logger
	owned  bool
}

// Option configures the Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Connect dials uri and uses database name. The returned Store owns the
// client and disconnects it on Close.
func Connect(ctx context.Context, uri, name string, opts ...Option) (*Store, error) {
	client, err := mongod.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	s := New(client.Database(name), opts...)
	s.client = client
	s.owned = true
	return s, nil
}

// New wraps an existing database handle. The caller owns its client.
func New(db *mongod.Database, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the listing and uniqueness indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(colJobs).Indexes().CreateMany(ctx, []mongod.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "assigned_to", Value: 1}}},
		{Keys: bson.D{{Key: "job_count", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("mongo: create indexes: %w", err)
	}
	s.logger.Info("mongo indexes ensured", "collection", colJobs)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(ctx)
}

type jobDoc struct {
	ID             string              `bson:"_id"`
	JobCount       int64               `bson:"job_count"`
	CarNumber      string              `bson:"car_number"`
	CustomerName   string              `bson:"customer_name"`
	EngineNumber   string              `bson:"engine_number"`
	Classification string              `bson:"classification"`
	Status         string              `bson:"status"`
	AssignedTo     string              `bson:"assigned_to"`
	RejectionNote  string              `bson:"rejection_note"`
	InspectionTabs []job.InspectionTab `bson:"inspection_tabs"`
	CreatedAt      time.Time           `bson:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at"`
}

func toDoc(j *job.Job) *jobDoc {
	tabs := j.InspectionTabs
	if tabs == nil {
		tabs = []job.InspectionTab{}
	}
	return &jobDoc{
		ID:             j.ID,
		JobCount:       j.JobCount,
		CarNumber:      j.CarNumber,
		CustomerName:   j.CustomerName,
		EngineNumber:   j.EngineNumber,
		Classification: string(j.Classification),
		Status:         string(j.Status),
		AssignedTo:     j.AssignedTo,
		RejectionNote:  j.RejectionNote,
		InspectionTabs: tabs,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

func fromDoc(d *jobDoc) *job.Job {
	return &job.Job{
		ID:             d.ID,
		JobCount:       d.JobCount,
		CarNumber:      d.CarNumber,
		CustomerName:   d.CustomerName,
		EngineNumber:   d.EngineNumber,
		Classification: job.Classification(d.Classification),
		Status:         job.Status(d.Status),
		AssignedTo:     d.AssignedTo,
		RejectionNote:  d.RejectionNote,
		InspectionTabs: d.InspectionTabs,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

func (s *Store) Get(ctx context.Context, id string) (*job.Job, error) {
	var d jobDoc
	err := s.db.Collection(colJobs).FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if isNoDocuments(err) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: get job: %w", err)
	}
	return fromDoc(&d), nil
}

// queryFilter translates q into a filter document.
func queryFilter(q job.Query) bson.M {
	filter := bson.M{}
	created := bson.M{}
	if !q.CreatedFrom.IsZero() {
		created["$gte"] = q.CreatedFrom
	}
	if !q.CreatedTo.IsZero() {
		created["$lte"] = q.CreatedTo
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	if q.Status != "" {
		filter["status"] = string(q.Status)
	}
	if q.VisibleTo != "" {
		filter["$or"] = bson.A{
			bson.M{"status": string(job.StatusPending)},
			bson.M{"status": string(job.StatusInProgress), "assigned_to": q.VisibleTo},
		}
	}
	return filter
}

func (s *Store) Find(ctx context.Context, q job.Query) ([]*job.Job, int64, error) {
	col := s.db.Collection(colJobs)
	filter := queryFilter(q)

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: count jobs: %w", err)
	}

	findOpts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "job_count", Value: -1},
	})
	if q.Skip > 0 {
		findOpts.SetSkip(int64(q.Skip))
	}
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}

	cursor, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: find jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []jobDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("mongo: decode jobs: %w", err)
	}
	jobs := make([]*job.Job, len(docs))
	for i := range docs {
		jobs[i] = fromDoc(&docs[i])
	}
	return jobs, total, nil
}

func (s *Store) Insert(ctx context.Context, j *job.Job) error {
	if _, err := s.db.Collection(colJobs).InsertOne(ctx, toDoc(j)); err != nil {
		return fmt.Errorf("mongo: insert job: %w", err)
	}
	return nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, id string, e job.Expect, u job.Update) (*job.Job, error) {
	filter := bson.M{"_id": id}
	if e.Status != nil {
		filter["status"] = string(*e.Status)
	}
	if e.AssignedTo != nil {
		filter["assigned_to"] = *e.AssignedTo
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if u.CarNumber != nil {
		set["car_number"] = *u.CarNumber
	}
	if u.CustomerName != nil {
		set["customer_name"] = *u.CustomerName
	}
	if u.EngineNumber != nil {
		set["engine_number"] = *u.EngineNumber
	}
	if u.Classification != nil {
		set["classification"] = string(*u.Classification)
	}
	if u.Status != nil {
		set["status"] = string(*u.Status)
	}
	if u.AssignedTo != nil {
		set["assigned_to"] = *u.AssignedTo
	}
	if u.RejectionNote != nil {
		set["rejection_note"] = *u.RejectionNote
	}
	if u.InspectionTabs != nil {
		tabs := *u.InspectionTabs
		if tabs == nil {
			tabs = []job.InspectionTab{}
		}
		set["inspection_tabs"] = tabs
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d jobDoc
	err := s.db.Collection(colJobs).FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&d)
	if isNoDocuments(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: update job: %w", err)
	}
	return fromDoc(&d), nil
}

func (s *Store) Increment(ctx context.Context, counter string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var doc job.Counter
	err := s.db.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": counter},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("mongo: increment counter %s: %w", counter, err)
	}
	return doc.Value, nil
}

func (s *Store) Delete(ctx context.Context, id string) (*job.Job, error) {
	var d jobDoc
	err := s.db.Collection(colJobs).FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&d)
	if isNoDocuments(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: delete job: %w", err)
	}
	return fromDoc(&d), nil
}
