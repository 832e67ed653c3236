// Package mongo implements persistence.Store on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/example/office-attendance/internal/persistence"
)

const (
	// UserCollection holds roster documents.
	UserCollection = "users"
	// AttendanceCollection holds one document per (userId, week).
	AttendanceCollection = "attendance"
	// ConfigCollection holds the single settings document.
	ConfigCollection = "config"

	settingsID     = "settings"
	connectTimeout = 10 * time.Second
)

// Storage is the MongoDB backed persistence.Store.
type Storage struct {
	client     *mongo.Client
	users      *mongo.Collection
	attendance *mongo.Collection
	config     *mongo.Collection
	logger     *slog.Logger
}

var _ persistence.Store = (*Storage)(nil)

type userDocument struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Credential string    `bson:"password"`
	CreatedAt  time.Time `bson:"createdAt"`
}

type attendanceDocument struct {
	UserID      string       `bson:"userId"`
	UserName    string       `bson:"userName"`
	Week        string       `bson:"week"`
	Days        daysDocument `bson:"days"`
	SubmittedAt time.Time    `bson:"submittedAt"`
}

type daysDocument struct {
	Monday    string `bson:"monday"`
	Tuesday   string `bson:"tuesday"`
	Wednesday string `bson:"wednesday"`
	Thursday  string `bson:"thursday"`
	Friday    string `bson:"friday"`
}

type settingsDocument struct {
	ID              string    `bson:"_id"`
	TeamsWebhookURL string    `bson:"teamsWebhookUrl"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

// Open connects to uri, pings the primary and returns a Storage bound to database.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Storage, error) {
	if uri == "" {
		return nil, errors.New("mongo: uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo: database is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := client.Database(database)
	return &Storage{
		client:     client,
		users:      db.Collection(UserCollection),
		attendance: db.Collection(AttendanceCollection),
		config:     db.Collection(ConfigCollection),
		logger:     logger.With("component", "mongo", "database", database),
	}, nil
}

// Migrate creates the indexes the store relies on. The unique (userId, week) index is what
// makes concurrent upserts for the same pair collapse into one document.
func (s *Storage) Migrate(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "week", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_week_unique"),
		},
		{
			Keys:    bson.D{{Key: "week", Value: 1}, {Key: "userName", Value: 1}},
			Options: options.Index().SetName("week_user_name"),
		},
	}
	names, err := s.attendance.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("mongo: create attendance indexes: %w", err)
	}
	s.logger.DebugContext(ctx, "indexes ensured", "indexes", names)
	return nil
}

// Ping checks the connection to the primary.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// CreateUser inserts a roster member.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.Name == "" {
		return persistence.ErrConstraintViolation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	doc := userDocument{ID: user.ID, Name: user.Name, Credential: user.Credential, CreatedAt: user.CreatedAt.UTC()}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return mapError(err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return persistence.User{}, mapError(err)
	}
	return doc.toUser(), nil
}

// ListUsers returns the roster ordered by name, then ID.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapError(err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapError(err)
	}

	users := make([]persistence.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toUser())
	}
	return users, nil
}

// UpsertAttendance replaces the (userId, week) document, inserting it when absent.
func (s *Storage) UpsertAttendance(ctx context.Context, record persistence.AttendanceRecord) error {
	if record.UserID == "" || record.Week == "" {
		return persistence.ErrConstraintViolation
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now()
	}

	filter := bson.M{"userId": record.UserID, "week": record.Week}
	update := bson.M{"$set": bson.M{
		"userName":    record.UserName,
		"days":        fromDays(record.Days),
		"submittedAt": record.SubmittedAt.UTC(),
	}}
	if _, err := s.attendance.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return mapError(err)
	}
	return nil
}

// GetAttendance returns the record for userID and week.
func (s *Storage) GetAttendance(ctx context.Context, userID, week string) (persistence.AttendanceRecord, error) {
	var doc attendanceDocument
	if err := s.attendance.FindOne(ctx, bson.M{"userId": userID, "week": week}).Decode(&doc); err != nil {
		return persistence.AttendanceRecord{}, mapError(err)
	}
	return doc.toRecord(), nil
}

// CountForWeek counts the week's documents.
func (s *Storage) CountForWeek(ctx context.Context, week string) (int, error) {
	count, err := s.attendance.CountDocuments(ctx, bson.M{"week": week})
	if err != nil {
		return 0, mapError(err)
	}
	return int(count), nil
}

// ListForWeek returns the week's records ordered by user name, then user ID.
func (s *Storage) ListForWeek(ctx context.Context, week string) ([]persistence.AttendanceRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "userName", Value: 1}, {Key: "userId", Value: 1}})
	cursor, err := s.attendance.Find(ctx, bson.M{"week": week}, opts)
	if err != nil {
		return nil, mapError(err)
	}
	var docs []attendanceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapError(err)
	}

	records := make([]persistence.AttendanceRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toRecord())
	}
	return records, nil
}

// GetSettings returns the settings document or persistence.ErrNotFound.
func (s *Storage) GetSettings(ctx context.Context) (persistence.Settings, error) {
	var doc settingsDocument
	if err := s.config.FindOne(ctx, bson.M{"_id": settingsID}).Decode(&doc); err != nil {
		return persistence.Settings{}, mapError(err)
	}
	return persistence.Settings{TeamsWebhookURL: doc.TeamsWebhookURL, UpdatedAt: doc.UpdatedAt}, nil
}

// SaveSettings creates or replaces the settings document.
func (s *Storage) SaveSettings(ctx context.Context, settings persistence.Settings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}
	doc := settingsDocument{ID: settingsID, TeamsWebhookURL: settings.TeamsWebhookURL, UpdatedAt: settings.UpdatedAt.UTC()}
	_, err := s.config.ReplaceOne(ctx, bson.M{"_id": settingsID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (d userDocument) toUser() persistence.User {
	return persistence.User{ID: d.ID, Name: d.Name, Credential: d.Credential, CreatedAt: d.CreatedAt}
}

func (d attendanceDocument) toRecord() persistence.AttendanceRecord {
	return persistence.AttendanceRecord{
		UserID:   d.UserID,
		UserName: d.UserName,
		Week:     d.Week,
		Days: persistence.DayStatuses{
			Monday:    d.Days.Monday,
			Tuesday:   d.Days.Tuesday,
			Wednesday: d.Days.Wednesday,
			Thursday:  d.Days.Thursday,
			Friday:    d.Days.Friday,
		},
		SubmittedAt: d.SubmittedAt,
	}
}

func fromDays(days persistence.DayStatuses) daysDocument {
	return daysDocument{
		Monday:    days.Monday,
		Tuesday:   days.Tuesday,
		Wednesday: days.Wednesday,
		Thursday:  days.Thursday,
		Friday:    days.Friday,
	}
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return persistence.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	default:
		return err
	}
}
