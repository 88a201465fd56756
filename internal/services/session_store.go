package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/utils"
	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists sessions between requests and restarts. Token, role
// and user id never reach the store unsealed.
type SessionStore interface {
	Save(ctx context.Context, sess *models.Session) error
	Load(ctx context.Context, id string) (*models.Session, error)
	SetElapsed(ctx context.Context, id string, seconds int) error
	Delete(ctx context.Context, id string) error
}

// sessionCodec converts between sessions and their sealed records.
type sessionCodec struct {
	sealer *utils.Sealer
}

func (c sessionCodec) seal(sess *models.Session) (*models.SessionRecord, error) {
	token, err := c.sealer.Seal(sess.Token)
	if err != nil {
		return nil, err
	}
	role, err := c.sealer.Seal(string(sess.Role))
	if err != nil {
		return nil, err
	}
	userID, err := c.sealer.Seal(sess.UserID)
	if err != nil {
		return nil, err
	}
	return &models.SessionRecord{
		ID:             sess.ID,
		SealedToken:    token,
		SealedRole:     role,
		SealedUserID:   userID,
		ElapsedSeconds: sess.ElapsedSeconds,
		ExpiresAt:      sess.ExpiresAt,
		CreatedAt:      sess.CreatedAt,
	}, nil
}

func (c sessionCodec) open(rec *models.SessionRecord) (*models.Session, error) {
	token, err := c.sealer.Open(rec.SealedToken)
	if err != nil {
		return nil, err
	}
	role, err := c.sealer.Open(rec.SealedRole)
	if err != nil {
		return nil, err
	}
	userID, err := c.sealer.Open(rec.SealedUserID)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		ID:             rec.ID,
		Token:          token,
		Role:           models.Role(role),
		UserID:         userID,
		ElapsedSeconds: rec.ElapsedSeconds,
		CreatedAt:      rec.CreatedAt,
		ExpiresAt:      rec.ExpiresAt,
	}, nil
}

// --- memory ---

type MemorySessionStore struct {
	codec   sessionCodec
	mu      sync.RWMutex
	records map[string]models.SessionRecord
}

func NewMemorySessionStore(sealer *utils.Sealer) *MemorySessionStore {
	return &MemorySessionStore{
		codec:   sessionCodec{sealer: sealer},
		records: make(map[string]models.SessionRecord),
	}
}

func (s *MemorySessionStore) Save(_ context.Context, sess *models.Session) error {
	rec, err := s.codec.seal(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records[sess.ID] = *rec
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Load(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.codec.open(&rec)
}

func (s *MemorySessionStore) SetElapsed(_ context.Context, id string, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrSessionNotFound
	}
	rec.ElapsedSeconds = seconds
	s.records[id] = rec
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

// PurgeExpired removes records whose token has lapsed.
func (s *MemorySessionStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if !rec.ExpiresAt.IsZero() && rec.ExpiresAt.Before(now) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// --- redis ---

const redisSessionPrefix = "session:"

type RedisSessionStore struct {
	codec  sessionCodec
	client *redis.Client
	// ttl bounds sessions whose token carries no expiry.
	ttl time.Duration
}

func NewRedisSessionStore(client *redis.Client, sealer *utils.Sealer, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{codec: sessionCodec{sealer: sealer}, client: client, ttl: ttl}
}

func (s *RedisSessionStore) expiration(sess *models.Session) time.Duration {
	if sess.ExpiresAt.IsZero() {
		return s.ttl
	}
	if d := time.Until(sess.ExpiresAt); d > 0 {
		return d
	}
	return time.Second
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *models.Session) error {
	rec, err := s.codec.seal(sess)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisSessionPrefix+sess.ID, data, s.expiration(sess)).Err()
}

func (s *RedisSessionStore) load(ctx context.Context, id string) (*models.SessionRecord, error) {
	data, err := s.client.Get(ctx, redisSessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var rec models.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisSessionStore) Load(ctx context.Context, id string) (*models.Session, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.codec.open(rec)
}

func (s *RedisSessionStore) SetElapsed(ctx context.Context, id string, seconds int) error {
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	rec.ElapsedSeconds = seconds
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	err = s.client.SetArgs(ctx, redisSessionPrefix+id, data, redis.SetArgs{KeepTTL: true, Mode: "XX"}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	return err
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisSessionPrefix+id).Err()
}

// --- database ---

type DBSessionStore struct {
	codec sessionCodec
	db    *gorm.DB
}

func NewDBSessionStore(db *gorm.DB, sealer *utils.Sealer) *DBSessionStore {
	return &DBSessionStore{codec: sessionCodec{sealer: sealer}, db: db}
}

func (s *DBSessionStore) Save(ctx context.Context, sess *models.Session) error {
	rec, err := s.codec.seal(sess)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(rec).Error
}

func (s *DBSessionStore) Load(ctx context.Context, id string) (*models.Session, error) {
	var rec models.SessionRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.codec.open(&rec)
}

func (s *DBSessionStore) SetElapsed(ctx context.Context, id string, seconds int) error {
	return s.db.WithContext(ctx).Model(&models.SessionRecord{}).
		Where("id = ?", id).
		Update("elapsed_seconds", seconds).Error
}

func (s *DBSessionStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SessionRecord{}).Error
}

// PurgeExpired removes records whose token has lapsed.
func (s *DBSessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at > ? AND expires_at < ?", time.Time{}, now).
		Delete(&models.SessionRecord{})
	return res.RowsAffected, res.Error
}
