package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"taskboard/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps the Session server-side; the cookie only holds a random id.
type RedisStore struct {
	rdb   *redis.Client
	opts  Options
	newID func() string
}

func NewRedisStore(rdb *redis.Client, opts Options) *RedisStore {
	return &RedisStore{rdb: rdb, opts: opts, newID: uuid.NewString}
}

func (s *RedisStore) Get(r *http.Request) (*domain.Session, error) {
	id, err := readCookie(r)
	if err != nil {
		return nil, err
	}

	raw, err := s.rdb.Get(r.Context(), keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: corrupt record: %v", ErrNoSession, err)
	}
	return &sess, nil
}

// Set reuses the id already in the cookie so profile edits update the record in place.
func (s *RedisStore) Set(w http.ResponseWriter, r *http.Request, sess *domain.Session) error {
	id, err := readCookie(r)
	if err != nil {
		id = s.newID()
	}
	return s.write(w, r, id, sess)
}

// Rotate never trusts the incoming cookie: the old record is dropped and the
// session is stored under a freshly minted id.
func (s *RedisStore) Rotate(w http.ResponseWriter, r *http.Request, sess *domain.Session) error {
	if old, err := readCookie(r); err == nil {
		if err := s.rdb.Del(r.Context(), keyPrefix+old).Err(); err != nil {
			return fmt.Errorf("redis del session: %w", err)
		}
	}
	return s.write(w, r, s.newID(), sess)
}

func (s *RedisStore) write(w http.ResponseWriter, r *http.Request, id string, sess *domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(r.Context(), keyPrefix+id, raw, s.opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	writeCookie(w, id, s.opts)
	return nil
}

func (s *RedisStore) Clear(w http.ResponseWriter, r *http.Request) error {
	expireCookie(w, s.opts)
	id, err := readCookie(r)
	if err != nil {
		return nil
	}
	if err := s.rdb.Del(r.Context(), keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
