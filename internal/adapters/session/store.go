package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"holidaze/internal/domain"
)

// Two keys, mirroring the client state this replaces: the raw bearer token
// and the serialized profile. They are always written and cleared together.
var (
	keyToken   = []byte("token")
	keyProfile = []byte("profile")
)

// Store persists the single-user session in an embedded badger database.
type Store struct{ db *badger.DB }

func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Load reads the persisted session. Nothing stored, or a token whose expiry
// has passed, loads as the logged-out state.
func (s *Store) Load(ctx context.Context) (domain.Session, error) {
	var sess domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyToken)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			sess.Token = string(val)
			return nil
		}); err != nil {
			return err
		}

		item, err = txn.Get(keyProfile)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var p domain.Profile
			if err := json.Unmarshal(val, &p); err != nil {
				return err
			}
			sess.Profile = &p
			return nil
		})
	})
	if err != nil {
		return domain.Session{}, err
	}
	if sess.Token != "" && tokenExpired(sess.Token) {
		log.Info().Msg("stored token expired; loading as logged out")
		return domain.Session{}, nil
	}
	return sess, nil
}

func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	b, err := json.Marshal(sess.Profile)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyToken, []byte(sess.Token)); err != nil {
			return err
		}
		return txn.Set(keyProfile, b)
	})
}

// Clear removes both keys in one transaction.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keyToken); err != nil {
			return err
		}
		return txn.Delete(keyProfile)
	})
}

// ApplyProfile loads the session, applies the patch to its profile, and
// persists the result. All optimistic profile updates go through here.
func (s *Store) ApplyProfile(ctx context.Context, patch func(*domain.Profile)) (domain.Session, error) {
	sess, err := s.Load(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if !sess.LoggedIn() {
		return domain.Session{}, domain.ErrNoSession
	}
	patch(sess.Profile)
	if err := s.Save(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// tokenExpired reads the exp claim without verifying the signature; only the
// remote service can verify, we just avoid presenting a token it will
// reject. Tokens without an exp claim are assumed live.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
