// Package session keeps admin sign-ins in Valkey. A session is a JSON
// payload under session:<id>, and every user has a set session:user:<uuid>
// listing their live session ids so a password change can sign out the
// other devices.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the admin session cookie.
	CookieName = "lc_session"

	// DefaultTTL bounds a signed-in admin session.
	DefaultTTL = 24 * time.Hour

	// PendingTTL bounds a session that still waits for its TOTP code.
	PendingTTL = 5 * time.Minute

	keyPrefix     = "session:"
	userKeyPrefix = "session:user:"

	// 32 random bytes, 64 hex chars.
	idLength = 32
)

// Data is what a session remembers about the signed-in admin.
type Data struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	TOTPRequired bool      `json:"totp_required"`
	TwoFADone    bool      `json:"two_fa_done"`
	CreatedAt    time.Time `json:"created_at"`
}

// Authenticated reports whether the session grants admin access: the
// password was accepted and, when the account has TOTP enabled, the code
// was verified.
func (d *Data) Authenticated() bool {
	return d != nil && (!d.TOTPRequired || d.TwoFADone)
}

// Store reads and writes sessions in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore returns a store on client. secure marks the cookie HTTPS-only.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{client: client, ttl: DefaultTTL, secure: secure}
}

// lifetime is PendingTTL until the second factor is in, then the full TTL.
func (s *Store) lifetime(data *Data) time.Duration {
	if data.Authenticated() {
		return s.ttl
	}
	return min(PendingTTL, s.ttl)
}

func userKey(id uuid.UUID) string {
	return userKeyPrefix + id.String()
}

// save writes the payload under id and indexes id under its user.
func (s *Store) save(ctx context.Context, id string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, keyPrefix+id, payload, s.lifetime(data))
		p.SAdd(ctx, userKey(data.UserID), id)
		p.Expire(ctx, userKey(data.UserID), s.ttl)
		return nil
	})
	return err
}

// Create starts a session for data and sets the cookie. The cookie lives
// for the full TTL; a pending session expires sooner in Valkey.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	data.CreatedAt = time.Now()

	if err := s.save(ctx, id, data); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	s.setCookie(w, id, int(s.ttl.Seconds()))
	return id, nil
}

// Get loads the session named by the request cookie. A missing cookie or
// an expired session is (nil, nil).
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &data, nil
}

// Update rewrites the session in place and restarts its lifetime, so a
// session that just passed TOTP moves from PendingTTL to the full TTL.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return errors.New("update session: no session cookie")
	}
	if err := s.save(ctx, cookie.Value, data); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Destroy deletes the current session and expires the cookie. Without a
// cookie there is nothing to do.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	payload, err := s.client.GetDel(ctx, keyPrefix+cookie.Value).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("destroy session: %w", err)
	}
	var data Data
	if len(payload) > 0 && json.Unmarshal(payload, &data) == nil {
		if err := s.client.SRem(ctx, userKey(data.UserID), cookie.Value).Err(); err != nil {
			return fmt.Errorf("destroy session index: %w", err)
		}
	}

	s.setCookie(w, "", -1)
	return nil
}

// RevokeOthers deletes every session of userID except the one the request
// carries and returns how many were removed.
func (s *Store) RevokeOthers(ctx context.Context, r *http.Request, userID uuid.UUID) (int, error) {
	keep := ""
	if cookie, err := r.Cookie(CookieName); err == nil {
		keep = cookie.Value
	}

	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	var others []string
	for _, id := range ids {
		if id != keep {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return 0, nil
	}

	keys := make([]string, len(others))
	members := make([]any, len(others))
	for i, id := range others {
		keys[i] = keyPrefix + id
		members[i] = id
	}
	var removed *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.Del(ctx, keys...)
		p.SRem(ctx, userKey(userID), members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return int(removed.Val()), nil
}

func (s *Store) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
