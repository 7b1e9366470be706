package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benvon/checkauto-admin/internal/database"
	"github.com/benvon/checkauto-admin/internal/models"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://checkauto.us.auth0.com/"
	testAudience = "https://api.checkauto.pe"
)

// signingKey is an RSA key published in the test JWKS under kid.
type signingKey struct {
	kid  string
	priv *rsa.PrivateKey
}

func newSigningKey(t *testing.T, kid string) signingKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return signingKey{kid: kid, priv: priv}
}

// sign mints an RS256 token with an independent JWT library.
func (k signingKey) sign(t *testing.T, claims gojwt.MapClaims) string {
	t.Helper()
	tok := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)
	if k.kid != "" {
		tok.Header["kid"] = k.kid
	}
	s, err := tok.SignedString(k.priv)
	require.NoError(t, err)
	return s
}

// jwksServer serves a mutable JWKS document and counts fetches.
type jwksServer struct {
	*httptest.Server
	mu     sync.Mutex
	doc    []byte
	status int
	hits   atomic.Int32
}

func newJWKSServer(t *testing.T, keys ...signingKey) *jwksServer {
	t.Helper()
	s := &jwksServer{status: http.StatusOK}
	s.publish(t, keys...)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		status, doc := s.status, s.doc
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(doc)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) publish(t *testing.T, keys ...signingKey) {
	t.Helper()
	set := jwk.NewSet()
	for _, k := range keys {
		pub, err := jwk.FromRaw(&k.priv.PublicKey)
		require.NoError(t, err)
		require.NoError(t, pub.Set(jwk.KeyIDKey, k.kid))
		require.NoError(t, pub.Set(jwk.AlgorithmKey, jwa.RS256))
		require.NoError(t, set.AddKey(pub))
	}
	doc, err := json.Marshal(set)
	require.NoError(t, err)
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

func (s *jwksServer) fail(status int) {
	s.mu.Lock()
	s.status = status
	s.doc = []byte(`{"error":"unavailable"}`)
	s.mu.Unlock()
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func validClaims(sub string) gojwt.MapClaims {
	now := time.Now()
	return gojwt.MapClaims{
		"sub":   sub,
		"iss":   testIssuer,
		"aud":   testAudience,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"email": "ana.quispe@tecsup.edu.pe",
		"name":  "Ana Quispe",
	}
}

// memoryStore is an in-memory UserStore enforcing unique usernames.
type memoryStore struct {
	mu        sync.Mutex
	users     map[string]models.User
	creates   int
	updates   int
	lookupErr error
	// beforeCreate runs under the lock before the insert is applied.
	beforeCreate func(s *memoryStore, u *models.User)
	// afterGet runs under the lock once a lookup has copied the row.
	afterGet func(s *memoryStore, username string)
}

func newMemoryStore(users ...models.User) *memoryStore {
	s := &memoryStore{users: make(map[string]models.User)}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		s.users[u.Username] = u
	}
	return s
}

func (s *memoryStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	u, ok := s.users[username]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	if s.afterGet != nil {
		s.afterGet(s, username)
	}
	return &u, nil
}

func (s *memoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.beforeCreate != nil {
		s.beforeCreate(s, user)
	}
	if _, ok := s.users[user.Username]; ok {
		return fmt.Errorf("username %q: %w", user.Username, database.ErrUserExists)
	}
	user.ID = uuid.New()
	user.DateJoined = time.Now()
	s.users[user.Username] = *user
	return nil
}

func (s *memoryStore) UpdateIdentity(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	stored, ok := s.users[user.Username]
	if !ok {
		return database.ErrUserNotFound
	}
	// Same guard as the SQL: names only land on a row that has none.
	stored.Email = user.Email
	if !stored.HasName() {
		stored.FirstName = user.FirstName
		stored.LastName = user.LastName
	}
	stored.UpdatedAt = time.Now()
	s.users[user.Username] = stored
	*user = stored
	return nil
}

func (s *memoryStore) get(username string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	return u, ok
}

// stubVerifier returns fixed claims or a fixed error.
type stubVerifier struct {
	claims *models.TokenClaims
	err    error
}

func (v stubVerifier) Verify(context.Context, string) (*models.TokenClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	c := *v.claims
	return &c, nil
}

// recordingNotifier captures provisioned users.
type recordingNotifier struct {
	mu    sync.Mutex
	users []string
	err   error
}

func (n *recordingNotifier) UserProvisioned(_ context.Context, user *models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, user.Username)
	return n.err
}
