package services

import (
	"sync"
	"testing"
	"time"

	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/mocks"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/utils"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const testPassword = "pass1234"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var (
	hashOnce   sync.Once
	hashedPass string
)

// newUser builds an active user whose password is testPassword.
func newUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	hashOnce.Do(func() {
		h, err := utils.HashPassword(testPassword)
		require.NoError(t, err)
		hashedPass = h
	})
	return &models.User{
		ID:           bson.NewObjectID(),
		Name:         "Test User",
		Email:        email,
		Role:         role,
		PasswordHash: hashedPass,
		Active:       true,
		CreatedAt:    time.Now().Add(-24 * time.Hour),
	}
}

type authFixture struct {
	svc    *AuthService
	users  *mocks.UserRepository
	mailer *mocks.Mailer
	tokens *utils.TokenIssuer
	clock  *fakeClock
}

func newAuthFixture(t *testing.T, seed ...*models.User) *authFixture {
	t.Helper()
	clock := newClock()
	users := mocks.NewUserRepository(seed...)
	m := &mocks.Mailer{}
	tokens := utils.NewTokenIssuer("test-secret", 24*time.Hour).WithClock(clock.Now)
	return &authFixture{
		svc:    NewAuthService(users, tokens, m).WithClock(clock.Now),
		users:  users,
		mailer: m,
		tokens: tokens,
		clock:  clock,
	}
}

func testQuery() *apifeatures.Builder {
	return apifeatures.NewBuilder(1000, "duration", "difficulty", "price")
}
