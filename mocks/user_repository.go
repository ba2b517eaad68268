package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type UserRepository struct {
	CreateFunc           func(ctx context.Context, user *models.User) error
	FindByIDFunc         func(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	FindByResetTokenFunc func(ctx context.Context, hashedToken string, now time.Time) (*models.User, error)
	SetPasswordResetFunc func(ctx context.Context, id bson.ObjectID, hashedToken string, expires time.Time) error
	SetPasswordFunc      func(ctx context.Context, id bson.ObjectID, hash string, changedAt time.Time) error
	UpdateByIDFunc       func(ctx context.Context, id bson.ObjectID, set bson.M) (*models.User, error)
	ListFunc             func(ctx context.Context, spec apifeatures.Spec) ([]models.User, error)

	mu    sync.Mutex
	order []bson.ObjectID
	users map[bson.ObjectID]models.User
}

func NewUserRepository(seed ...*models.User) *UserRepository {
	r := &UserRepository{users: make(map[bson.ObjectID]models.User)}
	for _, u := range seed {
		_ = r.Create(context.Background(), u)
	}
	return r
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, user)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return duplicateKey("users", "email_1", "email", user.Email)
		}
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	r.users[user.ID] = *user
	r.order = append(r.order, user.ID)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, id)
	}
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.FindByEmailFunc != nil {
		return r.FindByEmailFunc(ctx, email)
	}
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *UserRepository) FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error) {
	if r.FindByResetTokenFunc != nil {
		return r.FindByResetTokenFunc(ctx, hashedToken, now)
	}
	return r.find(func(u models.User) bool {
		return u.PasswordResetToken == hashedToken &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
	})
}

func (r *UserRepository) find(match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		u := r.users[id]
		if u.Active && match(u) {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) SetPasswordReset(ctx context.Context, id bson.ObjectID, hashedToken string, expires time.Time) error {
	if r.SetPasswordResetFunc != nil {
		return r.SetPasswordResetFunc(ctx, id, hashedToken, expires)
	}
	return r.modifyActive(id, func(u *models.User) {
		u.PasswordResetToken = hashedToken
		u.PasswordResetExpires = &expires
	})
}

func (r *UserRepository) ClearPasswordReset(ctx context.Context, id bson.ObjectID, hashedToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok && u.PasswordResetToken == hashedToken {
		u.ClearPasswordReset()
		r.users[id] = u
	}
	return nil
}

func (r *UserRepository) SetPassword(ctx context.Context, id bson.ObjectID, hash string, changedAt time.Time) error {
	if r.SetPasswordFunc != nil {
		return r.SetPasswordFunc(ctx, id, hash, changedAt)
	}
	return r.modifyActive(id, func(u *models.User) {
		u.PasswordHash = hash
		u.PasswordChangedAt = &changedAt
		u.ClearPasswordReset()
	})
}

// modifyActive edits only the fields fn touches on the stored copy, the way a
// $set does, and misses inactive users.
func (r *UserRepository) modifyActive(id bson.ObjectID, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || !u.Active {
		return repositories.ErrNotFound
	}
	fn(&u)
	r.users[id] = u
	return nil
}

func (r *UserRepository) UpdateByID(ctx context.Context, id bson.ObjectID, set bson.M) (*models.User, error) {
	if r.UpdateByIDFunc != nil {
		return r.UpdateByIDFunc(ctx, id, set)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[id]
	if !ok || !current.Active {
		return nil, repositories.ErrNotFound
	}
	updated, err := applySet(&current, set)
	if err != nil {
		return nil, err
	}
	r.users[id] = *updated
	return updated, nil
}

// List ignores the filter and sort. It honours the page window and strips
// secrets the way the Mongo repository does.
func (r *UserRepository) List(ctx context.Context, spec apifeatures.Spec) ([]models.User, error) {
	if r.ListFunc != nil {
		return r.ListFunc(ctx, spec)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, id := range r.order {
		u := r.users[id]
		if !u.Active {
			continue
		}
		u.PasswordHash = ""
		u.PasswordResetToken = ""
		u.PasswordResetExpires = nil
		out = append(out, u)
	}
	return page(out, spec.Skip, spec.Limit), nil
}

func (r *UserRepository) Count(ctx context.Context, filter bson.D) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Active {
			n++
		}
	}
	return n, nil
}

// Get reads a stored user regardless of its active flag.
func (r *UserRepository) Get(id bson.ObjectID) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return u, ok
}
