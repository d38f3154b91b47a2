package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/pkg/config"
)

type mockUserStore struct {
	users     map[string]*models.User
	created   []*models.User
	auditLogs []*models.AuditLog
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	user.ID = "seeded-admin"
	m.users[user.ID] = user
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func TestEnsureAdminSeedsAccount(t *testing.T) {
	store := &mockUserStore{}
	svc := NewUserService(store, zap.NewNop())

	err := svc.EnsureAdmin(context.Background(), config.AdminSeedConfig{
		Email:    "admin@example.com",
		Password: "changeme",
		FullName: "Portal Admin",
	})
	require.NoError(t, err)
	require.Len(t, store.created, 1)

	admin := store.created[0]
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("changeme")))
	require.Len(t, store.auditLogs, 1)
	assert.Equal(t, models.AuditActionAdminSeed, store.auditLogs[0].Action)
}

func TestEnsureAdminIdempotent(t *testing.T) {
	store := &mockUserStore{users: map[string]*models.User{
		"existing": {ID: "existing", Email: "admin@example.com", Role: models.RoleAdmin},
	}}
	svc := NewUserService(store, zap.NewNop())

	err := svc.EnsureAdmin(context.Background(), config.AdminSeedConfig{
		Email:    "admin@example.com",
		Password: "changeme",
	})
	require.NoError(t, err)
	assert.Empty(t, store.created)
}

func TestEnsureAdminSkipsWhenUnconfigured(t *testing.T) {
	store := &mockUserStore{}
	svc := NewUserService(store, zap.NewNop())

	require.NoError(t, svc.EnsureAdmin(context.Background(), config.AdminSeedConfig{}))
	assert.Empty(t, store.created)
}
