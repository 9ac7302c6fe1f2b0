package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trainhub/training-admin-api/internal/models"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
)

type fakeUserRepo struct {
	users      map[string]*models.User
	byEmail    map[string]*models.User
	deleted    []string
	lastFilter models.UserFilter
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*models.User{}, byEmail: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
		repo.byEmail[u.Email] = u
	}
	return repo
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.lastFilter = filter
	var all []models.User
	for _, u := range f.users {
		all = append(all, *u)
	}
	return all, models.NewPagination(filter.Page, filter.PageSize, len(all)), nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "generated"
	}
	f.users[user.ID] = user
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.users, id)
	return nil
}

type fakeDepartments struct {
	ids map[string]bool
}

func (f *fakeDepartments) GetByID(_ context.Context, id string) (*models.Department, error) {
	if !f.ids[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Department{ID: id}, nil
}

type fakeSessionCounter struct {
	counts map[string]int
}

func (f *fakeSessionCounter) CountByConductor(_ context.Context, id string) (int, error) {
	return f.counts[id], nil
}

func newUserSvc(repo *fakeUserRepo, counts map[string]int) (*UserService, *fakeRecorder) {
	recorder := &fakeRecorder{}
	departments := &fakeDepartments{ids: map[string]bool{"d1": true}}
	svc := NewUserService(repo, departments, &fakeSessionCounter{counts: counts}, recorder, nil, 10, 100, nil)
	return svc, recorder
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc, recorder := newUserSvc(repo, nil)

	user, err := svc.Create(context.Background(), staffCaller, CreateUserRequest{
		Email:     "Ada@Example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
	require.Len(t, recorder.events, 1)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "u1", Email: "ada@example.com"})
	svc, _ := newUserSvc(repo, nil)

	_, err := svc.Create(context.Background(), staffCaller, CreateUserRequest{
		Email:     "ada@example.com",
		FirstName: "Ada",
		Password:  "s3cret-pass",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestCreateUserRejectsUnknownDepartment(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newUserSvc(repo, nil)

	missing := "d404"
	_, err := svc.Create(context.Background(), staffCaller, CreateUserRequest{
		Email:        "ada@example.com",
		FirstName:    "Ada",
		Password:     "s3cret-pass",
		DepartmentID: &missing,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestListUsersStaffOnly(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newUserSvc(repo, nil)

	_, _, err := svc.List(context.Background(), selfCaller, UserListRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestListUsersCapsRequestedPageSize(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newUserSvc(repo, nil)

	_, _, err := svc.List(context.Background(), staffCaller, UserListRequest{PageSize: 1000000})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastFilter.PageSize)

	_, _, err = svc.List(context.Background(), staffCaller, UserListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 10, repo.lastFilter.PageSize)
}

func TestGetUserAllowsSelf(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "u1", Email: "ada@example.com"})
	svc, _ := newUserSvc(repo, nil)

	user, err := svc.Get(context.Background(), selfCaller, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = svc.Get(context.Background(), selfCaller, "u2")
	require.Error(t, err)
}

func TestDeleteUserRefusedWhileConducting(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "u1", Email: "ada@example.com"})
	svc, _ := newUserSvc(repo, map[string]int{"u1": 2})

	err := svc.Delete(context.Background(), staffCaller, "u1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Contains(t, appErr.Message, "2 session(s)")
	assert.Empty(t, repo.deleted)
}

func TestDeleteUserRefusedForStaffAccounts(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "u1", Email: "boss@example.com", IsStaff: true})
	svc, _ := newUserSvc(repo, nil)

	err := svc.Delete(context.Background(), staffCaller, "u1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestDeleteUserSucceedsWithoutSessions(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "u1", Email: "ada@example.com"})
	svc, recorder := newUserSvc(repo, nil)

	require.NoError(t, svc.Delete(context.Background(), staffCaller, "u1"))
	assert.Equal(t, []string{"u1"}, repo.deleted)
	require.Len(t, recorder.events, 1)
	assert.Equal(t, models.ActionDelete, recorder.events[0].Action)
}
