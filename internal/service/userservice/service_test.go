package userservice_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/token"
	"sweetshop/internal/repository/memstore"
	"sweetshop/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func newService(repo domain.UserRepository, opts ...userservice.Option) (*userservice.UserService, *token.Service) {
	tokens := token.NewService("test-secret", time.Hour)
	opts = append(opts, userservice.WithBcryptCost(bcrypt.MinCost))
	return userservice.NewService(repo, tokens, logger.NewNopLogger(), opts...), tokens
}

func TestRegister_IssuesTokenForNewUser(t *testing.T) {
	svc, tokens := newService(memstore.NewUserStore())

	resp, err := svc.Register(context.Background(), domain.UserRegistration{Username: "ana", Email: "ana@shop.com", Password: "doce123"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "ana", resp.Username)
	assert.False(t, resp.IsAdmin)

	claims, err := tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)
	assert.Equal(t, string(domain.RoleUser), claims.Role)
}

func TestRegister_HashesPassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := newService(repo)

	repo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.PasswordHash != "doce123" && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("doce123")) == nil
	})).Return(domain.User{ID: "u-1", Username: "ana", Email: "ana@shop.com"}, nil)

	_, err := svc.Register(context.Background(), domain.UserRegistration{Username: "ana", Email: "ana@shop.com", Password: "doce123"})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRegister_AdminEmailGetsAdminRole(t *testing.T) {
	svc, tokens := newService(memstore.NewUserStore(), userservice.WithAdminEmails([]string{" boss@shop.com "}))

	resp, err := svc.Register(context.Background(), domain.UserRegistration{Username: "boss", Email: "boss@shop.com", Password: "x"})

	require.NoError(t, err)
	assert.True(t, resp.IsAdmin)
	claims, err := tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RoleAdmin), claims.Role)
}

func TestRegister_MissingFields(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := newService(repo)

	_, err := svc.Register(context.Background(), domain.UserRegistration{Email: "ana@shop.com", Password: "x"})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRegister_PasswordOverBcryptLimitIsValidationError(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := newService(repo)

	_, err := svc.Register(context.Background(), domain.UserRegistration{
		Username: "ana",
		Email:    "ana@shop.com",
		Password: strings.Repeat("a", 80),
	})

	assert.Equal(t, apperror.CategoryValidation, apperror.CategoryOf(err))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRegister_PasswordAtBcryptLimitIsAccepted(t *testing.T) {
	svc, _ := newService(memstore.NewUserStore())
	ctx := context.Background()
	password := strings.Repeat("a", 72)

	_, err := svc.Register(ctx, domain.UserRegistration{Username: "ana", Email: "ana@shop.com", Password: password})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "ana@shop.com", Password: password})
	assert.NoError(t, err)
}

func TestRegister_DuplicateEmailKeepsFirstAccount(t *testing.T) {
	svc, _ := newService(memstore.NewUserStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.UserRegistration{Username: "ana", Email: "ana@shop.com", Password: "first"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, domain.UserRegistration{Username: "outra", Email: "ana@shop.com", Password: "second"})
	assert.Equal(t, apperror.CategoryConflict, apperror.CategoryOf(err))

	resp, err := svc.Login(ctx, domain.LoginRequest{Email: "ana@shop.com", Password: "first"})
	require.NoError(t, err)
	assert.Equal(t, "ana", resp.Username)
}

func TestLogin_WrongPasswordAndUnknownEmailAreIndistinguishable(t *testing.T) {
	svc, _ := newService(memstore.NewUserStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.UserRegistration{Username: "ana", Email: "ana@shop.com", Password: "certa"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, domain.LoginRequest{Email: "ana@shop.com", Password: "errada"})
	_, unknownEmail := svc.Login(ctx, domain.LoginRequest{Email: "ghost@shop.com", Password: "certa"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	s1, c1, m1 := apperror.MapToHTTPStatus(wrongPassword)
	s2, c2, m2 := apperror.MapToHTTPStatus(unknownEmail)
	assert.Equal(t, s1, s2)
	assert.Equal(t, c1, c2)
	assert.Equal(t, m1, m2)
	assert.Equal(t, apperror.CategoryInvalidCredentials, c1)
}

func TestLogin_RepositoryFailureIsNotMasked(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := newService(repo)

	repo.On("FindByEmail", mock.Anything, "ana@shop.com").
		Return(domain.User{}, apperror.NewDBError("Falha ao buscar usuário por email", errors.New("timeout")))

	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "ana@shop.com", Password: "x"})

	assert.IsType(t, &apperror.InternalError{}, err)
	repo.AssertExpectations(t)
}

func TestVerify(t *testing.T) {
	svc, _ := newService(memstore.NewUserStore(), userservice.WithAdminEmails([]string{"boss@shop.com"}))

	resp, err := svc.Register(context.Background(), domain.UserRegistration{Username: "boss", Email: "boss@shop.com", Password: "x"})
	require.NoError(t, err)

	identity, err := svc.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, identity.UserID)
	assert.True(t, identity.IsAdmin())

	for _, bad := range []string{"", "garbage", resp.Token + "x"} {
		_, err := svc.Verify(bad)
		assert.IsType(t, &apperror.UnauthorizedError{}, err, "token %q", bad)
	}
}

func TestVerify_ForeignSecretRejected(t *testing.T) {
	svc, _ := newService(memstore.NewUserStore())
	foreign := token.NewService("other-secret", time.Hour)

	forged, err := foreign.GenerateToken("u-1", string(domain.RoleAdmin))
	require.NoError(t, err)

	_, err = svc.Verify(forged)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}
