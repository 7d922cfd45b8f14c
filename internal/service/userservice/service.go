package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/metrics"
	"sweetshop/internal/pkg/token"
)

// maxPasswordBytes é o limite do bcrypt; senhas maiores são recusadas, não truncadas.
const maxPasswordBytes = 72

// UserService implementa domain.UserService (o Auth Service).
type UserService struct {
	UserRepo domain.UserRepository
	TokenSvc token.TokenService

	logger      logger.Logger
	metrics     *metrics.Metrics
	adminEmails map[string]struct{}
	cost        int
	// dummyHash é comparado quando o email não existe, para que login com
	// email inexistente e com senha errada custem o mesmo e falhem igual.
	dummyHash []byte
}

// Option ajusta o UserService na construção.
type Option func(*UserService)

// WithAdminEmails define os emails que nascem com isAdmin=true no registro.
func WithAdminEmails(emails []string) Option {
	return func(s *UserService) {
		for _, email := range emails {
			if email = strings.TrimSpace(email); email != "" {
				s.adminEmails[email] = struct{}{}
			}
		}
	}
}

// WithBcryptCost troca o custo do bcrypt (testes usam bcrypt.MinCost).
func WithBcryptCost(cost int) Option {
	return func(s *UserService) {
		s.cost = cost
	}
}

// WithMetrics liga os contadores de autenticação.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *UserService) {
		s.metrics = m
	}
}

// NewService cria uma nova instância do UserService, injetando o Repositório e o serviço de Token.
func NewService(repo domain.UserRepository, tokenSvc token.TokenService, logger logger.Logger, opts ...Option) *UserService {
	s := &UserService{
		UserRepo:    repo,
		TokenSvc:    tokenSvc,
		logger:      logger,
		adminEmails: make(map[string]struct{}),
		cost:        bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("sweetshop-placeholder-secret"), s.cost)
	if err != nil {
		// Só falha com custo fora do intervalo; volta para o padrão.
		s.cost = bcrypt.DefaultCost
		dummy, _ = bcrypt.GenerateFromPassword([]byte("sweetshop-placeholder-secret"), s.cost)
	}
	s.dummyHash = dummy
	return s
}

func (s *UserService) authResponse(user domain.User) (domain.AuthResponse, error) {
	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role()))
	if err != nil {
		s.logger.Error("Falha ao gerar token JWT.", err)
		return domain.AuthResponse{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return domain.AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
		Token:    tokenString,
	}, nil
}

// Register cria a conta e já devolve um token para ela.
// Email duplicado falha com Conflict vindo do Credential Store.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (resp domain.AuthResponse, err error) {
	defer func() { s.metrics.ObserveAuth("register", err) }()

	if strings.TrimSpace(registration.Username) == "" || strings.TrimSpace(registration.Email) == "" || registration.Password == "" {
		return domain.AuthResponse{}, apperror.NewValidationError("Nome de usuário, email e senha são obrigatórios.")
	}

	if len(registration.Password) > maxPasswordBytes {
		return domain.AuthResponse{}, apperror.NewValidationError(fmt.Sprintf("A senha deve ter no máximo %d bytes.", maxPasswordBytes))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return domain.AuthResponse{}, apperror.NewValidationError(fmt.Sprintf("A senha deve ter no máximo %d bytes.", maxPasswordBytes))
	}
	if err != nil {
		return domain.AuthResponse{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	_, admin := s.adminEmails[registration.Email]
	user, err := s.UserRepo.Save(ctx, domain.User{
		Username:     registration.Username,
		Email:        registration.Email,
		PasswordHash: string(hashedPassword),
		IsAdmin:      admin,
	})
	if err != nil {
		return domain.AuthResponse{}, err
	}

	s.logger.Info("Usuário registrado.", map[string]interface{}{"user_id": user.ID, "is_admin": user.IsAdmin})
	return s.authResponse(user)
}

// Login autentica o usuário e emite um token novo.
// Email inexistente e senha errada produzem o mesmo erro, depois de uma comparação bcrypt em ambos os casos.
func (s *UserService) Login(ctx context.Context, credentials domain.LoginRequest) (resp domain.AuthResponse, err error) {
	defer func() { s.metrics.ObserveAuth("login", err) }()

	user, err := s.UserRepo.FindByEmail(ctx, credentials.Email)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if !errors.As(err, &notFoundErr) {
			return domain.AuthResponse{}, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(credentials.Password))
		s.logger.Info("Login recusado.", nil)
		return domain.AuthResponse{}, apperror.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credentials.Password)); err != nil {
		s.logger.Info("Login recusado.", nil)
		return domain.AuthResponse{}, apperror.NewInvalidCredentialsError()
	}

	return s.authResponse(user)
}

// Verify valida o token e devolve a identidade associada. Não acessa o Credential Store.
func (s *UserService) Verify(tokenString string) (identity domain.Identity, err error) {
	defer func() { s.metrics.ObserveAuth("verify", err) }()

	if tokenString == "" {
		return domain.Identity{}, apperror.NewUnauthorizedError("token de acesso ausente.")
	}

	claims, err := s.TokenSvc.ValidateToken(tokenString)
	if err != nil {
		return domain.Identity{}, apperror.NewUnauthorizedError("token inválido ou expirado.")
	}

	return domain.Identity{UserID: claims.UserID, Role: domain.UserRole(claims.Role)}, nil
}
