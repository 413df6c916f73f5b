package shopper

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/cart"
)

var ErrInvalidCredentials = errors.NewUnauthorizedError("Invalid credentials", errors.ErrCodeInvalidToken)

type Repository interface {
	GetCustomerByEmail(ctx context.Context, email string) (*cart.Customer, error)
	GetCart(ctx context.Context, cartID int64) (*cart.Cart, error)
}

type ServiceAPI interface {
	IssueCartToken(ctx context.Context, dto TokenDTO) (TokenResponse, error)
}

// Service hands out cart tokens to customers who prove they own the cart.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
	logger *slog.Logger
}

func NewService(repo Repository, tokens *TokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger,
	}
}

func (s *Service) IssueCartToken(ctx context.Context, dto TokenDTO) (TokenResponse, error) {
	if err := dto.Validate(); err != nil {
		return TokenResponse{}, err
	}

	customer, err := s.repo.GetCustomerByEmail(ctx, dto.Email)
	if err != nil || !customer.Active {
		s.logger.Warn("cart token refused: unknown or inactive customer", "email", dto.Email)
		return TokenResponse{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("cart token refused: password mismatch", "customer_id", customer.ID)
		return TokenResponse{}, ErrInvalidCredentials
	}

	c, err := s.repo.GetCart(ctx, dto.CartID)
	if err != nil {
		return TokenResponse{}, err
	}
	if c.CustomerID != customer.ID {
		s.logger.Warn("cart token refused: cart belongs to another customer",
			"customer_id", customer.ID,
			"cart_id", dto.CartID)
		return TokenResponse{}, errors.ErrCartNotFound
	}

	token, err := s.tokens.Issue(c.ID, customer.ID)
	if err != nil {
		return TokenResponse{}, errors.NewInternalError("Failed to issue cart token", err)
	}

	s.logger.Info("cart token issued", "customer_id", customer.ID, "cart_id", c.ID)
	return TokenResponse{CartToken: token, CartID: c.ID}, nil
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
