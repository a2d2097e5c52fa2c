package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
	"servicepulse/backend/internal/textutil"
	"servicepulse/backend/internal/validation"
)

// VendorRegistrar creates the vendor record behind a vendor account.
type VendorRegistrar interface {
	RegisterVendor(ctx context.Context, name, email, category string) (vendorID string, err error)
}

type SignupInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      string `json:"role" validate:"required,oneof=resident secretary vendor"`
	Apartment string `json:"apartment" validate:"omitempty,apartment"`
	Block     string `json:"block" validate:"max=16"`
	// Category is the speciality of a signing-up vendor.
	Category string `json:"category" validate:"omitempty,category"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by signup and login.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type Service struct {
	Store     storage.Store
	Publisher storage.Publisher
	Tokens    *TokenIssuer
	Hasher    *Hasher
	Vendors   VendorRegistrar

	mu  sync.Mutex
	log *slog.Logger
}

func NewService(store storage.Store, pub storage.Publisher, tokens *TokenIssuer, hasher *Hasher, vendors VendorRegistrar) *Service {
	return &Service{
		Store:     store,
		Publisher: pub,
		Tokens:    tokens,
		Hasher:    hasher,
		Vendors:   vendors,
		log:       logger.WithComponent("auth"),
	}
}

// Signup creates an account. A vendor account also registers a vendor and
// carries its id in the token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	in.Name = textutil.Clean(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := validation.Struct(in); err != nil {
		return Session{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return Session{}, apperr.Internal("failed to hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := storage.ReadList[models.User](ctx, s.Store, storage.Users)
	for _, u := range users {
		if models.SameEmail(u.Email, in.Email) {
			return Session{}, apperr.Conflict("email already registered", in.Email)
		}
	}

	now := time.Now().UTC()
	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: hash,
		Apartment:    in.Apartment,
		Block:        strings.ToUpper(strings.TrimSpace(in.Block)),
		CreatedAt:    &now,
	}
	user.EnsureID()

	if user.Role == models.RoleVendor && s.Vendors != nil {
		vendorID, err := s.Vendors.RegisterVendor(ctx, user.Name, user.Email, in.Category)
		if err != nil {
			return Session{}, err
		}
		user.VendorID = vendorID
	}

	users = append(users, user)
	if err := storage.WriteList(ctx, s.Store, s.Publisher, storage.Users, users); err != nil {
		return Session{}, apperr.Internal("failed to store user", err.Error())
	}

	s.log.Info("user signed up", "user_id", user.ID, "role", user.Role)
	return s.session(user)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return Session{}, err
	}

	for _, u := range storage.ReadList[models.User](ctx, s.Store, storage.Users) {
		if !models.SameEmail(u.Email, in.Email) {
			continue
		}
		if err := s.Hasher.Compare(u.PasswordHash, in.Password); err != nil {
			break
		}
		return s.session(u)
	}
	return Session{}, apperr.Unauthorized("invalid email or password")
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(token string) (models.Identity, error) {
	identity, err := s.Tokens.Parse(token)
	if err != nil {
		return models.Identity{}, apperr.Unauthorized("invalid or expired token")
	}
	return identity, nil
}

func (s *Service) session(u models.User) (Session, error) {
	token, err := s.Tokens.Issue(u.Identity())
	if err != nil {
		return Session{}, apperr.Internal("failed to issue token")
	}
	u.PasswordHash = ""
	return Session{Token: token, User: u}, nil
}

// SetActive stores the identity the admin CLI acts as.
func (s *Service) SetActive(ctx context.Context, identity models.Identity) error {
	return storage.WriteSingle(ctx, s.Store, s.Publisher, storage.Auth, identity)
}

// Active returns the stored CLI identity.
func (s *Service) Active(ctx context.Context) (models.Identity, bool) {
	identity, ok := storage.ReadSingle[models.Identity](ctx, s.Store, storage.Auth)
	if !ok || identity.IsZero() {
		return models.Identity{}, false
	}
	return identity, true
}

// FindUser looks an account up by e-mail.
func (s *Service) FindUser(ctx context.Context, email string) (models.User, bool) {
	for _, u := range storage.ReadList[models.User](ctx, s.Store, storage.Users) {
		if models.SameEmail(u.Email, email) {
			return u, true
		}
	}
	return models.User{}, false
}
