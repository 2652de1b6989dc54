package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/auth"
	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/mailer"
	"github.com/tbourn/go-creative-marketplace/internal/observability"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

// DefaultOTPTTL is how long a verification code stays valid.
const DefaultOTPTTL = 10 * time.Minute

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Role      string // client (default) or creative
	Phone     *string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AccountService owns registration, login and email verification.
type AccountService struct {
	DB     *gorm.DB
	Mailer mailer.Sender
	Tokens *auth.Manager

	// OTPTTL defaults to DefaultOTPTTL when zero.
	OTPTTL time.Duration
	// Now and NewCode are overridable for tests.
	Now     func() time.Time
	NewCode func() (string, error)
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AccountService) ttl() time.Duration {
	if s.OTPTTL > 0 {
		return s.OTPTTL
	}
	return DefaultOTPTTL
}

func (s *AccountService) code() (string, error) {
	if s.NewCode != nil {
		return s.NewCode()
	}
	return NewOTPCode()
}

// NewOTPCode returns a uniformly random six digit code in [100000, 999999].
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func validateRegistration(in *RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	if in.Role == "" {
		in.Role = domain.RoleClient
	}

	fe := fieldErrors{}
	if in.Username == "" {
		fe.add("username", "This field is required.")
	} else if len(in.Username) > 150 {
		fe.add("username", "Ensure this field has no more than 150 characters.")
	}
	if in.Password == "" {
		fe.add("password", "This field is required.")
	}
	if in.Email == "" {
		fe.add("email", "This field is required.")
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		fe.add("email", "Enter a valid email address.")
	}
	switch in.Role {
	case domain.RoleClient, domain.RoleCreative:
	default:
		fe.add("role", "\""+in.Role+"\" is not a valid choice.")
	}
	if in.Phone != nil && len(*in.Phone) > 15 {
		fe.add("phone_number", "Ensure this field has no more than 15 characters.")
	}
	return fe.err()
}

// Register creates the account and its verification code, then emails the
// code. A failed email does not undo the registration.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Register", trace.WithAttributes(attribute.String("user.role", in.Role)))
	defer span.End()

	if err := validateRegistration(&in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	code, err := s.code()
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		PhoneNumber:  in.Phone,
		PasswordHash: hash,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateUser(ctx, tx, u); err != nil {
			return err
		}
		otp, err := repo.SaveOTPCode(ctx, tx, u.ID, code, s.now())
		if err != nil {
			return err
		}
		u.EmailOTP = otp
		return nil
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}

	s.sendCode(ctx, u.ID, u.Email, code)
	return u, nil
}

func (s *AccountService) sendCode(ctx context.Context, userID uint, to, code string) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.SendOTP(ctx, to, code, s.ttl()); err != nil {
		observability.EmailsSent.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Uint("user_id", userID).Msg("otp email not sent")
		return
	}
	observability.EmailsSent.WithLabelValues("sent").Inc()
}

// Login checks credentials and issues a session token.
func (s *AccountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	u, err := repo.GetUserByUsername(ctx, s.DB, strings.TrimSpace(username))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	res := &LoginResult{User: u}
	if s.Tokens != nil {
		tok, exp, err := s.Tokens.Issue(u.ID, u.Role)
		if err != nil {
			return nil, err
		}
		res.Token, res.ExpiresAt = tok, exp
	}
	return res, nil
}

// VerifyEmail checks code against the user's current OTP. Verifying an
// already verified address succeeds with alreadyVerified set, whatever code
// was sent. Expiry is checked before the code is compared.
func (s *AccountService) VerifyEmail(ctx context.Context, userID uint, code string) (alreadyVerified bool, err error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "VerifyEmail", trace.WithAttributes(attribute.Int64("user.id", int64(userID))))
	defer span.End()

	result := "error"
	defer func() { observability.OTPVerifications.WithLabelValues(result).Inc() }()

	otp, err := repo.GetOTP(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		result = "not_found"
		return false, ErrOTPNotFound
	}
	if err != nil {
		return false, err
	}
	if otp.IsVerified {
		result = "already_verified"
		return true, nil
	}
	if otp.IsExpired(s.now(), s.ttl()) {
		result = "expired"
		return false, ErrOTPExpired
	}
	if strings.TrimSpace(code) != otp.Code {
		result = "invalid"
		return false, ErrOTPInvalid
	}
	if err := repo.MarkOTPVerified(ctx, s.DB, userID); err != nil {
		return false, err
	}
	result = "verified"
	return false, nil
}

// ResendOTP issues a fresh code with a fresh timestamp and emails it. It does
// so even when the address is already verified.
func (s *AccountService) ResendOTP(ctx context.Context, userID uint) error {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "ResendOTP", trace.WithAttributes(attribute.Int64("user.id", int64(userID))))
	defer span.End()

	if _, err := repo.GetOTP(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOTPNotFound
		}
		return err
	}
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOTPNotFound
		}
		return err
	}
	code, err := s.code()
	if err != nil {
		return err
	}
	if _, err := repo.SaveOTPCode(ctx, s.DB, userID, code, s.now()); err != nil {
		return err
	}
	s.sendCode(ctx, u.ID, u.Email, code)
	return nil
}
