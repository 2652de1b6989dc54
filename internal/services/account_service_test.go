package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-creative-marketplace/internal/auth"
	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/observability"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

func newAccountService(t *testing.T) (*AccountService, *fakeMailer, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := &fakeMailer{}
	svc := &AccountService{
		DB:      newTestDB(t),
		Mailer:  m,
		Tokens:  auth.NewManager("test-secret", "marketplace", time.Hour),
		Now:     clock.Now,
		NewCode: func() (string, error) { return "123456", nil },
	}
	return svc, m, clock
}

func register(t *testing.T, svc *AccountService, username string) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Password: "s3cret!",
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return u
}

func TestNewOTPCode_SixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewOTPCode()
		if err != nil {
			t.Fatalf("NewOTPCode: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil || len(code) != 6 || n < 100000 || n > 999999 {
			t.Fatalf("bad code %q", code)
		}
	}
}

func TestRegister_CreatesUserOTPAndSendsMail(t *testing.T) {
	svc, m, clock := newAccountService(t)
	ctx := context.Background()

	u := register(t, svc, "alice")
	if u.ID == 0 || u.Role != domain.RoleClient {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.PasswordHash == "s3cret!" || !auth.CheckPassword(u.PasswordHash, "s3cret!") {
		t.Fatalf("password not hashed")
	}

	otp, err := repo.GetOTP(ctx, svc.DB, u.ID)
	if err != nil {
		t.Fatalf("GetOTP: %v", err)
	}
	if otp.Code != "123456" || otp.IsVerified || !otp.CreatedAt.Equal(clock.t) {
		t.Fatalf("unexpected otp %+v", otp)
	}
	if len(m.sent) != 1 || m.sent[0].to != "alice@example.com" || m.sent[0].code != "123456" || m.sent[0].ttl != DefaultOTPTTL {
		t.Fatalf("mail not sent as expected: %+v", m.sent)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newAccountService(t)
	register(t, svc, "alice")

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "p", Email: "a2@example.com"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("want ErrUsernameTaken, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, m, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "root", Password: "p", Email: "root@example.com", Role: domain.RoleAdmin})
	if msg := fieldError(t, err, "role"); msg != `"admin" is not a valid choice.` {
		t.Fatalf("role message = %q", msg)
	}

	_, err = svc.Register(ctx, RegisterInput{Username: "x", Password: "p", Email: "not-an-email"})
	fieldError(t, err, "email")

	_, err = svc.Register(ctx, RegisterInput{})
	for _, f := range []string{"username", "password", "email"} {
		if msg := fieldError(t, err, f); msg != "This field is required." {
			t.Fatalf("%s message = %q", f, msg)
		}
	}
	if len(m.sent) != 0 {
		t.Fatalf("no mail expected on validation failure")
	}
}

func TestRegister_MailFailureKeepsAccount(t *testing.T) {
	svc, m, _ := newAccountService(t)
	m.err = errors.New("smtp down")
	before := testutil.ToFloat64(observability.EmailsSent.WithLabelValues("failed"))

	u := register(t, svc, "carol")
	if ok, _ := repo.UserExists(context.Background(), svc.DB, u.ID); !ok {
		t.Fatalf("user must persist when mail fails")
	}
	if got := testutil.ToFloat64(observability.EmailsSent.WithLabelValues("failed")); got != before+1 {
		t.Fatalf("failed emails = %v; want %v", got, before+1)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()
	u := register(t, svc, "alice")

	res, err := svc.Login(ctx, "alice", "s3cret!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, role, err := svc.Tokens.Parse(res.Token)
	if err != nil || id != u.ID || role != domain.RoleClient {
		t.Fatalf("token parse = %d %q %v", id, role, err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "s3cret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestVerifyEmail_Flow(t *testing.T) {
	svc, _, clock := newAccountService(t)
	ctx := context.Background()
	u := register(t, svc, "alice")

	if _, err := svc.VerifyEmail(ctx, u.ID, "000000"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("wrong code: %v", err)
	}

	before := testutil.ToFloat64(observability.OTPVerifications.WithLabelValues("verified"))
	already, err := svc.VerifyEmail(ctx, u.ID, " 123456 ")
	if err != nil || already {
		t.Fatalf("verify = %v, %v", already, err)
	}
	if got := testutil.ToFloat64(observability.OTPVerifications.WithLabelValues("verified")); got != before+1 {
		t.Fatalf("verified counter = %v", got)
	}

	// Any code is accepted once verified, even after expiry.
	clock.t = clock.t.Add(time.Hour)
	already, err = svc.VerifyEmail(ctx, u.ID, "nope")
	if err != nil || !already {
		t.Fatalf("second verify = %v, %v", already, err)
	}
}

func TestVerifyEmail_ExpiredBeforeMismatch(t *testing.T) {
	svc, _, clock := newAccountService(t)
	ctx := context.Background()
	u := register(t, svc, "alice")

	clock.t = clock.t.Add(DefaultOTPTTL)
	if _, err := svc.VerifyEmail(ctx, u.ID, "123456"); err != nil {
		t.Fatalf("exactly at TTL must still verify: %v", err)
	}

	u2 := register(t, svc, "bob")
	clock.t = clock.t.Add(DefaultOTPTTL + time.Second)
	if _, err := svc.VerifyEmail(ctx, u2.ID, "999999"); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("want ErrOTPExpired, got %v", err)
	}
}

func TestVerifyEmail_NoOTP(t *testing.T) {
	svc, _, _ := newAccountService(t)
	if _, err := svc.VerifyEmail(context.Background(), 42, "123456"); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("want ErrOTPNotFound, got %v", err)
	}
}

func TestResendOTP(t *testing.T) {
	svc, m, clock := newAccountService(t)
	ctx := context.Background()
	u := register(t, svc, "alice")

	clock.t = clock.t.Add(30 * time.Minute)
	svc.NewCode = func() (string, error) { return "654321", nil }
	svc.OTPTTL = 5 * time.Minute
	if err := svc.ResendOTP(ctx, u.ID); err != nil {
		t.Fatalf("ResendOTP: %v", err)
	}
	otp, _ := repo.GetOTP(ctx, svc.DB, u.ID)
	if otp.Code != "654321" || !otp.CreatedAt.Equal(clock.t) {
		t.Fatalf("otp not refreshed: %+v", otp)
	}
	if len(m.sent) != 2 || m.sent[1].code != "654321" || m.sent[1].ttl != 5*time.Minute {
		t.Fatalf("resend mail: %+v", m.sent)
	}

	// The fresh code is valid again after the earlier one would have expired.
	if _, err := svc.VerifyEmail(ctx, u.ID, "654321"); err != nil {
		t.Fatalf("verify resent code: %v", err)
	}

	if err := svc.ResendOTP(ctx, 4242); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
}
