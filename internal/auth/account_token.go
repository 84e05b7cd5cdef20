package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clivefinesse/jobtracker/internal/models"
)

// DefaultAccountTokenExpiry is the window during which a verification or
// password-reset link remains redeemable.
const DefaultAccountTokenExpiry = 72 * time.Hour

// AccountTokenConfig bundles the settings for the AccountTokenService.
type AccountTokenConfig struct {
	Secret string
	Expiry time.Duration
	Clock  func() time.Time
}

// AccountTokenService mints single-purpose tokens bound to the current state
// of a user account. The HMAC covers the password hash, the verified flag and
// the last login time, so any of those changing invalidates every token issued
// before the change. Tokens are time-windowed rather than stored.
type AccountTokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewAccountTokenService builds an account token service from configuration.
func NewAccountTokenService(cfg AccountTokenConfig) (*AccountTokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("account token: secret must be provided")
	}

	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = DefaultAccountTokenExpiry
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &AccountTokenService{
		secret: []byte(cfg.Secret),
		expiry: expiry,
		now:    now,
	}, nil
}

// Make returns a fresh token for the supplied user.
func (s *AccountTokenService) Make(user *models.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("account token: user is required")
	}

	ts := s.now().Unix()
	return fmt.Sprintf("%s-%s", strconv.FormatInt(ts, 36), s.signature(user, ts)), nil
}

// Check reports whether the token is authentic, unexpired, and still bound to
// the user's current state.
func (s *AccountTokenService) Check(user *models.User, token string) bool {
	if user == nil || user.ID == "" {
		return false
	}

	tsPart, sigPart, ok := strings.Cut(strings.TrimSpace(token), "-")
	if !ok {
		return false
	}

	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}

	now := s.now()
	if ts > now.Unix() || now.Unix()-ts > int64(s.expiry.Seconds()) {
		return false
	}

	expected := s.signature(user, ts)
	return hmac.Equal([]byte(expected), []byte(sigPart))
}

func (s *AccountTokenService) signature(user *models.User, ts int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(user.ID))
	mac.Write([]byte{0})
	mac.Write(stateHash(user))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// stateHash digests the mutable account fields a token must be bound to.
func stateHash(user *models.User) []byte {
	lastLogin := ""
	if user.LastLoginAt != nil {
		lastLogin = user.LastLoginAt.UTC().Format(time.RFC3339Nano)
	}

	digest := sha256.Sum256([]byte(strings.Join([]string{
		user.Password,
		strconv.FormatBool(user.EmailVerified),
		lastLogin,
	}, "|")))
	return digest[:]
}

// EncodeUID encodes a user identifier for inclusion in emailed links.
func EncodeUID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		// Links generated elsewhere may use padded encoding.
		raw, err = base64.URLEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			return "", fmt.Errorf("account token: decode uid: %w", err)
		}
	}
	if len(raw) == 0 {
		return "", errors.New("account token: empty uid")
	}
	return string(raw), nil
}
