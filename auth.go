package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour // 7 days
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

// bcryptCost is a var so tests can hash quickly
var bcryptCost = 12

// Auth handles accounts and tokens. Its errors are safe to show to users.
type Auth struct {
	db        *DB
	jwtSecret []byte

	// login limiters per IP
	rateMu   sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewAuth creates a new Auth handler
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:        db,
		jwtSecret: loadOrCreateSecret(db),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			Log.WithError(err).Warn("could not persist JWT secret")
		}
	}
	return secret
}

// Register creates a new account and returns its id and a token
func (a *Auth) Register(username, password string) (PlayerID, string, error) {
	username = strings.TrimSpace(username)

	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return 0, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		Log.WithError(err).Error("username lookup failed")
		return 0, "", errors.New("database error")
	}
	if exists {
		return 0, "", errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, "", errors.New("internal error")
	}

	id, err := a.db.CreateAccount(username, string(hash))
	if err != nil {
		Log.WithError(err).WithField("username", username).Error("account creation failed")
		return 0, "", errors.New("failed to create account")
	}

	token, err := a.generateToken(PlayerID(id), username)
	if err != nil {
		return 0, "", errors.New("internal error")
	}
	Log.WithFields(logrus.Fields{"player": id, "username": username}).Info("account registered")
	return PlayerID(id), token, nil
}

// Login authenticates a user and returns a JWT
func (a *Auth) Login(username, password, ip string) (PlayerID, string, error) {
	if !a.allowLogin(ip) {
		return 0, "", errors.New("too many login attempts, try again later")
	}

	acc, err := a.db.GetAccountByUsername(strings.TrimSpace(username))
	if err != nil {
		Log.WithError(err).Error("account lookup failed")
		return 0, "", errors.New("database error")
	}
	if acc == nil {
		return 0, "", errors.New("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PassHash), []byte(password)); err != nil {
		return 0, "", errors.New("invalid username or password")
	}

	token, err := a.generateToken(PlayerID(acc.ID), acc.Username)
	if err != nil {
		return 0, "", errors.New("internal error")
	}
	return PlayerID(acc.ID), token, nil
}

// ValidateToken validates a JWT and returns (playerID, username, error)
func (a *Auth) ValidateToken(tokenStr string) (PlayerID, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("%v: %w", err, ErrNotAuthenticated)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token: %w", ErrNotAuthenticated)
	}

	pidFloat, ok := claims["pid"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims: %w", ErrNotAuthenticated)
	}
	username, ok := claims["usr"].(string)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims: %w", ErrNotAuthenticated)
	}

	return PlayerID(pidFloat), username, nil
}

// Renew exchanges a valid token for a fresh one
func (a *Auth) Renew(tokenStr string) (string, error) {
	id, username, err := a.ValidateToken(tokenStr)
	if err != nil {
		return "", err
	}
	return a.generateToken(id, username)
}

func (a *Auth) generateToken(playerID PlayerID, username string) (string, error) {
	claims := jwt.MapClaims{
		"pid": int64(playerID),
		"usr": username,
		"exp": time.Now().Add(jwtExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// allowLogin spends one login attempt for ip
func (a *Auth) allowLogin(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	lim, ok := a.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Every(loginRateWindow/maxLoginAttempts), maxLoginAttempts)
		a.limiters[ip] = lim
	}
	return lim.Allow()
}

// bearerToken extracts the token from an "Authorization: Bearer" header value
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
