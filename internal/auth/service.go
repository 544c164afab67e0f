package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/jorisv/dienst-catalogus/internal/models"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidCreds = errors.New("invalid credentials")
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Service struct {
	db        *pgxpool.Pool
	jwtSecret []byte
}

// NewService wires the auth service. When secret is empty an ephemeral one is
// generated, which invalidates tokens across restarts.
func NewService(db *pgxpool.Pool, secret string) (*Service, error) {
	key := []byte(secret)
	if len(key) == 0 {
		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate JWT fallback secret: %w", err)
		}
		key = []byte(base64.RawURLEncoding.EncodeToString(buf))
		log.Print("JWT_SECRET is not set; using ephemeral in-memory fallback secret")
	}
	return &Service{db: db, jwtSecret: key}, nil
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", req.Email).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}

	var user User
	err = s.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, created_at
	`, req.Email, string(hash)).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert failed: %w", err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var user User
	err := s.db.QueryRow(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE email = $1", req.Email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrInvalidCreds
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCreds
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) generateToken(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// Saved diensten

func (s *Service) SaveDienst(ctx context.Context, userID uuid.UUID, dienstID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO saved_diensten (user_id, dienst_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, dienst_id) DO NOTHING
	`, userID, dienstID)
	return err
}

func (s *Service) UnsaveDienst(ctx context.Context, userID uuid.UUID, dienstID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM saved_diensten
		WHERE user_id = $1 AND dienst_id = $2
	`, userID, dienstID)
	return err
}

func (s *Service) GetSavedDiensten(ctx context.Context, userID uuid.UUID) ([]models.Dienst, error) {
	rows, err := s.db.Query(ctx, `
		SELECT d.id, d.naam, COALESCE(d.type, ''), COALESCE(d.omschrijving, ''),
		       d.themas, COALESCE(d.gemeente, ''), d.laatste_wijzigingsdatum
		FROM diensten d
		JOIN saved_diensten sd ON d.id = sd.dienst_id
		WHERE sd.user_id = $1
		ORDER BY sd.saved_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diensten []models.Dienst
	for rows.Next() {
		var d models.Dienst
		var lastModified *time.Time
		err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Description, &d.Themes, &d.Municipality, &lastModified)
		if err != nil {
			return nil, err
		}
		if lastModified != nil {
			d.LastModified = lastModified.Format("2006-01-02")
		}
		diensten = append(diensten, d)
	}
	return diensten, rows.Err()
}
