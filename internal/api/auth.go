package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"medeasy/pos/domain"
	"medeasy/pos/internal/logger"
)

type ctxKey string

const ctxTenantID ctxKey = "tenantID"

// TenantStore is the Tenant Directory used by registration and login.
type TenantStore interface {
	CreateTenant(ctx context.Context, t *domain.Tenant) error
	TenantByEmail(ctx context.Context, email string) (domain.Tenant, error)
}

type authClaims struct {
	TenantID  int64  `json:"tenant_id"`
	StoreName string `json:"store_name"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(t domain.Tenant) (string, error) {
	now := time.Now()
	claims := authClaims{
		TenantID:  t.ID,
		StoreName: t.StoreName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.Secret))
}

// authMiddleware resolves the bearer token to a tenant id. Every protected
// handler reads the tenant from the request context and nowhere else.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, r, domain.Unauthorized("missing bearer token"))
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, r, domain.Unauthorized("invalid token"))
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || claims.TenantID <= 0 {
			respondError(w, r, domain.Unauthorized("invalid token claims"))
			return
		}

		ctx := context.WithValue(r.Context(), ctxTenantID, claims.TenantID)
		ctx = logger.WithContext(ctx, logger.FromContextOr(ctx, h.log).With(zap.Int64("tenant_id", claims.TenantID)))
		if state, ok := ctx.Value(stateKey{}).(*requestState); ok {
			state.tenantID = claims.TenantID
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tenantID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxTenantID).(int64)
	return id
}

type registerRequest struct {
	StoreName string `json:"storeName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, r, err)
		return
	}
	tenant := domain.Tenant{
		StoreName:    strings.TrimSpace(req.StoreName),
		Email:        req.Email,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.tenants.CreateTenant(r.Context(), &tenant); err != nil {
		respondError(w, r, err)
		return
	}

	logger.FromContextOr(r.Context(), h.log).Info("store registered", zap.Int64("tenant_id", tenant.ID))
	respondJSON(w, http.StatusCreated, map[string]any{
		"message":   "Registration successful",
		"id":        tenant.ID,
		"storeName": tenant.StoreName,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	StoreName string `json:"storeName"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	tenant, err := h.tenants.TenantByEmail(r.Context(), req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, r, domain.Unauthorized("invalid credentials"))
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, r, domain.Unauthorized("invalid credentials"))
		return
	}

	token, err := h.generateToken(tenant)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: token, StoreName: tenant.StoreName})
}
