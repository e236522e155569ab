package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/okvist/punchcard/internal/auth"
)

var testSecret = []byte("middleware-test-secret")

func mintToken(t *testing.T, secret []byte, employeeID, employerID int64, role string) string {
	t.Helper()
	claims := Claims{
		EmployeeID: employeeID,
		EmployerID: employerID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func identityEcho(t *testing.T, got *auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			t.Error("identity missing from context")
		}
		*got = id
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthValidToken(t *testing.T) {
	var got auth.Identity
	handler := RequireAuth(testSecret)(identityEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/api/attendance", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, 42, 7, auth.RoleEmployee))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.EmployeeID != 42 || got.EmployerID != 7 || got.Role != auth.RoleEmployee {
		t.Errorf("identity = %+v, want 42/7/employee", got)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	expired := func() string {
		claims := Claims{
			EmployeeID: 42, EmployerID: 7, Role: auth.RoleEmployee,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return raw
	}()

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + mintToken(t, []byte("other-secret"), 42, 7, auth.RoleEmployee)},
		{"unknown role", "Bearer " + mintToken(t, testSecret, 42, 7, "superadmin")},
		{"expired", "Bearer " + expired},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/attendance", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireEmployer(t *testing.T) {
	ran := false
	handler := RequireEmployer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/qr", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{EmployeeID: 1, EmployerID: 7, Role: auth.RoleEmployee}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("employee status = %d, want 403", rec.Code)
	}
	if ran {
		t.Fatal("handler ran for employee role")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/qr", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{EmployeeID: 0, EmployerID: 7, Role: auth.RoleEmployer}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("employer status = %d, want 200", rec.Code)
	}
	if !ran {
		t.Fatal("handler did not run for employer role")
	}
}
