package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/birrflow/birrflow-backend/api/middleware"
	"github.com/birrflow/birrflow-backend/internal/accounts"
	"github.com/birrflow/birrflow-backend/internal/authz"
	"github.com/birrflow/birrflow-backend/pkg/db/models"
	"github.com/birrflow/birrflow-backend/pkg/enums"
	pkgerrors "github.com/birrflow/birrflow-backend/pkg/errors"
)

type stubAccountService struct {
	account *models.Account
	wallet  *models.Wallet
	err     error
}

func (s stubAccountService) Create(ctx context.Context, actor authz.Actor, input accounts.CreateAccountInput) (*models.Account, error) {
	return s.account, s.err
}

func (s stubAccountService) Get(ctx context.Context, actor authz.Actor, accountID uuid.UUID) (*models.Account, error) {
	return s.account, s.err
}

func (s stubAccountService) GetWallet(ctx context.Context, actor authz.Actor, accountID uuid.UUID) (*models.Wallet, error) {
	return s.wallet, s.err
}

func (s stubAccountService) SetActive(ctx context.Context, actor authz.Actor, accountID uuid.UUID, active bool) error {
	return s.err
}

func (s stubAccountService) Delete(ctx context.Context, actor authz.Actor, accountID uuid.UUID) error {
	return s.err
}

func authedRequest(t *testing.T, method, target string, body []byte, role enums.AccountRole) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithAccountID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestAccountCreateSuccess(t *testing.T) {
	created := &models.Account{
		ID:       uuid.New(),
		Name:     "Abebe Bikila",
		Email:    "abebe@example.com",
		Role:     enums.AccountRoleMember,
		IsActive: true,
	}
	handler := AccountCreate(stubAccountService{account: created}, nil)

	body := []byte(`{"name":"Abebe Bikila","email":"abebe@example.com","password":"Secret#123","role":"member"}`)
	req := authedRequest(t, http.MethodPost, "/api/v1/accounts", body, enums.AccountRoleManager)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Data accounts.AccountResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Email != created.Email {
		t.Fatalf("expected created account in payload got %+v", envelope.Data)
	}
}

func TestAccountCreateRequiresAuth(t *testing.T) {
	handler := AccountCreate(stubAccountService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader([]byte(`{}`)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAccountCreateForbiddenPassesThrough(t *testing.T) {
	handler := AccountCreate(stubAccountService{err: pkgerrors.New(pkgerrors.CodeForbidden, "role cannot create accounts")}, nil)
	body := []byte(`{"name":"Someone","email":"someone@example.com","password":"Secret#123","role":"member"}`)
	req := authedRequest(t, http.MethodPost, "/api/v1/accounts", body, enums.AccountRoleMember)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAccountGetRejectsBadID(t *testing.T) {
	handler := AccountGet(stubAccountService{}, nil)
	req := authedRequest(t, http.MethodGet, "/api/v1/accounts/not-a-uuid", nil, enums.AccountRoleRoot)
	req = withURLParam(req, "id", "not-a-uuid")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAccountSetActiveRequiresFlag(t *testing.T) {
	handler := AccountSetActive(stubAccountService{}, nil)
	req := authedRequest(t, http.MethodPatch, "/api/v1/accounts/"+uuid.NewString()+"/active", []byte(`{}`), enums.AccountRoleRoot)
	req = withURLParam(req, "id", uuid.NewString())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAccountDeleteSuccess(t *testing.T) {
	handler := AccountDelete(stubAccountService{}, nil)
	id := uuid.NewString()
	req := authedRequest(t, http.MethodDelete, "/api/v1/accounts/"+id, nil, enums.AccountRoleRoot)
	req = withURLParam(req, "id", id)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Deleted bool `json:"deleted"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Deleted {
		t.Fatalf("expected deleted ack got %+v", envelope.Data)
	}
}
