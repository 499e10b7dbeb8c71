package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/ledgerline/finance-services/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetUserService_Self(t *testing.T) {
	store := &MockStore{}
	svc, _ := newTestService(t, store)

	store.On("FindUserByUsername", "alice").Return(&models.User{Username: "alice", Email: "alice@example.com"}, nil)

	req := authedRequest(t, svc, http.MethodGet, "/users/alice", testAlice, nil)
	req = mux.SetURLVars(req, map[string]string{"username": "alice"})
	w := httptest.NewRecorder()

	GetUserService(svc, w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
}

func TestGetUserService_Admin(t *testing.T) {
	store := &MockStore{}
	svc, _ := newTestService(t, store)

	store.On("FindUserByUsername", "alice").Return(&models.User{Username: "alice"}, nil)

	req := authedRequest(t, svc, http.MethodGet, "/users/alice", testAdmin, nil)
	req = mux.SetURLVars(req, map[string]string{"username": "alice"})
	w := httptest.NewRecorder()

	GetUserService(svc, w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetUserService_OtherUserRejected(t *testing.T) {
	store := &MockStore{}
	svc, _ := newTestService(t, store)

	req := authedRequest(t, svc, http.MethodGet, "/users/bob", testAlice, nil)
	req = mux.SetURLVars(req, map[string]string{"username": "bob"})
	w := httptest.NewRecorder()

	GetUserService(svc, w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	store.AssertNotCalled(t, "FindUserByUsername", "bob")
}

func TestGetUserService_ExpiredAccessRefreshes(t *testing.T) {
	store := &MockStore{}
	svc, _ := newTestService(t, store)

	store.On("FindUserByUsername", "alice").Return(&models.User{Username: "alice"}, nil)

	// Expired access token with a live refresh token: the request still
	// succeeds and a fresh access cookie comes back
	expired, err := svc.Codec.Encode(testAlice, -time.Minute)
	assert.NoError(t, err)

	req := authedRequest(t, svc, http.MethodGet, "/users/alice", testAlice, nil)
	req = req.WithContext(withAccessToken(req.Context(), expired))
	req = mux.SetURLVars(req, map[string]string{"username": "alice"})
	w := httptest.NewRecorder()

	GetUserService(svc, w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, "accessToken", cookies[0].Name)

	p, err := svc.Codec.Decode(cookies[0].Value)
	assert.NoError(t, err)
	assert.Equal(t, testAlice, p)
}

func TestDeleteUserService_Cascade(t *testing.T) {
	store := &MockStore{}
	svc, publisher := newTestService(t, store)

	household := &models.Group{Name: "household", Members: []models.GroupMember{
		{Email: "alice@example.com"},
		{Email: "bob@example.com"},
	}}

	store.On("FindUserByUsername", "alice").Return(&models.User{
		Username: "alice", Email: "alice@example.com", Role: models.RoleRegular,
	}, nil)
	store.On("DeleteTransactionsByUsername", "alice").Return(4, nil)
	store.On("FindGroupContainingEmail", "alice@example.com").Return(household, nil)
	store.On("UpdateGroupMembers", "household", mock.Anything).Return(nil)
	store.On("DeleteUser", "alice").Return(nil)
	publisher.On("Publish", mock.Anything).Return(nil)

	req := authedRequest(t, svc, http.MethodDelete, "/users/alice", testAlice, nil)
	req = mux.SetURLVars(req, map[string]string{"username": "alice"})
	w := httptest.NewRecorder()

	DeleteUserService(svc, w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deletedTransactions":4`)
	assert.Contains(t, w.Body.String(), `"deletedFromGroup":true`)
	store.AssertExpectations(t)
}

func TestDeleteUserService_AdminAccountRejected(t *testing.T) {
	store := &MockStore{}
	svc, _ := newTestService(t, store)

	store.On("FindUserByUsername", "root").Return(&models.User{
		Username: "root", Email: "root@example.com", Role: models.RoleAdmin,
	}, nil)

	req := authedRequest(t, svc, http.MethodDelete, "/users/root", testAdmin, nil)
	req = mux.SetURLVars(req, map[string]string{"username": "root"})
	w := httptest.NewRecorder()

	DeleteUserService(svc, w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	store.AssertNotCalled(t, "DeleteUser", "root")
}
