package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storecount/go-footfall-client/gateway"
	"github.com/storecount/go-footfall-client/session"
	"github.com/storecount/go-footfall-client/session/storagefake"
	"github.com/storecount/go-footfall-client/stores"
)

const (
	testAccessToken  = "access-token-1"
	testRefreshToken = "refresh-token-1"
	testUserEmail    = "john.doe@example.com"
	testStoreName    = "Bahnhofstrasse"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// testFixture wires a gateway client to a fake backend through a real
// session store seeded with a valid token.
type testFixture struct {
	mux       *http.ServeMux
	server    *httptest.Server
	storage   *storagefake.FakeStorage
	sessions  *session.Store
	client    *gateway.Client
	hits      atomic.Int32
	redirects atomic.Int32
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{mux: http.NewServeMux(), storage: storagefake.NewFakeStorage()}
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)

	sessions, err := session.NewStore(f.storage, f.server.URL,
		session.WithNowTime(func() time.Time { return testNow }),
		session.WithRedirect(func() { f.redirects.Add(1) }),
	)
	require.NoError(t, err)
	f.sessions = sessions

	client, err := gateway.New(f.server.URL, sessions,
		gateway.WithNowTime(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	f.client = client

	f.seedValidSession(t)
	return f
}

func (f *testFixture) seedValidSession(t *testing.T) {
	t.Helper()
	expiry := strconv.FormatInt(testNow.Add(time.Hour).UnixMilli(), 10)
	for key, value := range map[string]string{
		session.KeyAccessToken:  testAccessToken,
		session.KeyRefreshToken: testRefreshToken,
		session.KeyExpiry:       expiry,
		session.KeyEmail:        testUserEmail,
	} {
		require.NoError(t, f.storage.Set(key, value))
	}
}

// handle registers a counted handler.
func (f *testFixture) handle(path string, handler http.HandlerFunc) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		handler(w, r)
	})
}

func (f *testFixture) stored(t *testing.T, key string) string {
	t.Helper()
	value, err := f.storage.Get(key)
	require.NoError(t, err)
	return value
}

func requestBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func writeJSON(w http.ResponseWriter, payload string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(payload))
}

func TestRequestsCarryBearerTokenAndRequestID(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/stores/by_user", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer "+testAccessToken, r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.Equal(t, testUserEmail, requestBody(t, r)["email"])
		writeJSON(w, `{"stores":[]}`)
	})

	list, err := f.client.FetchStores(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
	require.EqualValues(t, 1, f.hits.Load())
}

func TestFetchStoresParsesStoreList(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/stores/by_user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"stores":[{"name":"B","cameras":[]},{"name":"A","cameras":[{"id":"cam-1"}]}]}`)
	})

	list, err := f.client.FetchStores(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "B", list[0].Name)
	require.False(t, list[0].Active())
	require.True(t, list[1].Active())
}

func TestMissingIdentityFailsWithoutNetworkCall(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.storage.Clear())
	f.seedValidSession(t)
	require.NoError(t, f.storage.Set(session.KeyEmail, ""))

	_, err := f.client.FetchStores(context.Background())
	classified, ok := gateway.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, gateway.KindError, classified.Kind)
	require.EqualValues(t, 0, f.hits.Load())
}

func TestRevokedTokenForcesLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/users", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Token revoked: refresh token no longer valid", http.StatusUnauthorized)
	})

	_, err := f.client.UpdateUser(context.Background(), gateway.UpdateUserParams{
		Password:    ptr("new-password"),
		OldPassword: ptr("old-password"),
	})

	classified, ok := gateway.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, gateway.KindError, classified.Kind)
	require.EqualValues(t, 1, f.redirects.Load())
	require.Empty(t, f.stored(t, session.KeyAccessToken))
	require.Empty(t, f.stored(t, session.KeyRefreshToken))
}

func TestOrdinary401KeepsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/stores/by_user", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})

	_, err := f.client.FetchStores(context.Background())
	require.Error(t, err)
	require.EqualValues(t, 0, f.redirects.Load())
	require.Equal(t, testAccessToken, f.stored(t, session.KeyAccessToken))
}

func TestRevocationMatchIsCaseSensitive(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/stores/by_user", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token revoked", http.StatusUnauthorized)
	})

	_, err := f.client.FetchStores(context.Background())
	require.Error(t, err)
	require.EqualValues(t, 0, f.redirects.Load())
}

func TestFetchByPeriodSumsAndSortsDailyTotals(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/store_data/period", func(w http.ResponseWriter, r *http.Request) {
		body := requestBody(t, r)
		require.Equal(t, testStoreName, body["store"])
		require.Equal(t, "2024-01-01", body["start"])
		require.Equal(t, "2024-01-02", body["end"])
		writeJSON(w, `{"2024-01-02":[{"enterCount":2}],"2024-01-01":[{"enterCount":"3"},{"enterCount":"5"}]}`)
	})

	totals, err := f.client.FetchByPeriod(context.Background(), testStoreName, "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	require.Len(t, totals, 2)
	require.Equal(t, "2024-01-01", totals[0].Date)
	require.Equal(t, 8, totals[0].Total)
	require.Equal(t, "2024-01-02", totals[1].Date)
	require.Equal(t, 2, totals[1].Total)
}

func TestFetchByDayValidationFailsFast(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.client.FetchByDay(context.Background(), "", "")
	classified, ok := gateway.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, gateway.KindWarning, classified.Kind)
	require.EqualValues(t, 0, f.hits.Load())
}

func TestFetchTodayPicksFirstStoreWithCameras(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/store_data/day", func(w http.ResponseWriter, r *http.Request) {
		body := requestBody(t, r)
		require.Equal(t, "A", body["store"])
		require.Equal(t, "2024-05-01", body["day"])
		writeJSON(w, `{"2024-05-01":[]}`)
	})

	candidates := []stores.Store{
		{Name: "B"},
		{Name: "A", Cameras: []json.RawMessage{json.RawMessage(`1`)}},
	}
	data, name, err := f.client.FetchToday(context.Background(), candidates)
	require.NoError(t, err)
	require.Equal(t, "A", name)
	require.Contains(t, data, "2024-05-01")
}

func TestFetchTodayWithoutStoresWarns(t *testing.T) {
	f := setupTestFixture(t)

	_, _, err := f.client.FetchToday(context.Background(), nil)
	classified, ok := gateway.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, gateway.KindWarning, classified.Kind)
	require.EqualValues(t, 0, f.hits.Load())
}

func TestFetchTodayWithoutCamerasWarns(t *testing.T) {
	f := setupTestFixture(t)

	_, _, err := f.client.FetchToday(context.Background(), []stores.Store{{Name: "B"}})
	classified, ok := gateway.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, gateway.KindWarning, classified.Kind)
}

func TestFetchByTimeDefaultsToWholeDay(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/store_data/time", func(w http.ResponseWriter, r *http.Request) {
		body := requestBody(t, r)
		require.Equal(t, "00:00", body["startTime"])
		require.Equal(t, "23:59", body["endTime"])
		writeJSON(w, `{}`)
	})

	data, err := f.client.FetchByTime(context.Background(), testStoreName, "2024-05-01", "", "")
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestFetchByDaysTimeSendsDayList(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/store_data/days_time", func(w http.ResponseWriter, r *http.Request) {
		body := requestBody(t, r)
		require.Equal(t, []any{"2024-05-01", "2024-05-02"}, body["days"])
		writeJSON(w, `{"2024-05-01":[],"2024-05-02":[]}`)
	})

	data, err := f.client.FetchByDaysTime(context.Background(), testStoreName, []string{"2024-05-01", "2024-05-02"}, "08:00", "18:00")
	require.NoError(t, err)
	require.Len(t, data, 2)
}

func TestVerifyPincodeEstablishesSession(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.storage.Clear())
	f.handle("/verify_pincode", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		body := requestBody(t, r)
		require.Equal(t, testUserEmail, body["email"])
		require.Equal(t, "123456", body["pincode"])
		writeJSON(w, `{"access_token":"fresh-access","refresh_token":"fresh-refresh","access_expires_in":900}`)
	})

	creds, err := f.client.VerifyPincode(context.Background(), testUserEmail, "123456")
	require.NoError(t, err)
	require.Equal(t, "fresh-access", creds.AccessToken)

	require.Equal(t, "fresh-access", f.stored(t, session.KeyAccessToken))
	require.Equal(t, "fresh-refresh", f.stored(t, session.KeyRefreshToken))
	require.Equal(t, testUserEmail, f.stored(t, session.KeyEmail))
	expected := strconv.FormatInt(testNow.Add(900*time.Second).UnixMilli(), 10)
	require.Equal(t, expected, f.stored(t, session.KeyExpiry))
}

func TestRequestPincodeFailurePropagatesStatus(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/user_login", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	})

	err := f.client.RequestPincode(context.Background(), testUserEmail, "wrong")
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP 401")
	require.EqualValues(t, 0, f.redirects.Load())
}

func TestDeleteUserClearsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/users", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		body := requestBody(t, r)
		require.Equal(t, testUserEmail, body["email"])
		require.Equal(t, true, body["force"])
		writeJSON(w, `{"deleted":true}`)
	})

	ack, err := f.client.DeleteUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, true, ack["deleted"])
	require.Empty(t, f.stored(t, session.KeyAccessToken))
	require.EqualValues(t, 1, f.redirects.Load())
}

func TestUpdateEmailInvalidatesSession(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/users", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		body := requestBody(t, r)
		require.Equal(t, "new@example.com", body["new_email"])
		require.Equal(t, testUserEmail, body["email"])
		writeJSON(w, `{"email":"new@example.com"}`)
	})

	_, err := f.client.UpdateUser(context.Background(), gateway.UpdateUserParams{NewEmail: ptr("new@example.com")})
	require.NoError(t, err)
	require.Empty(t, f.stored(t, session.KeyAccessToken))
	require.EqualValues(t, 1, f.redirects.Load())
}

func TestUpdatePasswordKeepsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.handle("/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"email":"`+testUserEmail+`"}`)
	})

	_, err := f.client.UpdateUser(context.Background(), gateway.UpdateUserParams{
		Password:    ptr("new-password"),
		OldPassword: ptr("old-password"),
	})
	require.NoError(t, err)
	require.Equal(t, testAccessToken, f.stored(t, session.KeyAccessToken))
	require.EqualValues(t, 0, f.redirects.Load())
}

func ptr(s string) *string {
	return &s
}
