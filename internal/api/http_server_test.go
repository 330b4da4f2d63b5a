package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/export"
	"shareit/internal/repository"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testClient struct {
	t  *testing.T
	ts *httptest.Server
}

func newTestServer(t *testing.T, cfg config.APIConfig) *testClient {
	t.Helper()
	logger := zerolog.New(io.Discard)
	store := repository.NewMemoryStore()

	svc := Services{
		Users:    service.NewUserService(store, &logger),
		Items:    service.NewItemService(store, &logger),
		Bookings: service.NewBookingService(store, nil, &logger),
		Requests: service.NewRequestService(store, &logger),
	}
	server := NewHTTPServer(cfg, 10, svc, &logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return &testClient{t: t, ts: ts}
}

// do sends a request; userID 0 omits the identity header.
func (c *testClient) do(method, path string, userID int64, body any) (*http.Response, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.ts.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(UserIDHeader, fmt.Sprint(userID))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func (c *testClient) decode(data []byte, v any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(data, v), string(data))
}

func (c *testClient) createUser(name string) int64 {
	c.t.Helper()
	resp, data := c.do(http.MethodPost, "/users", 0, map[string]string{"name": name, "email": name + "@example.com"})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, string(data))
	var u userDTO
	c.decode(data, &u)
	return u.ID
}

func (c *testClient) createItem(owner int64, name string) int64 {
	c.t.Helper()
	resp, data := c.do(http.MethodPost, "/items", owner, map[string]any{
		"name": name, "description": name + " for rent", "available": true,
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, string(data))
	var item itemDTO
	c.decode(data, &item)
	return item.ID
}

func bookingBody(itemID int64, start, end time.Time) map[string]any {
	return map[string]any{"itemId": itemID, "start": start.Format(time.RFC3339), "end": end.Format(time.RFC3339)}
}

func errorMessage(t *testing.T, data []byte) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return body["error"]
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	c := newTestServer(t, config.APIConfig{})
	owner := c.createUser("owner")
	booker := c.createUser("booker")
	other := c.createUser("other")
	item := c.createItem(owner, "Drill")

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	end := start.Add(2 * time.Hour)

	resp, data := c.do(http.MethodPost, "/bookings", booker, bookingBody(item, start, end))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var booking bookingDTO
	c.decode(data, &booking)
	assert.Equal(t, "WAITING", booking.Status)
	assert.Equal(t, booker, booking.Booker.ID)
	assert.Equal(t, "Drill", booking.Item.Name)
	assert.True(t, booking.Start.Equal(start))

	resp, data = c.do(http.MethodPost, "/bookings", other, bookingBody(item, start.Add(time.Hour), end.Add(time.Hour)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(data))

	resp, _ = c.do(http.MethodPost, "/bookings", owner, bookingBody(item, end.Add(time.Hour), end.Add(2*time.Hour)))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	path := fmt.Sprintf("/bookings/%d", booking.ID)
	resp, _ = c.do(http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = c.do(http.MethodPatch, path+"?approved=true", booker, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data = c.do(http.MethodPatch, path+"?approved=true", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	c.decode(data, &booking)
	assert.Equal(t, "APPROVED", booking.Status)

	resp, _ = c.do(http.MethodPatch, path+"?approved=false", owner, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = c.do(http.MethodPatch, path+"?approved=maybe", owner, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = c.do(http.MethodPatch, path+"?approved=1", owner, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "approved must be true or false")

	resp, data = c.do(http.MethodGet, "/bookings?state=future", booker, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []bookingDTO
	c.decode(data, &list)
	require.Len(t, list, 1)
	assert.Equal(t, booking.ID, list[0].ID)

	resp, data = c.do(http.MethodGet, "/bookings/owner?state=PAST", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.decode(data, &list)
	assert.Empty(t, list)
}

func TestListBookingsErrors(t *testing.T) {
	c := newTestServer(t, config.APIConfig{})
	user := c.createUser("ann")

	resp, data := c.do(http.MethodGet, "/bookings?state=BOGUS", 999, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown state: BOGUS", errorMessage(t, data))

	resp, _ = c.do(http.MethodGet, "/bookings/owner", 999, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/bookings", 0, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/bookings?from=-1", user, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/bookings?size=0", user, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/bookings/abc", user, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsersOverHTTP(t *testing.T) {
	c := newTestServer(t, config.APIConfig{})
	id := c.createUser("ann")

	resp, _ := c.do(http.MethodPost, "/users", 0, map[string]string{"name": "dup", "email": "ann@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = c.do(http.MethodPost, "/users", 0, map[string]any{"name": "x", "unknown": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data := c.do(http.MethodPatch, fmt.Sprintf("/users/%d", id), 0, map[string]string{"name": "anna"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u userDTO
	c.decode(data, &u)
	assert.Equal(t, "anna", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)

	resp, _ = c.do(http.MethodDelete, fmt.Sprintf("/users/%d", id), 0, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = c.do(http.MethodGet, fmt.Sprintf("/users/%d", id), 0, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestItemsAndRequestsOverHTTP(t *testing.T) {
	c := newTestServer(t, config.APIConfig{})
	owner := c.createUser("owner")
	asker := c.createUser("asker")

	resp, data := c.do(http.MethodPost, "/requests", asker, map[string]string{"description": "need a ladder"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var req requestDTO
	c.decode(data, &req)

	resp, data = c.do(http.MethodPost, "/items", owner, map[string]any{
		"name": "Ladder", "description": "3m", "available": true, "requestId": req.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var item itemDTO
	c.decode(data, &item)
	require.NotNil(t, item.RequestID)
	assert.Equal(t, req.ID, *item.RequestID)

	resp, _ = c.do(http.MethodPost, "/items", owner, map[string]any{"name": "Rope", "description": "10m"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = c.do(http.MethodGet, fmt.Sprintf("/requests/%d", req.ID), owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.decode(data, &req)
	require.Len(t, req.Items, 1)
	assert.Equal(t, item.ID, req.Items[0].ID)

	resp, data = c.do(http.MethodGet, "/requests/all", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []requestDTO
	c.decode(data, &all)
	assert.Len(t, all, 1)

	resp, data = c.do(http.MethodGet, "/items/search?text=LADD", asker, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found []itemDTO
	c.decode(data, &found)
	assert.Len(t, found, 1)

	resp, data = c.do(http.MethodGet, "/items", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var owned []itemDetailsDTO
	c.decode(data, &owned)
	require.Len(t, owned, 1)
	assert.Nil(t, owned[0].LastBooking)
	assert.NotNil(t, owned[0].Comments)

	resp, _ = c.do(http.MethodPatch, fmt.Sprintf("/items/%d", item.ID), asker, map[string]any{"available": false})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data = c.do(http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), asker, map[string]string{"text": "nice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(data))
}

func TestExportOwnerBookings(t *testing.T) {
	c := newTestServer(t, config.APIConfig{})
	owner := c.createUser("owner")
	booker := c.createUser("booker")
	item := c.createItem(owner, "Kayak")

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	resp, data := c.do(http.MethodPost, "/bookings", booker, bookingBody(item, start, start.Add(time.Hour)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	resp, data = c.do(http.MethodGet, "/bookings/owner/export?state=WAITING", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Disposition"), "attachment"))

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kayak", rows[1][1])
}

func TestRateLimit(t *testing.T) {
	c := newTestServer(t, config.APIConfig{RateLimit: config.APIRateLimitConfig{RPS: 0.001, Burst: 2}})

	for i := 0; i < 2; i++ {
		resp, _ := c.do(http.MethodGet, "/users", 7, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := c.do(http.MethodGet, "/users", 7, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/users", 8, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDPropagation(t *testing.T) {
	c := newTestServer(t, config.APIConfig{})

	req, err := http.NewRequest(http.MethodGet, c.ts.URL+"/users", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))

	resp, _ = c.do(http.MethodGet, "/users", 0, nil)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}
