package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"surihub-timeclock-svc/src/internal/cache"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/station"
	"surihub-timeclock-svc/src/internal/vehicle"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVehicles struct {
	mock.Mock
}

func (m *mockVehicles) ListActive(ctx context.Context) ([]*vehicle.Vehicle, error) {
	args := m.Called(ctx)
	vehicles, _ := args.Get(0).([]*vehicle.Vehicle)
	return vehicles, args.Error(1)
}

type mockStations struct {
	mock.Mock
}

func (m *mockStations) ListActive(ctx context.Context) ([]*station.Station, error) {
	args := m.Called(ctx)
	stations, _ := args.Get(0).([]*station.Station)
	return stations, args.Error(1)
}

func newTestService(t *testing.T) (*Service, *mockVehicles, *mockStations, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Configuration{Cache: config.CacheConfig{CatalogExpirationMinutes: 10}}
	vehicles := &mockVehicles{}
	stations := &mockStations{}
	return NewCatalogService(vehicles, stations, cache.NewCacheService(client, cfg)), vehicles, stations, server
}

func TestVehiclesAreCached(t *testing.T) {
	svc, vehicles, _, server := newTestService(t)
	vehicles.On("ListActive", mock.Anything).Return([]*vehicle.Vehicle{
		{ID: "v1", Make: "Toyota", Model: "Probox", RegistrationNumber: "KDA 123A", Status: vehicle.StatusActive},
	}, nil).Once()

	first, err := svc.ListActiveVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "KDA 123A", first[0].RegistrationNumber)
	assert.Equal(t, 10*time.Minute, server.TTL("catalog:vehicles"))

	second, err := svc.ListActiveVehicles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	vehicles.AssertNumberOfCalls(t, "ListActive", 1)
}

func TestStationsReadThroughAfterInvalidation(t *testing.T) {
	svc, _, stations, server := newTestService(t)
	stations.On("ListActive", mock.Anything).Return([]*station.Station{
		{ID: "s1", Name: "Sankara Nairobi", Address: "Nairobi, Kenya", IsActive: true},
	}, nil)

	_, err := svc.ListActiveStations(context.Background())
	require.NoError(t, err)
	server.Del("catalog:stations")

	got, err := svc.ListActiveStations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sankara Nairobi", got[0].Name)
	stations.AssertNumberOfCalls(t, "ListActive", 2)
}

func TestCacheOutageFallsBackToDatabase(t *testing.T) {
	svc, vehicles, _, server := newTestService(t)
	vehicles.On("ListActive", mock.Anything).Return([]*vehicle.Vehicle{{ID: "v1"}}, nil)
	server.Close()

	got, err := svc.ListActiveVehicles(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestHandlerReportsLookupFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, vehicles, stations, _ := newTestService(t)
	vehicles.On("ListActive", mock.Anything).Return(nil, errors.New("mongo down"))
	stations.On("ListActive", mock.Anything).Return([]*station.Station{}, nil)

	h := NewHandler(&config.Configuration{App: config.Application{Timeout: 5}}, svc)
	router := gin.New()
	router.GET("/vehicles", h.Vehicles)
	router.GET("/stations", h.Stations)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vehicles", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"retryable":true`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stations", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}
