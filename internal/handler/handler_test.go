package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MKWcorp/berkomunitas-sub005/internal/config"
	"github.com/MKWcorp/berkomunitas-sub005/internal/handler"
	"github.com/MKWcorp/berkomunitas-sub005/internal/models"
	"github.com/MKWcorp/berkomunitas-sub005/internal/repository"
	"github.com/MKWcorp/berkomunitas-sub005/internal/scheduler"
	"github.com/MKWcorp/berkomunitas-sub005/internal/service"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.AwardService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Member{},
		&models.LoyaltyPointHistory{},
		&models.CoinHistory{},
		&models.TransactionLog{},
		&models.EventSetting{},
	))

	memberRepo := repository.NewMemberRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	logRepo := repository.NewTransactionLogRepository(db)
	eventRepo := repository.NewEventRepository(db)

	awardSvc := service.NewAwardService(db, memberRepo, historyRepo, logRepo, eventRepo,
		&config.PointsConfig{DefaultBoostPercent: 200})
	reconcileSvc := service.NewReconcileService(db, memberRepo, historyRepo, logRepo, 50)
	sched := scheduler.NewReconcileScheduler(reconcileSvc, "@hourly")

	server := httptest.NewServer(handler.New(awardSvc, reconcileSvc, sched).Router())
	t.Cleanup(server.Close)
	return server, awardSvc
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func registerMember(t *testing.T, serverURL string) uint {
	resp := postJSON(t, serverURL+"/api/members", map[string]string{"display_name": "Handler Test"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var member models.Member
	decodeBody(t, resp, &member)
	require.NotZero(t, member.ID)
	return member.ID
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAwardRedeemRoundTrip(t *testing.T) {
	server, _ := newTestServer(t)
	memberID := registerMember(t, server.URL)

	resp := postJSON(t, server.URL+"/api/points/award", map[string]interface{}{
		"member_id":   memberID,
		"base_points": 40,
		"event":       "task done",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var award service.AwardResult
	decodeBody(t, resp, &award)
	assert.Equal(t, int64(40), award.NewLoyalty)
	assert.Equal(t, int64(40), award.NewCoin)

	resp = postJSON(t, server.URL+"/api/points/redeem", map[string]interface{}{
		"member_id":        memberID,
		"cost":             25,
		"reward_reference": "reward-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var redeem service.RedeemResult
	decodeBody(t, resp, &redeem)
	assert.Equal(t, int64(15), redeem.NewCoin)
	assert.Equal(t, int64(40), redeem.NewLoyalty)

	resp, err := http.Get(fmt.Sprintf("%s/api/members/%d/balance", server.URL, memberID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var member models.Member
	decodeBody(t, resp, &member)
	assert.Equal(t, int64(40), member.LoyaltyPoint)
	assert.Equal(t, int64(15), member.Coin)
}

func TestAwardIdempotencyHeader(t *testing.T) {
	server, _ := newTestServer(t)
	memberID := registerMember(t, server.URL)

	payload, err := json.Marshal(map[string]interface{}{
		"member_id":   memberID,
		"base_points": 10,
		"event":       "task",
	})
	require.NoError(t, err)

	send := func() service.AwardResult {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/api/points/award", bytes.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Idempotency-Key", "header-key-1")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.AwardResult
		decodeBody(t, resp, &result)
		return result
	}

	first := send()
	assert.False(t, first.Replayed)

	second := send()
	assert.True(t, second.Replayed)
	assert.Equal(t, first.NewLoyalty, second.NewLoyalty)
}

func TestErrorStatusMapping(t *testing.T) {
	server, _ := newTestServer(t)
	memberID := registerMember(t, server.URL)

	// Unknown member.
	resp := postJSON(t, server.URL+"/api/points/award", map[string]interface{}{
		"member_id":   99999,
		"base_points": 10,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Non-positive base points.
	resp = postJSON(t, server.URL+"/api/points/award", map[string]interface{}{
		"member_id":   memberID,
		"base_points": 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Insufficient coins.
	resp = postJSON(t, server.URL+"/api/points/redeem", map[string]interface{}{
		"member_id":        memberID,
		"cost":             500,
		"reward_reference": "reward-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// A correction that would break the coin ceiling.
	resp = postJSON(t, server.URL+"/api/admin/coins/manual", map[string]interface{}{
		"member_id": memberID,
		"coins":     1000,
		"reason":    "way too generous",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestEventLifecycleAndBoost(t *testing.T) {
	server, awardSvc := newTestServer(t)
	awardSvc.Now = func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}

	resp := postJSON(t, server.URL+"/api/admin/events", map[string]string{
		"setting_name":  "weekend_boost",
		"setting_value": "300",
		"start_date":    "2025-06-14T00:00:00Z",
		"end_date":      "2025-06-16T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Inverted windows are rejected.
	resp = postJSON(t, server.URL+"/api/admin/events", map[string]string{
		"setting_name":  "inverted",
		"setting_value": "300",
		"start_date":    "2025-06-16T00:00:00Z",
		"end_date":      "2025-06-14T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(server.URL + "/api/boost")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status service.BoostStatus
	decodeBody(t, resp, &status)
	assert.True(t, status.Active)
	assert.Equal(t, "3", status.Multiplier)
	require.NotNil(t, status.WinningEvent)
	assert.Equal(t, "weekend_boost", status.WinningEvent.SettingName)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/admin/events/weekend_boost", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Deleting again is a 404.
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestManualReconcileEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	memberID := registerMember(t, server.URL)

	resp := postJSON(t, fmt.Sprintf("%s/api/admin/reconcile/%d", server.URL, memberID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "consistent", body["status"])

	resp = postJSON(t, server.URL+"/api/admin/reconcile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report service.ReconcileReport
	decodeBody(t, resp, &report)
	assert.Equal(t, 1, report.Scanned)
	assert.Zero(t, report.Repaired)
}
