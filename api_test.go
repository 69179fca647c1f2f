package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"testing"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/models"
	"github.com/gin-gonic/gin"
)

func setupAPIRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "api_test.db"))
	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api", apiHandler())
	r.POST("/api", apiHandler())
	return r
}

func doGET(t *testing.T, r *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func doPOST(t *testing.T, r *gin.Engine, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func memberPayload(msisdn string, role models.Role) map[string]any {
	return map[string]any{
		"action":     "createUser",
		"msisdn":     msisdn,
		"fullName":   "Test Member",
		"role":       role,
		"region":     models.RegionCentral,
		"cluster":    models.ClusterNorthWest,
		"momoNumber": msisdn,
	}
}

func TestAPI_MissingActionIsValidationError(t *testing.T) {
	r := setupAPIRouter(t)

	w := doGET(t, r, "/api")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeBody(t, w); body["code"] != "VALIDATION" {
		t.Fatalf("code = %v, want VALIDATION", body["code"])
	}
}

func TestAPI_UnknownActionIsValidationError(t *testing.T) {
	r := setupAPIRouter(t)

	w := doGET(t, r, "/api?action=dropTables")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeBody(t, w); body["code"] != "VALIDATION" {
		t.Fatalf("code = %v, want VALIDATION", body["code"])
	}
}

func TestAPI_GetUserUnknownMsisdnIsNotFound(t *testing.T) {
	r := setupAPIRouter(t)

	w := doGET(t, r, "/api?action=getUser&msisdn=08000000000")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body := decodeBody(t, w); body["code"] != "NOT_FOUND" {
		t.Fatalf("code = %v, want NOT_FOUND", body["code"])
	}
}

func TestAPI_CreateUserThenGetUser(t *testing.T) {
	r := setupAPIRouter(t)

	w := doPOST(t, r, "/api", memberPayload("08011112222", models.RoleTDR))
	if w.Code != http.StatusOK {
		t.Fatalf("createUser status = %d, body %s", w.Code, w.Body.String())
	}

	w = doGET(t, r, "/api?action=getUser&msisdn=08011112222")
	if w.Code != http.StatusOK {
		t.Fatalf("getUser status = %d, body %s", w.Code, w.Body.String())
	}
	data, ok := decodeBody(t, w)["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data object in %s", w.Body.String())
	}
	if data["msisdn"] != "08011112222" || data["fullName"] != "Test Member" {
		t.Fatalf("unexpected member payload: %v", data)
	}
}

func TestAPI_CreateUserTwiceConflicts(t *testing.T) {
	r := setupAPIRouter(t)

	if w := doPOST(t, r, "/api", memberPayload("08011112222", models.RoleTDR)); w.Code != http.StatusOK {
		t.Fatalf("first createUser status = %d", w.Code)
	}
	w := doPOST(t, r, "/api", memberPayload("08011112222", models.RoleTDR))
	if w.Code != http.StatusConflict {
		t.Fatalf("second createUser status = %d, want 409", w.Code)
	}
	if body := decodeBody(t, w); body["code"] != "ALREADY_EXISTS" {
		t.Fatalf("code = %v, want ALREADY_EXISTS", body["code"])
	}
}

func TestAPI_SubmitBatchThenCheckDuplicates(t *testing.T) {
	r := setupAPIRouter(t)

	row := map[string]any{
		"submission_date":    "2026-03-15",
		"role":               "TDR",
		"agent_name":         "Agent One",
		"team_member_name":   "Member One",
		"region":             "Central",
		"cluster":            "North West",
		"momo_number":        "08011112222",
		"agent_msisdn":       "27830001111",
		"transaction_id":     "1234567890",
		"category":           "Street",
		"team_member_msisdn": "08011112222",
	}
	w := doPOST(t, r, "/api", map[string]any{
		"action": "submitBatch",
		"type":   "RGM",
		"rows":   []any{row},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submitBatch status = %d, body %s", w.Code, w.Body.String())
	}

	w = doPOST(t, r, "/api", map[string]any{
		"action": "checkDuplicates",
		"type":   "RGM",
		"ids":    []string{"1234567890", "9999999999"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("checkDuplicates status = %d, body %s", w.Code, w.Body.String())
	}
	dups, ok := decodeBody(t, w)["duplicates"].([]any)
	if !ok {
		t.Fatalf("missing duplicates array in %s", w.Body.String())
	}
	if len(dups) != 1 || dups[0] != "1234567890" {
		t.Fatalf("duplicates = %v, want [1234567890]", dups)
	}
}

func TestAPI_GetOnboardsWithoutIdentityIsForbidden(t *testing.T) {
	r := setupAPIRouter(t)

	w := doGET(t, r, "/api?action=getOnboards&sheetType=CC")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if body := decodeBody(t, w); body["code"] != "ACCESS_DENIED" {
		t.Fatalf("code = %v, want ACCESS_DENIED", body["code"])
	}
}

func TestAPI_GetReportRequiresAdmin(t *testing.T) {
	r := setupAPIRouter(t)

	if w := doPOST(t, r, "/api", memberPayload("08011112222", models.RoleTDR)); w.Code != http.StatusOK {
		t.Fatalf("create member status = %d", w.Code)
	}
	if w := doPOST(t, r, "/api", memberPayload("08099998888", models.RoleAdmin)); w.Code != http.StatusOK {
		t.Fatalf("create admin status = %d", w.Code)
	}

	w := doGET(t, r, "/api?action=getReport&type=RGM&startDate=2026-02-01&endDate=2026-02-28")
	if w.Code != http.StatusForbidden {
		t.Fatalf("no requester: status = %d, want 403", w.Code)
	}

	w = doGET(t, r, "/api?action=getReport&requester=08011112222&type=RGM&startDate=2026-02-01&endDate=2026-02-28")
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin requester: status = %d, want 403", w.Code)
	}

	w = doGET(t, r, "/api?action=getReport&requester=08099998888&type=RGM&startDate=2026-02-01&endDate=2026-02-28")
	if w.Code != http.StatusOK {
		t.Fatalf("admin requester: status = %d, body %s", w.Code, w.Body.String())
	}
	if _, ok := decodeBody(t, w)["data"]; !ok {
		t.Fatalf("missing data field in %s", w.Body.String())
	}
}

func TestAPI_GetStats(t *testing.T) {
	r := setupAPIRouter(t)

	row := map[string]any{
		"submission_date":    "2026-03-15",
		"role":               "TDR",
		"agent_name":         "Agent One",
		"team_member_name":   "Member One",
		"momo_number":        "08011112222",
		"agent_msisdn":       "27830001111",
		"transaction_id":     "1234567890",
		"team_member_msisdn": "08011112222",
	}
	w := doPOST(t, r, "/api", map[string]any{
		"action": "submitBatch",
		"type":   "RGM",
		"rows":   []any{row},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submitBatch status = %d, body %s", w.Code, w.Body.String())
	}

	w = doGET(t, r, "/api?action=getStats&identifier=08011112222&startDate=2020-01-01&endDate=2030-01-01")
	if w.Code != http.StatusOK {
		t.Fatalf("getStats status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["rgmCount"] != float64(1) {
		t.Fatalf("rgmCount = %v, want 1", body["rgmCount"])
	}
	if body["mauCount"] != float64(0) {
		t.Fatalf("mauCount = %v, want 0", body["mauCount"])
	}
}

func TestAPI_BusyWhileStoreLockHeld(t *testing.T) {
	r := setupAPIRouter(t)
	t.Setenv("STORE_LOCK_WAIT_SECONDS", "1")

	release, err := config.AcquireStoreLock(context.Background())
	if err != nil {
		t.Fatalf("acquire store lock: %v", err)
	}
	defer release()

	w := doGET(t, r, "/api?action=getUser&msisdn=08000000000")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 while the store is held", w.Code)
	}
	if body := decodeBody(t, w); body["code"] != "BUSY" {
		t.Fatalf("code = %v, want BUSY", body["code"])
	}
}

func TestAPI_ConcurrentSubmitBatchSameTransactionIdInsertsOnce(t *testing.T) {
	r := setupAPIRouter(t)

	row := map[string]any{
		"submission_date":    "2026-03-15",
		"role":               "TDR",
		"agent_name":         "Agent One",
		"team_member_name":   "Member One",
		"momo_number":        "08011112222",
		"agent_msisdn":       "27830001111",
		"transaction_id":     "1234567890",
		"team_member_msisdn": "08011112222",
	}
	payload, err := json.Marshal(map[string]any{
		"action": "submitBatch",
		"type":   "RGM",
		"rows":   []any{row},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	// Two identical batches race for the store lock. The loser waits, then
	// hits the in-lock duplicate re-check.
	codes := make(chan int, 2)
	for i := 0; i < 2; i++ {
		go func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			codes <- w.Code
		}()
	}
	got := []int{<-codes, <-codes}
	sort.Ints(got)
	if got[0] != http.StatusOK || got[1] != http.StatusConflict {
		t.Fatalf("statuses = %v, want one 200 and one 409", got)
	}

	var count int64
	if err := config.GetDB().Table("rgm_submissions").
		Where("transaction_id = ?", "1234567890").Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("inserted %d rows for one transaction id, want exactly 1", count)
	}
}
