package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plotpointe/milestones/middleware"
	"github.com/plotpointe/milestones/models"
	"github.com/plotpointe/milestones/services"
	"github.com/plotpointe/milestones/utils"
)

func TestMain(m *testing.M) {
	// Must be set before the config singleton first loads.
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTest(t *testing.T) (*gorm.DB, *services.MilestoneService, *gin.Engine) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.Login{},
		&models.Writer{},
		&models.Video{},
		&models.VideoStats{},
		&models.VideoMilestoneTracking{},
		&models.MilestoneNotification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := services.NewMilestoneService(db, nil)
	feed := services.NewDBVideoFeed(db)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Group("/auth").POST("/login", NewAuthController(db).Login)

	nc := NewNotificationController(db, svc, feed)
	notifications := api.Group("/notifications")
	notifications.Use(middleware.AuthRequired())
	notifications.GET("", nc.List)
	notifications.GET("/count", nc.Count)
	notifications.GET("/uncelebrated", nc.Uncelebrated)
	notifications.PUT("/:id/read", nc.MarkRead)
	notifications.PUT("/:id/celebrated", nc.MarkCelebrated)
	notifications.PUT("/read-all", nc.ReadAll)
	notifications.POST("/check-milestones", nc.CheckMilestones)

	return db, svc, router
}

func createWriter(t *testing.T, db *gorm.DB, username, name string) (models.Writer, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	login := models.Login{Username: username, Password: string(hash)}
	if err := db.Create(&login).Error; err != nil {
		t.Fatalf("create login: %v", err)
	}
	writer := models.Writer{LoginID: login.ID, Name: name}
	if err := db.Create(&writer).Error; err != nil {
		t.Fatalf("create writer: %v", err)
	}

	token, err := utils.GenerateToken(login.ID, login.Username, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	// Writer IDs repeat across fresh test databases, so drop any count
	// payload a previous test may have cached.
	utils.InvalidateByPrefix(utils.CountCachePrefix(writer.ID))

	return writer, token
}

func doRequest(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func seedNotifications(t *testing.T, svc *services.MilestoneService, writerID uint, n int) []models.MilestoneNotification {
	t.Helper()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.MilestoneNotification, 0, n)
	for i := 0; i < n; i++ {
		videoID := fmt.Sprintf("video-%d", i)
		_, row, err := svc.CreateIfAbsent(writerID, videoID, nil, nil,
			services.MilestoneDefinition{Type: "1M_VIEWS", Value: 1_000_000},
			1_500_000, base.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		out = append(out, *row)
	}
	return out
}

func TestLogin(t *testing.T) {
	db, _, router := setupTest(t)
	createWriter(t, db, "alice", "Alice")

	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "password",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Fatalf("success = %v", body["success"])
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatal("empty token")
	}

	w = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", w.Code)
	}
}

func TestListRequiresAuth(t *testing.T) {
	_, _, router := setupTest(t)

	w := doRequest(router, http.MethodGet, "/api/v1/notifications", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestListPaginationAndUnreadOnly(t *testing.T) {
	db, svc, router := setupTest(t)
	writer, token := createWriter(t, db, "alice", "Alice")
	seeded := seedNotifications(t, svc, writer.ID, 3)

	w := doRequest(router, http.MethodGet, "/api/v1/notifications?limit=2", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if got := len(body["notifications"].([]any)); got != 2 {
		t.Fatalf("page size = %d, want 2", got)
	}
	if body["total"].(float64) != 3 || body["hasMore"] != true {
		t.Fatalf("total/hasMore = %v/%v, want 3/true", body["total"], body["hasMore"])
	}

	// Newest achieved first.
	first := body["notifications"].([]any)[0].(map[string]any)
	if first["video_id"] != "video-2" {
		t.Fatalf("first item = %v, want newest (video-2)", first["video_id"])
	}

	w = doRequest(router, http.MethodGet, "/api/v1/notifications?limit=2&offset=2", token, nil)
	body = decodeBody(t, w)
	if got := len(body["notifications"].([]any)); got != 1 {
		t.Fatalf("last page size = %d, want 1", got)
	}
	if body["hasMore"] != false {
		t.Fatalf("hasMore = %v, want false", body["hasMore"])
	}

	w = doRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", seeded[0].ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", w.Code)
	}
	w = doRequest(router, http.MethodGet, "/api/v1/notifications?unread_only=true", token, nil)
	body = decodeBody(t, w)
	if got := len(body["notifications"].([]any)); got != 2 {
		t.Fatalf("unread = %d, want 2", got)
	}
}

func TestCountScenario(t *testing.T) {
	db, svc, router := setupTest(t)
	writer, token := createWriter(t, db, "alice", "Alice")
	seeded := seedNotifications(t, svc, writer.ID, 2)

	w := doRequest(router, http.MethodGet, "/api/v1/notifications/count", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["total"].(float64) != 2 || body["unread"].(float64) != 2 || body["uncelebrated"].(float64) != 2 {
		t.Fatalf("counts = %v, want 2/2/2", body)
	}

	w = doRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", seeded[0].ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/v1/notifications/count", token, nil)
	body = decodeBody(t, w)
	if body["total"].(float64) != 2 || body["unread"].(float64) != 1 || body["uncelebrated"].(float64) != 2 {
		t.Fatalf("counts after read = %v, want 2/1/2", body)
	}
}

func TestMarkReadOwnershipAndIdempotence(t *testing.T) {
	db, svc, router := setupTest(t)
	alice, aliceToken := createWriter(t, db, "alice", "Alice")
	_, bobToken := createWriter(t, db, "bob", "Bob")
	seeded := seedNotifications(t, svc, alice.ID, 1)
	path := fmt.Sprintf("/api/v1/notifications/%d/read", seeded[0].ID)

	// Bob cannot touch Alice's notification.
	if w := doRequest(router, http.MethodPut, path, bobToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign mark status = %d, want 404", w.Code)
	}

	if w := doRequest(router, http.MethodPut, path, aliceToken, nil); w.Code != http.StatusOK {
		t.Fatalf("mark status = %d", w.Code)
	}
	// Second call is a no-op success.
	w := doRequest(router, http.MethodPut, path, aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("repeat mark status = %d, want 200", w.Code)
	}
	n := decodeBody(t, w)["notification"].(map[string]any)
	if n["is_read"] != true {
		t.Fatalf("is_read = %v, want true", n["is_read"])
	}

	if w := doRequest(router, http.MethodPut, "/api/v1/notifications/99999/read", aliceToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d, want 404", w.Code)
	}
}

func TestUncelebratedQueue(t *testing.T) {
	db, svc, router := setupTest(t)
	writer, token := createWriter(t, db, "alice", "Alice")
	seeded := seedNotifications(t, svc, writer.ID, 7)

	w := doRequest(router, http.MethodGet, "/api/v1/notifications/uncelebrated", token, nil)
	body := decodeBody(t, w)
	items := body["notifications"].([]any)
	if len(items) != 5 {
		t.Fatalf("queue = %d, want 5", len(items))
	}
	if items[0].(map[string]any)["video_id"] != "video-0" {
		t.Fatalf("queue head = %v, want oldest (video-0)", items[0].(map[string]any)["video_id"])
	}

	w = doRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/celebrated", seeded[0].ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("celebrate status = %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/v1/notifications/uncelebrated", token, nil)
	items = decodeBody(t, w)["notifications"].([]any)
	if items[0].(map[string]any)["video_id"] != "video-1" {
		t.Fatalf("queue head = %v, want video-1 after celebrating video-0", items[0].(map[string]any)["video_id"])
	}
}

func TestReadAll(t *testing.T) {
	db, svc, router := setupTest(t)
	writer, token := createWriter(t, db, "alice", "Alice")
	seedNotifications(t, svc, writer.ID, 3)

	w := doRequest(router, http.MethodPut, "/api/v1/notifications/read-all", token, nil)
	body := decodeBody(t, w)
	if body["updated_count"].(float64) != 3 {
		t.Fatalf("updated_count = %v, want 3", body["updated_count"])
	}

	w = doRequest(router, http.MethodPut, "/api/v1/notifications/read-all", token, nil)
	body = decodeBody(t, w)
	if body["updated_count"].(float64) != 0 {
		t.Fatalf("second updated_count = %v, want 0", body["updated_count"])
	}
}

func TestCheckMilestonesEndpoint(t *testing.T) {
	db, _, router := setupTest(t)
	writer, token := createWriter(t, db, "alice", "Alice")

	videos := []models.Video{
		{ID: 1, WriterID: writer.ID, Title: "Hit", URL: "https://youtube.com/watch?v=1"},
		{ID: 2, WriterID: writer.ID, Title: "Elsewhere", URL: "https://vimeo.com/2"},
	}
	if err := db.Create(&videos).Error; err != nil {
		t.Fatalf("seed videos: %v", err)
	}
	views := int64(1_200_000)
	if err := db.Create(&models.VideoStats{VideoID: "1", ViewsTotal: &views}).Error; err != nil {
		t.Fatalf("seed stats: %v", err)
	}

	w := doRequest(router, http.MethodPost, "/api/v1/notifications/check-milestones", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["writer_id"].(float64) != float64(writer.ID) {
		t.Fatalf("writer_id = %v", body["writer_id"])
	}
	if body["videos_checked"].(float64) != 1 {
		t.Fatalf("videos_checked = %v, want 1 (vimeo video excluded)", body["videos_checked"])
	}
	if body["new_notifications"].(float64) != 1 {
		t.Fatalf("new_notifications = %v, want 1", body["new_notifications"])
	}
	created := body["notifications"].([]any)[0].(map[string]any)
	if created["milestone_type"] != "1M_VIEWS" || created["current_views"].(float64) != 1_200_000 {
		t.Fatalf("notification = %v", created)
	}

	// Re-running with unchanged views creates nothing new.
	w = doRequest(router, http.MethodPost, "/api/v1/notifications/check-milestones", token, nil)
	body = decodeBody(t, w)
	if body["new_notifications"].(float64) != 0 {
		t.Fatalf("second run new_notifications = %v, want 0", body["new_notifications"])
	}
}
