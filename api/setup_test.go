package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"polling-backend/lock"
	"polling-backend/repository"
	"polling-backend/service"
	"polling-backend/testutil"
)

const testResetPassword = "letmein"

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestEnvironment wires the real service onto a fresh in-memory database.
func setupTestEnvironment(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.NewDB(t)
	log := testutil.DiscardLogger()
	svc := service.NewPollService(
		repository.NewGormPollRepository(db),
		lock.NewLocal(),
		service.Settings{ResetSecret: testResetPassword},
		log,
	)

	return newTestRouter(NewPollController(svc, false, log), NewHealthController(db, "test")), db
}

func newTestRouter(pc *PollController, hc *HealthController) *gin.Engine {
	router := gin.New()
	api := router.Group("/api")
	pc.RegisterRoutes(api)
	if hc != nil {
		hc.RegisterRoutes(api)
	}
	return router
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
