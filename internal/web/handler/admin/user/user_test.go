package user

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/audit"
	"github.com/shiftdesk/shiftdesk/internal/authz"
	"github.com/shiftdesk/shiftdesk/internal/config"
	"github.com/shiftdesk/shiftdesk/internal/db/models"
	"github.com/shiftdesk/shiftdesk/internal/identity"
)

const testSecret = "test-secret"

var (
	deptEng   = "dept_eng"
	deptSales = "dept_sales"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AuditLog{}))

	users := []models.User{
		{ID: "god_1", Email: "god@example.com", Role: string(authz.RoleGod), Active: true},
		{ID: "admin_1", Email: "admin@example.com", Role: string(authz.RoleAdmin), Active: true},
		{ID: "mgr_eng", Email: "mgr@example.com", Role: string(authz.RoleManager), DepartmentID: &deptEng, Active: true},
		{ID: "user_a", Email: "a@example.com", Role: string(authz.RoleUser), DepartmentID: &deptEng, Active: true},
		{ID: "user_sales", Email: "s@example.com", Role: string(authz.RoleUser), DepartmentID: &deptSales, Active: true},
	}
	require.NoError(t, db.Create(&users).Error)

	return db
}

func newTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(identity.Middleware(identity.NewResolver(testSecret)))

	svc := Service{}
	svc.Init(app, &config.Config{}, db, audit.NewLogger(audit.NewGormStore(db)))

	return app
}

func token(t *testing.T, p authz.Principal) string {
	t.Helper()

	signed, err := identity.NewResolver(testSecret).Sign(p, time.Minute)
	require.NoError(t, err)

	return "Bearer " + signed
}

func doJSON(t *testing.T, app *fiber.App, method, target, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(fiber.HeaderAuthorization, bearer)

	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}

	return resp.StatusCode, decoded
}

func adminPrincipal() authz.Principal {
	return authz.Principal{ID: "admin_1", Role: authz.RoleAdmin}
}

func managerPrincipal() authz.Principal {
	return authz.Principal{ID: "mgr_eng", Role: authz.RoleManager, DepartmentID: &deptEng}
}

func TestListRequiresManagerRank(t *testing.T) {
	app := newTestApp(t, newTestDB(t))

	status, _ := doJSON(t, app, fiber.MethodGet, Path,
		token(t, authz.Principal{ID: "user_a", Role: authz.RoleUser, DepartmentID: &deptEng}), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestListManagerSeesOwnDepartment(t *testing.T) {
	app := newTestApp(t, newTestDB(t))

	status, body := doJSON(t, app, fiber.MethodGet, Path, token(t, managerPrincipal()), nil)
	require.Equal(t, fiber.StatusOK, status)

	users := body["users"].([]any)
	ids := make([]string, 0, len(users))
	for _, raw := range users {
		ids = append(ids, raw.(map[string]any)["id"].(string))
	}

	assert.ElementsMatch(t, []string{"mgr_eng", "user_a"}, ids)
}

func TestProvisionRequiresStrictOutrank(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db)

	// an admin cannot mint another admin
	status, _ := doJSON(t, app, fiber.MethodPost, Path, token(t, adminPrincipal()), fiber.Map{
		"email":    "peer@example.com",
		"password": "long-enough-password",
		"role":     "admin",
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := doJSON(t, app, fiber.MethodPost, Path, token(t, adminPrincipal()), fiber.Map{
		"email":    "newmgr@example.com",
		"password": "long-enough-password",
		"role":     "manager",
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "manager", body["role"])

	// provisioning leaves a tagged audit entry
	var entry models.AuditLog
	require.NoError(t, db.First(&entry, "record_id = ?", body["id"]).Error)
	assert.Equal(t, string(audit.ActionUserProvision), entry.Metadata["sensitive_action"])
	assert.Equal(t, "admin_1", entry.UserID)
}

func TestProvisionManagerLimitedToOwnDepartment(t *testing.T) {
	app := newTestApp(t, newTestDB(t))

	status, _ := doJSON(t, app, fiber.MethodPost, Path, token(t, managerPrincipal()), fiber.Map{
		"email":         "outsider@example.com",
		"password":      "long-enough-password",
		"role":          "user",
		"department_id": deptSales,
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = doJSON(t, app, fiber.MethodPost, Path, token(t, managerPrincipal()), fiber.Map{
		"email":         "insider@example.com",
		"password":      "long-enough-password",
		"role":          "user",
		"department_id": deptEng,
	})
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestProvisionRejectsUnknownRole(t *testing.T) {
	app := newTestApp(t, newTestDB(t))

	status, _ := doJSON(t, app, fiber.MethodPost, Path, token(t, adminPrincipal()), fiber.Map{
		"email":    "x@example.com",
		"password": "long-enough-password",
		"role":     "superuser",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestChangeRoleOutranksBothSides(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db)

	// admin cannot touch another admin, equality is insufficient
	status, _ := doJSON(t, app, fiber.MethodPatch, Path+"/admin_1/role",
		token(t, adminPrincipal()), fiber.Map{"role": "user"})
	assert.Equal(t, fiber.StatusForbidden, status)

	// nor grant a role at their own level
	status, _ = doJSON(t, app, fiber.MethodPatch, Path+"/user_a/role",
		token(t, adminPrincipal()), fiber.Map{"role": "admin"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := doJSON(t, app, fiber.MethodPatch, Path+"/user_a/role",
		token(t, adminPrincipal()), fiber.Map{"role": "manager"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "manager", body["role"])

	var entry models.AuditLog
	require.NoError(t, db.First(&entry, "record_id = ?", "user_a").Error)
	assert.Equal(t, string(audit.ActionRoleChange), entry.Metadata["sensitive_action"])
	assert.Equal(t, "user", entry.Metadata["old_role"])
	assert.Equal(t, "manager", entry.Metadata["new_role"])
}

func TestChangeRoleManagerLimitedToOwnDepartment(t *testing.T) {
	app := newTestApp(t, newTestDB(t))

	status, _ := doJSON(t, app, fiber.MethodPatch, Path+"/user_sales/role",
		token(t, managerPrincipal()), fiber.Map{"role": "guest"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = doJSON(t, app, fiber.MethodPatch, Path+"/user_a/role",
		token(t, managerPrincipal()), fiber.Map{"role": "guest"})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestChangeRoleUnknownUserMasked(t *testing.T) {
	app := newTestApp(t, newTestDB(t))

	status, _ := doJSON(t, app, fiber.MethodPatch, Path+"/ghost/role",
		token(t, adminPrincipal()), fiber.Map{"role": "user"})
	assert.Equal(t, fiber.StatusNotFound, status)
}
