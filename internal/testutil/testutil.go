package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskboard/internal/auth"
	"github.com/kwhite/taskboard/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.SessionToken{},
		&models.Task{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CreateTestOrg creates a test organization
func CreateTestOrg(t *testing.T, db *gorm.DB, name string) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name: name,
	}

	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateTestUser creates a test user with the given role and organization
func CreateTestUser(t *testing.T, db *gorm.DB, org *models.Organization, role string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Username:       role + "-" + uuid.New().String()[:8],
		PasswordHash:   hash,
		Role:           role,
		OrganizationID: org.ID,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	user.Organization = org
	return user
}

// CreateTestTask creates a test task owned by the given user
func CreateTestTask(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Task {
	t.Helper()

	task := &models.Task{
		Base: models.Base{
			ID: uuid.New(),
		},
		Title:          title,
		Status:         models.TaskStatusTodo,
		UserID:         owner.ID,
		OrganizationID: owner.OrganizationID,
	}

	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}

	return task
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// IssueTestToken mints a valid token AND records its session row, the same
// way a real login does, so it survives the session-store check.
func IssueTestToken(t *testing.T, db *gorm.DB, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	session := &models.SessionToken{
		UserID:    user.ID,
		TokenHash: auth.HashToken(token),
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to record test session: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds the common fixtures: two organizations, one user of each
// role in the first, and a token for each user.
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Org        *models.Organization
	OtherOrg   *models.Organization
	Admin      *models.User
	Manager    *models.User
	Member     *models.User
	Outsider   *models.User // user role in OtherOrg
	Tokens     map[uuid.UUID]string
}

// NewTestContext creates a complete multi-tenant test setup.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()

	org := CreateTestOrg(t, db, "Org One "+uuid.New().String()[:8])
	otherOrg := CreateTestOrg(t, db, "Org Two "+uuid.New().String()[:8])

	admin := CreateTestUser(t, db, org, "admin")
	manager := CreateTestUser(t, db, org, "manager")
	member := CreateTestUser(t, db, org, "user")
	outsider := CreateTestUser(t, db, otherOrg, "user")

	tokens := make(map[uuid.UUID]string)
	for _, u := range []*models.User{admin, manager, member, outsider} {
		tokens[u.ID] = IssueTestToken(t, db, jwtService, u)
	}

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Org:        org,
		OtherOrg:   otherOrg,
		Admin:      admin,
		Manager:    manager,
		Member:     member,
		Outsider:   outsider,
		Tokens:     tokens,
	}
}

// Token returns the issued token for a fixture user.
func (ts *TestSetup) Token(u *models.User) string {
	return ts.Tokens[u.ID]
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
