package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/quillford/inkpress/internal/handler"
	"github.com/quillford/inkpress/internal/middleware"
	"github.com/quillford/inkpress/internal/models"
	"github.com/quillford/inkpress/internal/repository"
	"github.com/quillford/inkpress/internal/service"
	"github.com/quillford/inkpress/internal/testutil"
	"github.com/quillford/inkpress/internal/utils"
	"github.com/quillford/inkpress/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type PostHandlerIntegrationTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	roleRepo  *repository.RoleRepository
	mediaHost *testutil.FakeMediaHost
	router    *gin.Engine

	admin   *models.User
	authorA *models.User
	authorB *models.User
}

func (s *PostHandlerIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())
	s.roleRepo = repository.NewRoleRepository(s.testDB.DB)
}

func (s *PostHandlerIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *PostHandlerIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.Require().NoError(s.roleRepo.EnsureDefaults())

	var err error
	s.admin, err = testutil.CreateTestUser("admin@example.com", "Admin", "AdminPass123", models.RoleAdmin)
	s.Require().NoError(err)
	s.authorA, err = testutil.CreateTestUser("alice@example.com", "Alice", "AlicePass123", models.RoleAuthor)
	s.Require().NoError(err)
	s.authorB, err = testutil.CreateTestUser("bob@example.com", "Bob", "BobPass123", models.RoleAuthor)
	s.Require().NoError(err)
	for _, u := range []*models.User{s.admin, s.authorA, s.authorB} {
		s.Require().NoError(s.testDB.DB.Create(u).Error)
	}

	s.mediaHost = testutil.NewFakeMediaHost()
	postRepo := repository.NewPostRepository(s.testDB.DB)
	postService := service.NewPostService(postRepo, s.mediaHost)
	postHandler := handler.NewPostHandler(postService)

	s.router = gin.New()
	v1 := s.router.Group("/api/v1")
	v1.GET("/posts/list", postHandler.ListPublished)
	v1.GET("/posts/slug/:slug", postHandler.GetBySlug)

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(testJWTSecret, testJWTIssuer, testJWTAudience))
	posts := authed.Group("/posts", middleware.RequireRole(models.RoleAdmin, models.RoleAuthor))
	posts.POST("", postHandler.Create)
	posts.GET("/:id", postHandler.GetByID)
	posts.PUT("/:id", postHandler.Update)
	posts.DELETE("/:id", postHandler.Delete)
	posts.POST("/:id/publish", middleware.RequireRole(models.RoleAdmin), postHandler.Publish)
	posts.POST("/:id/unpublish", middleware.RequireRole(models.RoleAdmin), postHandler.Unpublish)
}

func (s *PostHandlerIntegrationTestSuite) tokenFor(user *models.User) string {
	token, err := utils.GenerateToken(user, testJWTSecret, testJWTIssuer, testJWTAudience)
	s.Require().NoError(err)
	return token
}

// postForm builds a multipart form body with an optional image part.
func postForm(t *testing.T, fields map[string]string, image []byte, imageType string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("Failed to write form field %s: %v", key, err)
		}
	}

	if image != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="cover.jpg"`)
		header.Set("Content-Type", imageType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("Failed to create image part: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("Failed to write image bytes: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	return &buf, writer.FormDataContentType()
}

func defaultPostFields(slug string) map[string]string {
	return map[string]string{
		"title":          "Post " + slug,
		"slug":           slug,
		"excerpt":        "short excerpt",
		"content":        "# Heading\n\nBody text.",
		"content_format": "markdown",
	}
}

func (s *PostHandlerIntegrationTestSuite) doMultipart(method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *PostHandlerIntegrationTestSuite) doJSONFree(method, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *PostHandlerIntegrationTestSuite) createPost(token, slug string) map[string]interface{} {
	body, contentType := postForm(s.T(), defaultPostFields(slug), nil, "")
	w := s.doMultipart(http.MethodPost, "/api/v1/posts", token, body, contentType)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response["post"].(map[string]interface{})
}

func (s *PostHandlerIntegrationTestSuite) TestCreatePost() {
	post := s.createPost(s.tokenFor(s.authorA), "hello-world")

	assert.Equal(s.T(), "hello-world", post["slug"])
	assert.Equal(s.T(), "draft", post["status"])
}

func (s *PostHandlerIntegrationTestSuite) TestCreatePostWithImage() {
	body, contentType := postForm(s.T(), defaultPostFields("with-image"), []byte("fake-jpeg"), "image/jpeg")
	w := s.doMultipart(http.MethodPost, "/api/v1/posts", s.tokenFor(s.authorA), body, contentType)

	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	post := response["post"].(map[string]interface{})
	assert.NotEmpty(s.T(), post["image_url"])
	assert.Equal(s.T(), 1, s.mediaHost.StoredCount())
}

func (s *PostHandlerIntegrationTestSuite) TestCreatePostRejectsBadImageType() {
	body, contentType := postForm(s.T(), defaultPostFields("bad-image"), []byte("GIF89a"), "image/gif")
	w := s.doMultipart(http.MethodPost, "/api/v1/posts", s.tokenFor(s.authorA), body, contentType)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), 0, s.mediaHost.StoredCount(), "Nothing is uploaded when validation fails")
}

func (s *PostHandlerIntegrationTestSuite) TestCreatePostValidation() {
	fields := defaultPostFields("invalid")
	fields["title"] = ""
	fields["content_format"] = "asciidoc"

	body, contentType := postForm(s.T(), fields, nil, "")
	w := s.doMultipart(http.MethodPost, "/api/v1/posts", s.tokenFor(s.authorA), body, contentType)

	s.Require().Equal(http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	fieldErrors := response["fields"].(map[string]interface{})
	assert.Contains(s.T(), fieldErrors, "title")
	assert.Contains(s.T(), fieldErrors, "content_format")
}

// Scenario: Author A takes a slug, Author B conflicts on it.
func (s *PostHandlerIntegrationTestSuite) TestCreateDuplicateSlugConflict() {
	s.createPost(s.tokenFor(s.authorA), "hello-world")

	body, contentType := postForm(s.T(), defaultPostFields("hello-world"), nil, "")
	w := s.doMultipart(http.MethodPost, "/api/v1/posts", s.tokenFor(s.authorB), body, contentType)

	assert.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestCreateUnauthenticated() {
	body, contentType := postForm(s.T(), defaultPostFields("nope"), nil, "")
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/posts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestPublicListShowsOnlyPublished() {
	post := s.createPost(s.tokenFor(s.authorA), "will-publish")
	s.createPost(s.tokenFor(s.authorA), "stays-draft")

	w := s.doJSONFree(http.MethodPost, "/api/v1/posts/"+post["id"].(string)+"/publish", s.tokenFor(s.admin))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.doJSONFree(http.MethodGet, "/api/v1/posts/list?page=1&pageSize=10", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	posts := response["posts"].([]interface{})
	s.Require().Len(posts, 1)
	assert.Equal(s.T(), "will-publish", posts[0].(map[string]interface{})["slug"])
	assert.Equal(s.T(), float64(1), response["total"])
}

func (s *PostHandlerIntegrationTestSuite) TestGetBySlug() {
	post := s.createPost(s.tokenFor(s.authorA), "findable")

	// Draft not publicly resolvable
	w := s.doJSONFree(http.MethodGet, "/api/v1/posts/slug/findable", "")
	assert.Equal(s.T(), http.StatusNotFound, w.Code)

	w = s.doJSONFree(http.MethodPost, "/api/v1/posts/"+post["id"].(string)+"/publish", s.tokenFor(s.admin))
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.doJSONFree(http.MethodGet, "/api/v1/posts/slug/findable", "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestGetByIDOwnership() {
	post := s.createPost(s.tokenFor(s.authorA), "mine")
	postID := post["id"].(string)

	w := s.doJSONFree(http.MethodGet, "/api/v1/posts/"+postID, s.tokenFor(s.authorA))
	assert.Equal(s.T(), http.StatusOK, w.Code)

	w = s.doJSONFree(http.MethodGet, "/api/v1/posts/"+postID, s.tokenFor(s.authorB))
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.doJSONFree(http.MethodGet, "/api/v1/posts/"+postID, s.tokenFor(s.admin))
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

// Scenario: publish locks the post for its author until an admin
// unpublishes it again.
func (s *PostHandlerIntegrationTestSuite) TestPublishedPostLockedForAuthor() {
	post := s.createPost(s.tokenFor(s.authorA), "locked")
	postID := post["id"].(string)

	w := s.doJSONFree(http.MethodPost, "/api/v1/posts/"+postID+"/publish", s.tokenFor(s.admin))
	s.Require().Equal(http.StatusOK, w.Code)

	body, contentType := postForm(s.T(), defaultPostFields("locked"), nil, "")
	w = s.doMultipart(http.MethodPut, "/api/v1/posts/"+postID, s.tokenFor(s.authorA), body, contentType)
	assert.Equal(s.T(), http.StatusConflict, w.Code)

	w = s.doJSONFree(http.MethodPost, "/api/v1/posts/"+postID+"/unpublish", s.tokenFor(s.admin))
	s.Require().Equal(http.StatusOK, w.Code)

	body, contentType = postForm(s.T(), defaultPostFields("locked"), nil, "")
	w = s.doMultipart(http.MethodPut, "/api/v1/posts/"+postID, s.tokenFor(s.authorA), body, contentType)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestPublishByAuthorForbidden() {
	post := s.createPost(s.tokenFor(s.authorA), "not-yours")

	w := s.doJSONFree(http.MethodPost, "/api/v1/posts/"+post["id"].(string)+"/publish", s.tokenFor(s.authorA))

	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestPublishTwiceConflict() {
	post := s.createPost(s.tokenFor(s.authorA), "twice")
	postID := post["id"].(string)

	w := s.doJSONFree(http.MethodPost, "/api/v1/posts/"+postID+"/publish", s.tokenFor(s.admin))
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.doJSONFree(http.MethodPost, "/api/v1/posts/"+postID+"/publish", s.tokenFor(s.admin))
	assert.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestDeleteThenGone() {
	post := s.createPost(s.tokenFor(s.authorA), "short-lived")
	postID := post["id"].(string)

	w := s.doJSONFree(http.MethodDelete, "/api/v1/posts/"+postID, s.tokenFor(s.authorA))
	assert.Equal(s.T(), http.StatusNoContent, w.Code)

	w = s.doJSONFree(http.MethodGet, "/api/v1/posts/"+postID, s.tokenFor(s.authorA))
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestInvalidPostID() {
	w := s.doJSONFree(http.MethodGet, "/api/v1/posts/not-a-uuid", s.tokenFor(s.authorA))

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func TestPostHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(PostHandlerIntegrationTestSuite))
}
