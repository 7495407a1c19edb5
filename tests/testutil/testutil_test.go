package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/infrastructure/persistence"
	"github.com/hazina/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	m := NewMockDB(t)
	m.Mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

	var one int
	require.NoError(t, m.DB.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	m.ExpectationsWereMet(t)
}

func TestSeedGroup(t *testing.T) {
	db := NewSQLiteDatabase(t)
	repo := persistence.NewGormMemberRepository(db.DB, time.Second)

	f := SeedGroup(t, repo, 3)

	members, err := repo.ListMembers(context.Background(), f.Group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 4)
	assert.Equal(t, contribution.RoleTreasurer, f.Treasurer.Role)
	require.Len(t, f.Members, 3)
	for _, m := range f.Members {
		assert.Equal(t, contribution.RoleMember, m.Role)
		assert.True(t, m.JoinedAt.After(f.Treasurer.JoinedAt))
	}
}

func TestTokens(t *testing.T) {
	tokens := NewTokens()
	userID := uuid.New()

	claims, err := tokens.ValidateAccessToken(tokens.For(t, userID))
	require.NoError(t, err)
	got, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestClient(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidJSON, "bad body"))
			return
		}
		body["auth"] = c.GetHeader("Authorization")
		c.JSON(http.StatusOK, dto.NewSuccessResponse(body))
	})
	client := NewClient(engine).As("abc")

	w := client.Do(t, http.MethodPost, "/echo", map[string]string{"name": "Wanjiku"})
	require.Equal(t, http.StatusOK, w.Code)
	data := DecodeData[map[string]string](t, w)
	assert.Equal(t, "Wanjiku", data["name"])
	assert.Equal(t, "Bearer abc", data["auth"])

	w = client.Do(t, http.MethodPost, "/echo", "{")
	AssertError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidJSON)
}
