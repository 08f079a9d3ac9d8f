package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/testutil"
)

func TestStudentPlacementIsNormalized(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := models.Student{Name: "Dewi", Email: "dewi@example.com", CourseID: 3, YearLevel: " 11 ", Section: "b"}
	require.NoError(t, repo.Create(ctx, &student))
	require.Equal(t, "B", student.Section)

	// Rows written by other systems may still carry raw values.
	require.NoError(t, db.Model(&models.Student{}).Where("id = ?", student.ID).Update("section", " b ").Error)

	placement, err := repo.GetPlacement(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, Placement{CourseID: 3, YearLevel: "11", Section: "B"}, placement)
}

func TestStudentPlacementMissing(t *testing.T) {
	repo := NewStudentRepository(testutil.OpenDB(t))

	_, err := repo.GetPlacement(context.Background(), 404)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
