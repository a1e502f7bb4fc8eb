package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/models"
)

func TestMaterialUploadAndGatedListing(t *testing.T) {
	f := newFixture()
	uploader := newFakeUploader()
	svc := NewMaterialService(f.materials, f.stages, f.gate("preliminary"), uploader, f.validator, f.logger)
	ctx := context.Background()

	st := f.addStage("preliminary", 1, nil, nil)
	m, err := svc.CreateMaterial(ctx, MaterialInput{StageID: st.ID, Title: "Rules"}, 1)
	require.NoError(t, err)

	_, err = svc.UploadFile(ctx, m.ID, "application/x-msdownload", strings.NewReader("MZ"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	uploaded, err := svc.UploadFile(ctx, m.ID, "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	require.NotNil(t, uploaded.FileURL)
	assert.True(t, strings.HasPrefix(*uploaded.FileURL, "https://cdn.example/materials/stage_"))
	firstKey := *uploaded.FileKey

	replaced, err := svc.UploadFile(ctx, m.ID, "application/pdf", strings.NewReader("%PDF-2"))
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, *replaced.FileKey)
	assert.Contains(t, uploader.deleted, firstKey)

	team := f.addTeam("alpha", models.TeamStatusApproved)
	_, err = svc.ListForTeam(ctx, team.ID, st.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	f.addProgress(team.ID, st.ID, models.ProgressApproved)
	materials, err := svc.ListForTeam(ctx, team.ID, st.ID)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.NotNil(t, materials[0].FileURL)

	require.NoError(t, svc.DeleteMaterial(ctx, m.ID))
	assert.Contains(t, uploader.deleted, *replaced.FileKey)
}

func TestMaterialUploadDisabled(t *testing.T) {
	f := newFixture()
	svc := NewMaterialService(f.materials, f.stages, f.gate("preliminary"), nil, f.validator, f.logger)

	_, err := svc.UploadFile(context.Background(), 1, "application/pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}
