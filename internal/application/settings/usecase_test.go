package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/crm-api/internal/application/apptest"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	master = &entity.Principal{ProfileID: "m-1", Role: entity.RoleMaster}
	member = &entity.Principal{ProfileID: "u-1", Role: entity.RoleUser, MasterAccountID: "m-1"}
)

func TestStages_DefaultYHeredadasPorElEquipo(t *testing.T) {
	uc := settings.NewSettingsUseCase(apptest.NewSettings())
	ctx := context.Background()

	stages, err := uc.Stages(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, pipeline.DefaultStages(), stages)

	_, err = uc.AddStage(ctx, master, "Seguimiento", "")
	require.NoError(t, err)

	stages, err = uc.Stages(ctx, member)
	require.NoError(t, err)
	require.Len(t, stages, 7)
	assert.Equal(t, "Seguimiento", stages[6].Name)
	assert.Equal(t, pipeline.CustomStageColor, stages[6].Color)
}

func TestStages_SoloMasterModifica(t *testing.T) {
	uc := settings.NewSettingsUseCase(apptest.NewSettings())
	_, err := uc.AddStage(context.Background(), member, "X", "")
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
}

func TestDeleteStage_MinimoDos(t *testing.T) {
	uc := settings.NewSettingsUseCase(apptest.NewSettings())
	ctx := context.Background()

	_, err := uc.SaveStages(ctx, master, []entity.KanbanStage{{ID: "new", Name: "Nuevos"}, {ID: "won", Name: "Ganado"}})
	require.NoError(t, err)

	_, err = uc.DeleteStage(ctx, master, "won")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdateYReorder(t *testing.T) {
	uc := settings.NewSettingsUseCase(apptest.NewSettings())
	ctx := context.Background()

	name := "Clientes"
	stages, err := uc.UpdateStage(ctx, master, "won", &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Clientes", pipeline.StageName(stages, "won"))

	stages, err = uc.ReorderStages(ctx, master, []string{"lost", "won", "proposal", "qualified", "contacted", "new"})
	require.NoError(t, err)
	assert.Equal(t, "lost", stages[0].ID)

	_, err = uc.ReorderStages(ctx, master, []string{"new", "won"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.UpdateStage(ctx, master, "no-existe", &name, nil)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPreferences(t *testing.T) {
	uc := settings.NewSettingsUseCase(apptest.NewSettings())
	ctx := context.Background()

	prefs, err := uc.Preferences(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultPreferences(), prefs)

	prefs.EmailNotifications = false
	_, err = uc.SavePreferences(ctx, member, prefs)
	require.NoError(t, err)

	got, err := uc.PreferencesOf(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, got.EmailNotifications)
}
