package businessflow

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turnixpro/turnix/config"
	"github.com/turnixpro/turnix/models"
	"github.com/turnixpro/turnix/repository"
	"github.com/turnixpro/turnix/utils"
	"github.com/xuri/excelize/v2"
)

type archiveFlowFixture struct {
	store *repository.MemorySheetStore
	repo  repository.GestionRepository
	cache *memoryCache
	audit *recordingAuditRepo
	flow  *ArchiveFlowImpl
	dir   string
}

func newArchiveFlowFixture(t *testing.T, rows ...[]string) *archiveFlowFixture {
	t.Helper()

	store, repo := seededSheet(rows...)
	fx := &archiveFlowFixture{
		store: store,
		repo:  repo,
		cache: newMemoryCache(),
		audit: &recordingAuditRepo{},
		dir:   filepath.Join(t.TempDir(), "backups"),
	}
	cfg := config.ArchiveConfig{
		Dir:              fx.dir,
		Timeout:          5 * time.Second,
		BackupFilePrefix: "backup_turnix",
		BackupSheetName:  "Gestiones",
	}
	fx.flow = NewArchiveFlow(repo, fx.cache, fx.audit, cfg, "", discardLogger).(*ArchiveFlowImpl)
	fx.flow.now = func() time.Time { return time.UnixMilli(1767225600000) }
	return fx
}

func readWorkbook(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	assert.Equal(t, []string{sheet}, xl.GetSheetList())
	rows, err := xl.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestArchiveFlow_BackupExcel(t *testing.T) {
	fx := newArchiveFlowFixture(t,
		sheetRow("A001", "Ana", utils.EstadoResuelto),
		sheetRow("A002", "Beto", utils.EstadoPendiente),
	)

	filename, data, err := fx.flow.BackupExcel(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "backup_turnix_1767225600000.xlsx", filename)

	rows := readWorkbook(t, data, "Gestiones")
	require.Len(t, rows, 3)
	assert.Equal(t, models.GestionHeader, rows[0])
	assert.Equal(t, "A001", rows[1][models.ColID])
	assert.Equal(t, "Ana", rows[1][models.ColNombres])
	assert.Equal(t, utils.EstadoPendiente, rows[2][models.ColEstado])

	assert.Equal(t, []string{models.AuditActionBackupExported}, fx.audit.actions())
}

func TestArchiveFlow_BackupExcelEmptySheet(t *testing.T) {
	fx := newArchiveFlowFixture(t)

	_, _, err := fx.flow.BackupExcel(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsNothingToExport(err))
	assert.Equal(t, CodeNothingToExport, ErrorCode(err))
}

func TestArchiveFlow_ClearHistorial(t *testing.T) {
	fx := newArchiveFlowFixture(t,
		sheetRow("A003", "Carla", utils.EstadoPendiente),
		sheetRow("A001", "Ana", utils.EstadoResuelto),
		make([]string, models.GestionColumnCount),
		sheetRow("A002", "Beto", "por llamar"),
		sheetRow("A004", "Dora", " resuelto "),
	)
	ctx := context.Background()

	resp, err := fx.flow.ClearHistorial(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Removed)
	assert.Equal(t, 2, resp.Remaining)
	assert.Equal(t, "A003", resp.LastID)

	rest, err := fx.repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "A002", rest[0].ID)
	assert.Equal(t, "A003", rest[1].ID)

	assert.Equal(t, models.GestionHeader, fx.store.Rows(testSheet)[0])
	assert.Equal(t, 1, fx.cache.invalidations)
	assert.Equal(t, []string{models.AuditActionHistorialCleared}, fx.audit.actions())
}

func TestArchiveFlow_ClearHistorialKeepsAllocatorContinuity(t *testing.T) {
	fx := newArchiveFlowFixture(t,
		sheetRow("A001", "Ana", utils.EstadoResuelto),
		sheetRow("A002", "Beto", utils.EstadoPendiente),
		sheetRow("A003", "Carla", utils.EstadoResuelto),
	)
	ctx := context.Background()

	_, err := fx.flow.ClearHistorial(ctx, nil)
	require.NoError(t, err)

	column, err := fx.repo.ReadIDColumn(ctx)
	require.NoError(t, err)
	next, err := NextGestionID(column)
	require.NoError(t, err)
	assert.Equal(t, "A003", next)
}

func TestArchiveFlow_ClearHistorialEmptySheet(t *testing.T) {
	fx := newArchiveFlowFixture(t)

	resp, err := fx.flow.ClearHistorial(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, resp.Removed)
	assert.Empty(t, resp.LastID)
	assert.Empty(t, fx.audit.actions())
}

func TestArchiveFlow_ArchiveAndClear(t *testing.T) {
	fx := newArchiveFlowFixture(t,
		sheetRow("A001", "Ana", utils.EstadoResuelto),
		sheetRow("A002", "Beto", utils.EstadoPendiente),
	)
	ctx := context.Background()

	resp, err := fx.flow.ArchiveAndClear(ctx, NewClientMetadata("127.0.0.1", "cli"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fx.dir, "backup_turnix_1767225600000.xlsx"), resp.BackupPath)
	require.NotNil(t, resp.Clear)
	assert.Equal(t, 1, resp.Clear.Removed)

	data, err := os.ReadFile(resp.BackupPath)
	require.NoError(t, err)
	rows := readWorkbook(t, data, "Gestiones")
	assert.Len(t, rows, 3)

	rest, err := fx.repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "A002", rest[0].ID)

	assert.Equal(t, []string{models.AuditActionHistorialCleared, models.AuditActionArchiveCompleted}, fx.audit.actions())
	assert.Empty(t, fx.cache.locks)
	assert.False(t, fx.flow.running.Load())
}

func TestArchiveFlow_ArchiveAndClearEmptySheet(t *testing.T) {
	fx := newArchiveFlowFixture(t)

	resp, err := fx.flow.ArchiveAndClear(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resp.BackupPath)
	assert.Nil(t, resp.Clear)

	_, statErr := os.Stat(fx.dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestArchiveFlow_ArchiveAndClearRejectsConcurrentRun(t *testing.T) {
	fx := newArchiveFlowFixture(t, sheetRow("A001", "Ana", utils.EstadoResuelto))

	fx.flow.running.Store(true)
	_, err := fx.flow.ArchiveAndClear(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsArchiveRunning(err))
	fx.flow.running.Store(false)

	// another instance holds the shared lock
	release, err := fx.cache.Lock(context.Background(), utils.ArchiveLockKey, time.Minute)
	require.NoError(t, err)
	_, err = fx.flow.ArchiveAndClear(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsArchiveRunning(err))
	release()

	rest, err := fx.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestArchiveFlow_ArchiveWriteFailure(t *testing.T) {
	fx := newArchiveFlowFixture(t, sheetRow("A001", "Ana", utils.EstadoResuelto))

	// a regular file where the archive directory should be
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	fx.flow.cfg.Dir = blocker

	_, err := fx.flow.ArchiveAndClear(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, CodeArchiveWrite, ErrorCode(err))

	// nothing is cleared without a backup on disk
	rest, err := fx.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestArchiveFlow_TriggerArchive(t *testing.T) {
	fx := newArchiveFlowFixture(t,
		sheetRow(utils.LastGestionID, "Ultimo", utils.EstadoResuelto),
	)

	require.True(t, fx.flow.TriggerArchive("test"))
	fx.flow.Wait()

	entries, err := os.ReadDir(fx.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	rest, err := fx.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rest)

	column, err := fx.repo.ReadIDColumn(context.Background())
	require.NoError(t, err)
	next, err := NextGestionID(column)
	require.NoError(t, err)
	assert.Equal(t, utils.FirstGestionID, next)
}

func TestArchiveFlow_TriggerArchiveWhileRunning(t *testing.T) {
	fx := newArchiveFlowFixture(t)

	fx.flow.running.Store(true)
	assert.False(t, fx.flow.TriggerArchive("test"))
	fx.flow.running.Store(false)
	fx.flow.Wait()
}

func TestLastValidID(t *testing.T) {
	gestiones := []models.Gestion{{ID: "b010"}, {ID: "junk"}, {ID: "A999"}, {ID: ""}}
	assert.Equal(t, "B010", lastValidID(gestiones))
	assert.Empty(t, lastValidID(nil))
}
