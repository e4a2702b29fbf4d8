package businessflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/turnixpro/turnix/app/dto"
	"github.com/turnixpro/turnix/app/services"
	"github.com/turnixpro/turnix/config"
	"github.com/turnixpro/turnix/models"
	"github.com/turnixpro/turnix/repository"
	"github.com/turnixpro/turnix/utils"
	"github.com/xuri/excelize/v2"
)

// ArchiveFlow exports the sheet to xlsx and compacts it by dropping resolved gestiones.
// Archive runs are serialized per process and, with redis configured, across processes.
type ArchiveFlow interface {
	BackupExcel(ctx context.Context, metadata *ClientMetadata) (string, []byte, error)
	ClearHistorial(ctx context.Context, metadata *ClientMetadata) (*dto.ClearHistorialResponse, error)
	ArchiveAndClear(ctx context.Context, metadata *ClientMetadata) (*dto.ArchiveResponse, error)
	TriggerArchive(reason string) bool
	Wait()
}

type ArchiveFlowImpl struct {
	repo   repository.GestionRepository
	cache  services.GestionCache
	audit  auditRecorder
	cfg    config.ArchiveConfig
	logger *log.Logger
	now    func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewArchiveFlow creates a new archive flow. cache and auditRepo may be nil.
func NewArchiveFlow(
	repo repository.GestionRepository,
	cache services.GestionCache,
	auditRepo repository.AuditLogRepository,
	cfg config.ArchiveConfig,
	timeZone string,
	logger *log.Logger,
) ArchiveFlow {
	if cache == nil {
		cache = services.NewNoopGestionCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ArchiveFlowImpl{
		repo:   repo,
		cache:  cache,
		audit:  auditRecorder{repo: auditRepo, logger: logger},
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return utils.LocalNow(timeZone) },
	}
}

// BackupExcel renders the header and every data row into a single-sheet workbook
func (f *ArchiveFlowImpl) BackupExcel(ctx context.Context, metadata *ClientMetadata) (string, []byte, error) {
	rows, err := f.repo.ListAll(ctx)
	if err != nil {
		return "", nil, newStoreError("read gestiones", err)
	}

	filename, data, err := f.renderWorkbook(rows)
	if err != nil {
		return "", nil, err
	}

	f.audit.record(ctx, nil, models.AuditActionBackupExported, fmt.Sprintf("Backup %s exported with %d rows", filename, len(rows)), nil, metadata)
	return filename, data, nil
}

func (f *ArchiveFlowImpl) renderWorkbook(rows []models.Gestion) (string, []byte, error) {
	if len(rows) == 0 {
		return "", nil, NewBusinessError(CodeNothingToExport, "No gestiones to export", ErrNothingToExport)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheetName := f.cfg.BackupSheetName
	if sheetName == "" {
		sheetName = "Gestiones"
	}
	if err := xl.SetSheetName(xl.GetSheetName(0), sheetName); err != nil {
		return "", nil, NewBusinessError(CodeExcelWrite, "Failed to write Excel file", err)
	}

	header := models.GestionHeader
	if err := xl.SetSheetRow(sheetName, "A1", &header); err != nil {
		return "", nil, NewBusinessError(CodeExcelWrite, "Failed to write Excel file", err)
	}
	for i, g := range rows {
		record := g.ToRow()
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := xl.SetSheetRow(sheetName, cellRef, &record); err != nil {
			return "", nil, NewBusinessError(CodeExcelWrite, "Failed to write Excel file", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError(CodeExcelWrite, "Failed to write Excel file", err)
	}

	prefix := f.cfg.BackupFilePrefix
	if prefix == "" {
		prefix = "backup_turnix"
	}
	filename := fmt.Sprintf("%s_%d.xlsx", prefix, f.now().UnixMilli())
	return filename, buf.Bytes(), nil
}

// ClearHistorial drops resolved and blank rows, then rewrites the rest in id order under the header
func (f *ArchiveFlowImpl) ClearHistorial(ctx context.Context, metadata *ClientMetadata) (*dto.ClearHistorialResponse, error) {
	rows, err := f.repo.ListAll(ctx)
	if err != nil {
		return nil, newStoreError("read gestiones", err)
	}
	if len(rows) == 0 {
		return &dto.ClearHistorialResponse{Message: "Nothing to clear"}, nil
	}

	keep := make([]models.Gestion, 0, len(rows))
	for _, g := range rows {
		if models.IsBlankRow(g.ToRow()) || g.HasEstado(utils.EstadoResuelto) {
			continue
		}
		keep = append(keep, g)
	}
	slices.SortStableFunc(keep, func(a, b models.Gestion) int {
		return CompareGestionIDs(normalizeID(a.ID), normalizeID(b.ID))
	})

	if err := f.repo.ReplaceAll(ctx, keep); err != nil {
		storeErr := newStoreError("rewrite sheet", err)
		f.audit.record(ctx, nil, models.AuditActionHistorialCleared, "Historial clear failed", storeErr, metadata)
		return nil, storeErr
	}
	if err := f.cache.Invalidate(ctx); err != nil {
		f.logger.Printf("archive: cache invalidation failed: %v", err)
	}

	resp := &dto.ClearHistorialResponse{
		Message:   "Historial cleared",
		Removed:   len(rows) - len(keep),
		Remaining: len(keep),
		LastID:    lastValidID(keep),
	}
	f.audit.record(ctx, nil, models.AuditActionHistorialCleared,
		fmt.Sprintf("Removed %d rows, %d remaining, last id %q", resp.Removed, resp.Remaining, resp.LastID), nil, metadata)
	f.logger.Printf("archive: historial cleared, removed=%d remaining=%d last=%s", resp.Removed, resp.Remaining, resp.LastID)
	return resp, nil
}

// ArchiveAndClear writes the backup to the archive directory and then clears the historial
func (f *ArchiveFlowImpl) ArchiveAndClear(ctx context.Context, metadata *ClientMetadata) (*dto.ArchiveResponse, error) {
	if !f.running.CompareAndSwap(false, true) {
		return nil, NewBusinessError(CodeArchiveRunning, "An archive is already running", ErrArchiveRunning)
	}
	defer f.running.Store(false)
	return f.runArchive(ctx, metadata)
}

// TriggerArchive starts ArchiveAndClear in the background. It returns false when a run is in progress.
func (f *ArchiveFlowImpl) TriggerArchive(reason string) bool {
	if !f.running.CompareAndSwap(false, true) {
		return false
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer f.running.Store(false)

		ctx := context.Background()
		if f.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
			defer cancel()
		}

		metadata := NewClientMetadata("", "archive")
		metadata.AddAdditional("reason", reason)
		resp, err := f.runArchive(ctx, metadata)
		if err != nil {
			f.logger.Printf("archive: background run (%s) failed: %v", reason, err)
			return
		}
		f.logger.Printf("archive: background run (%s) wrote %s", reason, resp.BackupPath)
	}()
	return true
}

// Wait blocks until background archive runs have finished
func (f *ArchiveFlowImpl) Wait() {
	f.wg.Wait()
}

func (f *ArchiveFlowImpl) runArchive(ctx context.Context, metadata *ClientMetadata) (*dto.ArchiveResponse, error) {
	lockTTL := f.cfg.Timeout
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	release, err := f.cache.Lock(ctx, utils.ArchiveLockKey, lockTTL)
	if err != nil {
		if errors.Is(err, services.ErrLockBusy) {
			return nil, NewBusinessError(CodeArchiveRunning, "An archive is already running", ErrArchiveRunning)
		}
		return nil, NewBusinessError(CodeArchiveRunning, "Failed to acquire archive lock", err)
	}
	defer release()

	rows, err := f.repo.ListAll(ctx)
	if err != nil {
		return nil, newStoreError("read gestiones", err)
	}

	filename, data, err := f.renderWorkbook(rows)
	if err != nil {
		if IsNothingToExport(err) {
			return &dto.ArchiveResponse{Message: "Nothing to archive"}, nil
		}
		return nil, err
	}

	if err := os.MkdirAll(f.cfg.Dir, 0o755); err != nil {
		return nil, NewBusinessError(CodeArchiveWrite, "Failed to create archive directory", err)
	}
	backupPath := filepath.Join(f.cfg.Dir, filename)
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return nil, NewBusinessError(CodeArchiveWrite, "Failed to write archive file", err)
	}
	f.logger.Printf("archive: backup of %d rows written to %s", len(rows), backupPath)

	clearResp, err := f.ClearHistorial(ctx, metadata)
	if err != nil {
		return nil, err
	}

	f.audit.record(ctx, nil, models.AuditActionArchiveCompleted,
		fmt.Sprintf("Archive %s written, %d rows removed", backupPath, clearResp.Removed), nil, metadata)

	return &dto.ArchiveResponse{
		Message:    "Archive completed",
		BackupPath: backupPath,
		Clear:      clearResp,
	}, nil
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// lastValidID returns the highest valid id of gestiones, or "" when there is none
func lastValidID(gestiones []models.Gestion) string {
	last := ""
	for _, g := range gestiones {
		id := normalizeID(g.ID)
		if IsGestionID(id) && (last == "" || CompareGestionIDs(id, last) > 0) {
			last = id
		}
	}
	return last
}
