package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"statement_engine/pkg/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when no snapshot exists for a run ID.
var ErrNotFound = errors.New("model snapshot not found")

// Snapshot is one saved model build with the inputs that produced it.
type Snapshot struct {
	RunID     uuid.UUID                  `json:"run_id"`
	CaseName  string                     `json:"case_name"`
	Scenario  string                     `json:"scenario"`
	CreatedAt time.Time                  `json:"created_at"`
	Drivers   []models.DriverAssumptions `json:"drivers"`
	Result    *models.ModelResult        `json:"result"`
}

// SnapshotInfo is the listing view of a snapshot.
type SnapshotInfo struct {
	RunID     uuid.UUID `json:"run_id"`
	CaseName  string    `json:"case_name"`
	Scenario  string    `json:"scenario"`
	Balanced  bool      `json:"balanced"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Snapshot) info() SnapshotInfo {
	return SnapshotInfo{
		RunID:     s.RunID,
		CaseName:  s.CaseName,
		Scenario:  s.Scenario,
		Balanced:  s.Result != nil && s.Result.AllPeriodsBalanced,
		CreatedAt: s.CreatedAt,
	}
}

// ModelRepo stores snapshots in PostgreSQL (primary) or as JSON files
// (fallback / local).
type ModelRepo struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewModelRepo creates a repository. If pool is nil, snapshots are written
// under dir (default .cache/models).
func NewModelRepo(pool *pgxpool.Pool, dir string) *ModelRepo {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "models")
	}
	if pool == nil {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logrus.WithError(err).WithField("dir", dir).Warn("model store directory unavailable")
		}
	}
	return &ModelRepo{pool: pool, fileDir: dir}
}

// Save persists a snapshot, assigning a run ID and timestamp if unset.
// Saving the same run ID again replaces the earlier snapshot.
func (r *ModelRepo) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.Result == nil {
		return fmt.Errorf("nothing to save: snapshot has no result")
	}
	if snap.RunID == uuid.Nil {
		snap.RunID = uuid.New()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if r.pool != nil {
		query := `
			INSERT INTO model_runs (run_id, case_name, scenario, balanced, snapshot, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (run_id)
			DO UPDATE SET
				case_name = EXCLUDED.case_name,
				scenario = EXCLUDED.scenario,
				balanced = EXCLUDED.balanced,
				snapshot = EXCLUDED.snapshot,
				created_at = EXCLUDED.created_at
		`
		_, err := r.pool.Exec(ctx, query, snap.RunID, snap.CaseName, snap.Scenario, snap.Result.AllPeriodsBalanced, data, snap.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		return nil
	}

	return os.WriteFile(r.snapshotPath(snap.RunID), data, 0644)
}

// Load returns the snapshot for runID, or ErrNotFound.
func (r *ModelRepo) Load(ctx context.Context, runID uuid.UUID) (*Snapshot, error) {
	var data []byte
	if r.pool != nil {
		err := r.pool.QueryRow(ctx, `SELECT snapshot FROM model_runs WHERE run_id = $1`, runID).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
	} else {
		var err error
		data, err = os.ReadFile(r.snapshotPath(runID))
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		if err != nil {
			return nil, err
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// List returns snapshots for a case (all cases when caseName is empty),
// newest first.
func (r *ModelRepo) List(ctx context.Context, caseName string) ([]SnapshotInfo, error) {
	if r.pool != nil {
		rows, err := r.pool.Query(ctx, `
			SELECT run_id, case_name, scenario, balanced, created_at
			FROM model_runs
			WHERE $1 = '' OR case_name = $1
			ORDER BY created_at DESC
		`, caseName)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}
		return pgx.CollectRows(rows, pgx.RowToStructByPos[SnapshotInfo])
	}

	entries, err := os.ReadDir(r.fileDir)
	if err != nil {
		return nil, err
	}
	var out []SnapshotInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		snap, err := r.Load(ctx, id)
		if err != nil {
			logrus.WithError(err).WithField("file", e.Name()).Warn("skipping unreadable snapshot")
			continue
		}
		if caseName != "" && snap.CaseName != caseName {
			continue
		}
		out = append(out, snap.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ModelRepo) snapshotPath(runID uuid.UUID) string {
	return filepath.Join(r.fileDir, runID.String()+".json")
}
