package ports

import (
	"context"

	"goebm/domain/core"
	"goebm/domain/ebm"
)

// RunRepository persists completed run summaries. Persistence happens once,
// after the chain has terminated; nothing is written mid-chain.
type RunRepository interface {
	SaveRun(ctx context.Context, result *ebm.RunResult) error
	GetRun(ctx context.Context, id core.RunID) (*ebm.RunResult, error)
	ListRuns(ctx context.Context, limit int) ([]*ebm.RunResult, error)
}
