// Package realtime publishes stage-state changes and finished previews to a
// socket.io endpoint so a UI can follow a workflow run live. A NopPublisher
// stands in when the realtime toggle is off or no endpoint is configured.
package realtime

import (
	"context"

	"github.com/dk/stagecraft/internal/pipeline"
)

// Publisher delivers workflow progress to interested remote listeners.
type Publisher interface {
	// PublishStages sends a snapshot of all stage states.
	PublishStages(ctx context.Context, sessionID string, states []pipeline.StageState) error
	// PublishPreview sends the finished preview document for a session.
	PublishPreview(ctx context.Context, sessionID, document string) error
	Close() error
}

// NopPublisher discards everything. Used when realtime preview is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishStages(context.Context, string, []pipeline.StageState) error {
	return nil
}

func (NopPublisher) PublishPreview(context.Context, string, string) error { return nil }

func (NopPublisher) Close() error { return nil }
