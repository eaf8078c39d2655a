package store

import (
	"mindcanvas/domain/core/entities"
	domainevents "mindcanvas/domain/events"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// Action describes one pending mutation as seen by the middleware
// pipeline, before it is applied. Payload holds the mutation's input
// (NodeInput, UpdateNodeAction, ...).
type Action struct {
	Type    domainevents.EventType
	Payload interface{}
}

// Middleware inspects an action before it is applied. Returning nil
// cancels the mutation; returning a different *Action substitutes it.
// The Reader gives read-only access to the pre-mutation state.
type Middleware func(action *Action, state Reader) *Action

// Reader is the read-only surface middleware and computed functions
// see. All returned entities are copies.
type Reader interface {
	GetNode(id string) *entities.Node
	GetConnection(id string) *entities.Connection
	GetNodes() []*entities.Node
	GetConnections() []*entities.Connection
	HasNode(id string) bool
	HasConnection(id string) bool
	NodeCount() int
	ConnectionCount() int
}

// ErrCanceledMessage marks mutations vetoed by middleware
const errCanceledMessage = "action canceled by middleware"

// NewCanceledError creates the error returned when middleware vetoes
// an action
func NewCanceledError(actionType domainevents.EventType) error {
	return pkgerrors.NewConflictError(errCanceledMessage).
		WithCode("ACTION_CANCELED").
		WithDetails(map[string]interface{}{"action": string(actionType)})
}

// IsCanceled reports whether an error came from a middleware veto
func IsCanceled(err error) bool {
	appErr := pkgerrors.GetAppError(err)
	return appErr != nil && appErr.Code == "ACTION_CANCELED"
}

// LoggingMiddleware logs every action passing through the pipeline
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(action *Action, state Reader) *Action {
		logger.Debug("store action",
			zap.String("type", string(action.Type)),
			zap.Int("nodes", state.NodeCount()),
			zap.Int("connections", state.ConnectionCount()))
		return action
	}
}

// VetoUnknownTargets cancels update actions aimed at ids that do not
// exist, before the store raises a NotFoundError. Useful when the UI
// double-fires updates against entities deleted in the same frame.
func VetoUnknownTargets() Middleware {
	return func(action *Action, state Reader) *Action {
		switch payload := action.Payload.(type) {
		case UpdateNodeAction:
			if !state.HasNode(payload.ID) {
				return nil
			}
		case UpdateConnectionAction:
			if !state.HasConnection(payload.ID) {
				return nil
			}
		}
		return action
	}
}
