package requests

import (
	"context"
	"errors"
	"time"

	"bizpilot/apperrors"
	"bizpilot/db"
	"bizpilot/pkg/logger"
	"bizpilot/pkg/metrics"
	"bizpilot/services/auth"
	"bizpilot/utils"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
	StatusRejected   = "rejected"
)

var statuses = map[string]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusDone:       true,
	StatusRejected:   true,
}

// ValidateStatus checks that status is one of the known request statuses
func ValidateStatus(status string) *apperrors.AppError {
	if status == "" {
		return apperrors.NewValidationError("Status required")
	}
	if !statuses[status] {
		return apperrors.NewValidationError("Invalid status").
			WithDetails("allowed", []string{StatusPending, StatusInProgress, StatusDone, StatusRejected})
	}
	return nil
}

// RequestService handles submission and administration of service requests
type RequestService struct {
	rdb *db.RequestsDB
	now func() time.Time
}

func NewRequestService(rdb *db.RequestsDB) *RequestService {
	return &RequestService{
		rdb: rdb,
		now: time.Now,
	}
}

// Submit records a new pending request on behalf of the caller. The email
// always comes from the verified identity, never from the request body.
func (rs *RequestService) Submit(ctx context.Context, who auth.Identity, text string) (db.Request, error) {
	if err := utils.ValidateRequestText(text); err != nil {
		return db.Request{}, err
	}

	req := db.Request{
		Email:   who.Email,
		Request: text,
		Status:  StatusPending,
		Date:    db.Timestamp(rs.now()),
	}

	saved, err := rs.rdb.Append(ctx, req)
	if err != nil {
		return db.Request{}, apperrors.NewStorageError("save_requests", err)
	}

	metrics.IncrementRequestsSubmitted()
	logger.WithFields(map[string]interface{}{
		"email": who.Email,
		"id":    saved.ID,
	}).Info("request submitted")

	return saved, nil
}

// ListAll returns every stored request in insertion order
func (rs *RequestService) ListAll(ctx context.Context) ([]db.Request, error) {
	reqs, err := rs.rdb.All(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("load_requests", err)
	}
	if reqs == nil {
		reqs = []db.Request{}
	}
	return reqs, nil
}

// UpdateStatus changes the status of the request at position index
func (rs *RequestService) UpdateStatus(ctx context.Context, index int, status string) (db.Request, error) {
	if err := ValidateStatus(status); err != nil {
		return db.Request{}, err
	}

	updated, err := rs.rdb.UpdateStatusAt(ctx, index, status)
	if err != nil {
		return db.Request{}, rs.mapUpdateError(err)
	}

	rs.logUpdate(updated)
	return updated, nil
}

// UpdateStatusByID changes the status of the request with the given id
func (rs *RequestService) UpdateStatusByID(ctx context.Context, id, status string) (db.Request, error) {
	if err := ValidateStatus(status); err != nil {
		return db.Request{}, err
	}

	updated, err := rs.rdb.UpdateStatusByID(ctx, id, status)
	if err != nil {
		return db.Request{}, rs.mapUpdateError(err)
	}

	rs.logUpdate(updated)
	return updated, nil
}

func (rs *RequestService) mapUpdateError(err error) error {
	if errors.Is(err, db.ErrRequestNotFound) {
		return apperrors.NewRequestNotFound()
	}
	return apperrors.NewStorageError("save_requests", err)
}

func (rs *RequestService) logUpdate(req db.Request) {
	metrics.RecordStatusUpdate(req.Status)
	logger.WithFields(map[string]interface{}{
		"id":     req.ID,
		"status": req.Status,
	}).Info("request status updated")
}
