package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/reportstore"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/service"
)

// remoteCreator posts imported documents to a remote reports API.
type remoteCreator struct {
	client *reportstore.Client
}

func (r remoteCreator) Create(ctx context.Context, in service.CreateReportInput) (*domain.Report, error) {
	reportType, err := service.NormalizeType(in.Type)
	if err != nil {
		return nil, err
	}

	raw, err := r.client.Create(ctx, reportType, in.Reporter, in.Payload, in.CreatedAt)
	if err != nil {
		var herr *reportstore.HTTPError
		if errors.As(err, &herr) && herr.StatusCode == http.StatusBadRequest {
			return nil, &service.ValidationError{Field: "payload", Message: herr.Body}
		}
		return nil, err
	}

	id, _ := raw["_id"].(string)
	if id == "" {
		id, _ = raw["id"].(string)
	}
	report := &domain.Report{ID: id, Type: reportType, Reporter: in.Reporter, Payload: in.Payload}
	if in.CreatedAt != nil {
		report.CreatedAt = *in.CreatedAt
	}
	return report, nil
}
