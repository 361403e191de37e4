// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge defines the command gateway the presentation layer talks to.
// It exposes one method per worker action while keeping the transport
// pluggable: the local implementation drives the process runner directly,
// and the gRPC client implements the same interface against a remote
// `enginebridge serve`.
//
// The gateway forwards payloads unchanged and applies no transformation to
// results apart from decoding the school listing into typed records.
package bridge

import (
	"context"
	"fmt"

	"enginebridge/cli/internal/bridge/model"
	bridgeerrors "enginebridge/cli/internal/errors"
)

// Gateway is the command surface offered to the presentation layer.
type Gateway interface {
	// GetSchools lists the schools the engine knows about.
	GetSchools(ctx context.Context) ([]model.School, error)
	// StartVerify runs a verification with the caller's form payload.
	StartVerify(ctx context.Context, payload map[string]any) (*model.Outcome, error)
	// GenerateDocs renders documents with the caller's form payload.
	GenerateDocs(ctx context.Context, payload map[string]any) (*model.Outcome, error)
}

// Invoker runs one action and returns its outcome. *runner.Runner and
// *grpcclient.Client both satisfy it.
type Invoker interface {
	Invoke(ctx context.Context, action model.Action, payload map[string]any) (*model.Outcome, error)
}

// Service implements Gateway on top of an Invoker.
type Service struct {
	inv Invoker
}

var _ Gateway = (*Service)(nil)

// New returns a gateway backed by inv.
func New(inv Invoker) *Service {
	return &Service{inv: inv}
}

func (s *Service) GetSchools(ctx context.Context) ([]model.School, error) {
	out, err := s.inv.Invoke(ctx, model.ActionGetSchools, nil)
	if err != nil {
		return nil, err
	}
	return DecodeSchools(out.Raw)
}

func (s *Service) StartVerify(ctx context.Context, payload map[string]any) (*model.Outcome, error) {
	return s.inv.Invoke(ctx, model.ActionVerify, payload)
}

func (s *Service) GenerateDocs(ctx context.Context, payload map[string]any) (*model.Outcome, error) {
	return s.inv.Invoke(ctx, model.ActionGenerateDocs, payload)
}

// DecodeSchools converts the worker's school array into records. IDs may
// arrive as strings or numbers.
func DecodeSchools(raw any) ([]model.School, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, bridgeerrors.New(bridgeerrors.UnparseableResult, fmt.Sprintf("expected a school list, got %T", raw))
	}
	schools := make([]model.School, 0, len(arr))
	for i, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, bridgeerrors.New(bridgeerrors.UnparseableResult, fmt.Sprintf("school %d is %T, not an object", i, e))
		}
		schools = append(schools, model.School{
			ID:      field(m, "id"),
			Name:    field(m, "name"),
			Country: field(m, "country"),
		})
	}
	return schools, nil
}

func field(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; school IDs are integral.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}
