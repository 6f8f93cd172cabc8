package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"catalog_service/internal/domain"
	"catalog_service/internal/usecase"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type CatalogHandler struct {
	catalog *usecase.CatalogUseCase
	log     *logrus.Logger
}

func NewCatalogHandler(catalog *usecase.CatalogUseCase, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		log:     logger,
	}
}

// browseRequest is a storefront selection, optionally scoped to a
// collection.
type browseRequest struct {
	domain.Selection
	Collection string `json:"collection"`
}

type productRequest struct {
	Slug string `json:"slug"`
}

func decodeStruct(in *structpb.Struct, dst interface{}) error {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "Invalid request: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "Invalid request: %v", err)
	}
	return nil
}

func encodeStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode response: %v", err)
	}
	return out, nil
}

func (h *CatalogHandler) BrowseProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in browseRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	h.log.Debugf("gRPC Handler: Received BrowseProducts request: collection=%q", in.Collection)

	if in.Collection != "" {
		coll, page, err := h.catalog.CollectionProducts(ctx, in.Collection, in.Selection)
		if err != nil {
			h.log.Warnf("gRPC Handler: BrowseProducts use case error: %v", err)
			return nil, mapDomainErrorToGrpcStatus(err)
		}
		return encodeStruct(struct {
			Collection *domain.Collection  `json:"collection"`
			Page       *domain.ProductPage `json:"page"`
		}{coll, page})
	}

	page, err := h.catalog.Browse(ctx, in.Selection)
	if err != nil {
		h.log.Warnf("gRPC Handler: BrowseProducts use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return encodeStruct(page)
}

func (h *CatalogHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in productRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Slug) == "" {
		return nil, status.Error(codes.InvalidArgument, "Product slug cannot be empty")
	}

	detail, err := h.catalog.ProductDetail(ctx, in.Slug)
	if err != nil {
		h.log.Warnf("gRPC Handler: GetProduct use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return encodeStruct(detail)
}

func (h *CatalogHandler) ListCollections(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	list, err := h.catalog.Collections(ctx)
	if err != nil {
		h.log.Errorf("gRPC Handler: ListCollections use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return encodeStruct(map[string]interface{}{"collections": list})
}

func (h *CatalogHandler) PreviewTags(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in usecase.PreviewRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	return encodeStruct(h.catalog.PreviewTags(in))
}

func mapDomainErrorToGrpcStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "not found"):
		return status.Error(codes.NotFound, err.Error())
	case strings.Contains(errMsg, "already exists"),
		strings.Contains(errMsg, "duplicate key"):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Errorf(codes.Internal, "Internal server error: %v", err)
	}
}
