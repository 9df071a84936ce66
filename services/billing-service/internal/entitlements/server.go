//go:build protogen

package entitlements

import (
	"context"

	entitlementsv1 "github.com/ojalink/ojalink/protos/gen/entitlements/v1"
	"github.com/ojalink/ojalink/services/billing-service/internal/storage"
	"google.golang.org/grpc"
)

type server struct {
	entitlementsv1.UnimplementedEntitlementsServiceServer
	repo *storage.Repository
}

func Register(grpcServer *grpc.Server, repo *storage.Repository) {
	entitlementsv1.RegisterEntitlementsServiceServer(grpcServer, &server{repo: repo})
}

func (s *server) GetEntitlements(ctx context.Context, req *entitlementsv1.EntitlementsRequest) (*entitlementsv1.EntitlementsResponse, error) {
	// Any lookup failure falls back to the free tier so callers always
	// get a usable answer.
	limits := LimitsForTier("free")
	if s.repo != nil && req.GetAccountId() != "" {
		sub, err := s.repo.GetSubscription(ctx, req.GetAccountId())
		if err == nil && sub.Status == "active" {
			limits = LimitsForTier(sub.Tier)
		}
	}
	return &entitlementsv1.EntitlementsResponse{
		Tier:             limits.Tier,
		MonthlyAiActions: uint32(limits.MonthlyAIActions),
		Unlimited:        limits.Unlimited,
	}, nil
}
