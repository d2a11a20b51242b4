package controllers

import (
	"net/http"

	"github.com/birrflow/birrflow-backend/api/responses"
	"github.com/birrflow/birrflow-backend/internal/accounts"
	"github.com/birrflow/birrflow-backend/internal/directory"
	pkgerrors "github.com/birrflow/birrflow-backend/pkg/errors"
	"github.com/birrflow/birrflow-backend/pkg/logger"
)

// DashboardAccounts lists every account visible to the caller.
func DashboardAccounts(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "directory service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		visible, err := svc.ListVisibleAccounts(ctx, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, accounts.NewAccountResponses(visible))
	}
}

// DashboardStats returns aggregate figures over the caller's scope, read in
// a single snapshot.
func DashboardStats(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "directory service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		stats, err := svc.AggregateStats(ctx, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
