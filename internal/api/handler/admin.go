package handler

import (
	"errors"
	"strconv"

	"ktrek/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

// Reconcile replays derivation for one user (?user_id=...) or for everyone.
func (gr *groupAdmin) Reconcile(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()

	raw := c.QueryParam("user_id")
	if raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid user id"), errorx.Invalid))
		}

		report, err := serviceReconcile.Reconcile(ctx, userID)
		if err != nil {
			return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
		}

		return httpx.RestAbort(c, report, nil)
	}

	reports, err := serviceReconcile.ReconcileAll(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, reports, nil)
}

func (gr *groupAdmin) RebuildLeaderboard(c echo.Context) error {
	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	if err := serviceProgression.RebuildLeaderboard(c.Request().Context()); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, "ok", nil)
}
