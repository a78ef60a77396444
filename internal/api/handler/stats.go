package handler

import (
	"errors"
	"strconv"

	"ktrek/internal/models"
	"ktrek/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupStats struct {
	container *do.Injector
}

type statsResponse struct {
	Stats       *models.UserStats         `json:"stats"`
	Progress    []models.CategoryProgress `json:"progress"`
	Leaderboard *models.LeaderboardItem   `json:"leaderboard"`
}

func (gr *groupStats) GetMyStats(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return gr.renderStats(c, user.ID)
}

func (gr *groupStats) GetUserStats(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid user id"), errorx.Invalid))
	}

	return gr.renderStats(c, userID)
}

func (gr *groupStats) renderStats(c echo.Context, userID int64) error {
	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()

	stats, err := serviceProgression.GetUserStats(ctx, userID)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	progress, err := serviceProgression.GetUserProgress(ctx, userID)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	position, err := serviceLeaderboard.GetPosition(ctx, userID)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, &statsResponse{Stats: stats, Progress: progress, Leaderboard: position}, nil)
}

func (gr *groupStats) GetMyRewards(c echo.Context) error {
	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	rewards, err := serviceReward.GetUserRewards(ctx, user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, rewards, nil)
}
