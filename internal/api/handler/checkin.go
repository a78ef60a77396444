package handler

import (
	"errors"

	"ktrek/internal/models"
	"ktrek/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupCheckin struct {
	container *do.Injector
}

type checkinRequest struct {
	TaskID    int64    `json:"task_id"`
	QRToken   *string  `json:"qr_token,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	AccuracyM *float64 `json:"accuracy,omitempty"`
}

func (gr *groupCheckin) CheckIn(c echo.Context) error {
	serviceCheckin, err := do.Invoke[*services.ServiceCheckin](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload checkinRequest
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}
	if payload.TaskID == 0 {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("task_id is required"), errorx.Invalid))
	}

	proof := &models.CheckinProof{
		QRToken:   payload.QRToken,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
		AccuracyM: payload.AccuracyM,
	}
	if !proof.IsQR() && !proof.IsGPS() {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("proof is required"), errorx.Invalid))
	}

	result, err := serviceCheckin.CheckIn(ctx, user, payload.TaskID, proof)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, result, nil)
}
