package handler

import (
	"ktrek/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupTask struct {
	container *do.Injector
}

func (gr *groupTask) GetTasks(c echo.Context) error {
	serviceTask, err := do.Invoke[*services.ServiceTask](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	tasks, err := serviceTask.GetEnabledTasks(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, tasks, nil)
}
