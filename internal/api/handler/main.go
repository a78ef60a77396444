package handler

import (
	"net/http"

	"ktrek/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
	AdminKey  string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🧭")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.

		t := groupTask{cfg.Container}
		routesAPIv1.GET("/tasks", t.GetTasks)

		ch := groupCheckin{cfg.Container}
		routesAPIv1.POST("/checkins", ch.CheckIn)

		s := groupStats{cfg.Container}
		routesAPIv1.GET("/users/me/stats", s.GetMyStats)
		routesAPIv1.GET("/users/me/rewards", s.GetMyRewards)
		routesAPIv1.GET("/users/:id/stats", s.GetUserStats)

		l := groupLeaderboard{cfg.Container}
		routesAPIv1.GET("/leaderboard/overall", l.GetOverallLeaderboard)

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		{
			routesAPIv1Admin.Use(AuthnAdmin(cfg.AdminKey))
			a := groupAdmin{cfg.Container}
			routesAPIv1Admin.POST("/reconcile", a.Reconcile)
			routesAPIv1Admin.POST("/leaderboard/rebuild", a.RebuildLeaderboard)
		}
	}

	return r, nil
}
