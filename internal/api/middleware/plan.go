package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Matfen2/daftlink-demo/internal/api/metrics"
	"github.com/Matfen2/daftlink-demo/internal/core/domain"
)

// RequirePlan lets the request through only when the authenticated caller
// holds one of plans. It must run after Auth.
func RequirePlan(plans ...domain.Plan) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := domain.RequirePlan(CurrentUser(c), plans...); err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("plan_required").Inc()
				return err
			}
			return next(c)
		}
	}
}
